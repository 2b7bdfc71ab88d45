package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Breakdown is the flat-rate tax estimate for one PNL figure. Tax amounts are
// rounded to cents; rates are reported as configured.
type Breakdown struct {
	TotalPnl    float64 `json:"totalPnl"`
	FederalTax  float64 `json:"federalTax"`
	StateTax    float64 `json:"stateTax"`
	TotalTax    float64 `json:"totalTax"`
	FederalRate float64 `json:"federalRate"`
	StateRate   float64 `json:"stateRate"`
	IsLoss      bool    `json:"isLoss"`
}

// Calculate estimates tax on pnl for the given state code. A PNL at or below
// zero owes nothing and is reported as a loss.
func (t *Table) Calculate(pnl float64, stateCode string) (Breakdown, error) {
	st, ok := t.Lookup(stateCode)
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownState, stateCode)
	}

	b := Breakdown{
		TotalPnl:    pnl,
		FederalRate: t.FederalRate.InexactFloat64(),
		StateRate:   st.Rate.InexactFloat64(),
	}

	if pnl <= 0 {
		b.IsLoss = true
		return b, nil
	}

	gain := decimal.NewFromFloat(pnl)
	federal := gain.Mul(t.FederalRate).Round(2)
	state := gain.Mul(st.Rate).Round(2)

	b.FederalTax = federal.InexactFloat64()
	b.StateTax = state.InexactFloat64()
	b.TotalTax = federal.Add(state).InexactFloat64()
	return b, nil
}

// Calculate estimates tax using the embedded rate table.
func Calculate(pnl float64, stateCode string) (Breakdown, error) {
	return DefaultTable().Calculate(pnl, stateCode)
}

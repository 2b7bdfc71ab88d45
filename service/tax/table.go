// Package tax estimates flat-rate US federal and state tax on realized PNL.
package tax

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var statesYAML []byte

// ErrUnknownState is returned for state codes missing from the rate table.
var ErrUnknownState = errors.New("unknown state")

// State is one jurisdiction's flat effective rate.
type State struct {
	Code string          `json:"code"`
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// Table holds the federal rate and the rates of every supported state.
type Table struct {
	FederalRate decimal.Decimal
	states      []State
	byCode      map[string]State
}

type tableFile struct {
	FederalRate string `yaml:"federal_rate"`
	States      []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
		Rate string `yaml:"rate"`
	} `yaml:"states"`
}

// ParseTable decodes a YAML rate table. Rates are decimal strings in [0, 1].
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode rate table: %w", err)
	}

	federal, err := parseRate(f.FederalRate)
	if err != nil {
		return nil, fmt.Errorf("invalid federal rate: %w", err)
	}

	t := &Table{
		FederalRate: federal,
		byCode:      make(map[string]State, len(f.States)),
	}
	for _, s := range f.States {
		code := strings.ToUpper(strings.TrimSpace(s.Code))
		if len(code) != 2 {
			return nil, fmt.Errorf("invalid state code %q", s.Code)
		}
		if _, dup := t.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate state code %q", code)
		}
		rate, err := parseRate(s.Rate)
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		st := State{Code: code, Name: s.Name, Rate: rate}
		t.states = append(t.states, st)
		t.byCode[code] = st
	}
	if len(t.states) == 0 {
		return nil, errors.New("rate table has no states")
	}

	sort.Slice(t.states, func(i, j int) bool { return t.states[i].Code < t.states[j].Code })
	return t, nil
}

func parseRate(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("rate %s out of range", d)
	}
	return d, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// DefaultTable returns the embedded rate table covering the 50 states and DC.
func DefaultTable() *Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(statesYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded rate table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Lookup finds a state by its exact two-letter code.
func (t *Table) Lookup(code string) (State, bool) {
	s, ok := t.byCode[code]
	return s, ok
}

// States returns every state ordered by code.
func (t *Table) States() []State {
	out := make([]State, len(t.states))
	copy(out, t.states)
	return out
}

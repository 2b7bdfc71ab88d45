package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/solwallet-tax/service/metrics"
	"github.com/brojonat/solwallet-tax/service/nats"
	"github.com/brojonat/solwallet-tax/service/pnl"
	"github.com/brojonat/solwallet-tax/service/solana"
	"github.com/brojonat/solwallet-tax/service/tax"
)

const maxRequestBodySize = 1 << 16

// Error codes returned in the "error" field of failed responses.
const (
	codeInvalidInput  = "INVALID_INPUT"
	codeInvalidWallet = "INVALID_WALLET"
	codeInvalidState  = "INVALID_STATE"
	codeInvalidStatus = "INVALID_STATUS"
	codePNLFetchError = "PNL_FETCH_ERROR"
	codeServerError   = "SERVER_ERROR"
)

const msgServerError = "An unexpected error occurred. Please try again."

// PNLResolver resolves wallet PNL through the provider fallback chain.
type PNLResolver interface {
	PNL(ctx context.Context, wallet string) (pnl.ScalarResult, error)
	ExtendedPNL(ctx context.Context, wallet string) (pnl.Result, error)
}

type calculateTaxRequest struct {
	WalletAddress string `json:"walletAddress"`
	FilingStatus  string `json:"filingStatus"`
	State         string `json:"state"`
}

type taxResponse struct {
	TotalPnl     float64 `json:"totalPnl"`
	PnlSol       float64 `json:"pnlSol"`
	TotalBuySol  float64 `json:"totalBuySol"`
	TotalSellSol float64 `json:"totalSellSol"`
	TradeCount   int     `json:"tradeCount"`
	FederalTax   float64 `json:"federalTax"`
	StateTax     float64 `json:"stateTax"`
	TotalTax     float64 `json:"totalTax"`
	FederalRate  float64 `json:"federalRate"`
	StateRate    float64 `json:"stateRate"`
	IsLoss       bool    `json:"isLoss"`
	DataSource   string  `json:"dataSource"`
}

// handleCalculateTax returns a handler that estimates tax for a wallet.
// POST /api/calculate-tax
func handleCalculateTax(resolver PNLResolver, rates *tax.Table, publisher nats.Publisher, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req calculateTaxRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("failed to decode tax request", "error", err)
			writeError(w, codeInvalidInput, "Request body must be a JSON object", http.StatusBadRequest)
			return
		}

		wallet := strings.TrimSpace(req.WalletAddress)
		if wallet == "" {
			writeError(w, codeInvalidInput, "Wallet address is required", http.StatusBadRequest)
			return
		}
		if !solana.IsValidAddress(wallet) {
			logger.Debug("invalid wallet address", "address", wallet)
			writeError(w, codeInvalidWallet, "Invalid Solana wallet address format", http.StatusBadRequest)
			return
		}
		if _, ok := rates.Lookup(req.State); !ok {
			writeError(w, codeInvalidState, "Please select a valid US state", http.StatusBadRequest)
			return
		}
		status := tax.FilingStatus(req.FilingStatus)
		if !status.Valid() {
			writeError(w, codeInvalidStatus, "Please select a valid filing status", http.StatusBadRequest)
			return
		}

		logger.Info("tax calculation request",
			"wallet", wallet,
			"filing_status", status,
			"state", req.State,
		)

		res, err := resolver.ExtendedPNL(r.Context(), wallet)
		if err != nil {
			logger.Error("failed to resolve wallet pnl", "wallet", wallet, "error", err)
			writeError(w, codePNLFetchError,
				"Unable to fetch wallet PNL. Please verify the wallet address and try again.",
				http.StatusBadGateway)
			return
		}

		b, err := rates.Calculate(res.PnlUSD, req.State)
		if err != nil {
			logger.Error("failed to calculate tax", "wallet", wallet, "state", req.State, "error", err)
			writeError(w, codeServerError, msgServerError, http.StatusInternalServerError)
			return
		}

		if publisher != nil {
			event := nats.NewEstimateEvent(wallet, status, req.State, res, b)
			if err := publisher.PublishEstimate(r.Context(), event); err != nil {
				m.RecordEstimatePublished("error")
				logger.Warn("failed to publish estimate event", "wallet", wallet, "error", err)
			} else {
				m.RecordEstimatePublished("success")
			}
		}

		logger.Info("tax calculation result",
			"wallet", wallet,
			"source", res.Source,
			"total_pnl", b.TotalPnl,
			"total_tax", b.TotalTax,
			"is_loss", b.IsLoss,
		)

		writeJSON(w, taxResponse{
			TotalPnl:     b.TotalPnl,
			PnlSol:       res.PnlSOL,
			TotalBuySol:  res.TotalBuySOL,
			TotalSellSol: res.TotalSellSOL,
			TradeCount:   res.TradeCount,
			FederalTax:   b.FederalTax,
			StateTax:     b.StateTax,
			TotalTax:     b.TotalTax,
			FederalRate:  b.FederalRate,
			StateRate:    b.StateRate,
			IsLoss:       b.IsLoss,
			DataSource:   string(res.Source),
		}, http.StatusOK)
	})
}

// handleWalletPNL returns a handler that resolves the scalar USD PNL.
// GET /api/v1/pnl/{address}
func handleWalletPNL(resolver PNLResolver, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := strings.TrimSpace(r.PathValue("address"))

		res, err := resolver.PNL(r.Context(), address)
		if errors.Is(err, solana.ErrInvalidAddress) {
			logger.Debug("invalid wallet address", "address", address, "error", err)
			writeError(w, codeInvalidWallet, "Invalid Solana wallet address format", http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.Error("failed to resolve wallet pnl", "wallet", address, "error", err)
			writeError(w, codePNLFetchError, "Unable to fetch wallet PNL.", http.StatusBadGateway)
			return
		}

		writeJSON(w, map[string]interface{}{
			"walletAddress": address,
			"pnlUsd":        res.PnlUSD,
			"source":        res.Source,
		}, http.StatusOK)
	})
}

type stateResponse struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

// handleListStates returns a handler that lists supported states and filing statuses.
// GET /api/v1/states
func handleListStates(rates *tax.Table) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		states := rates.States()
		resp := make([]stateResponse, len(states))
		for i, s := range states {
			resp[i] = stateResponse{Code: s.Code, Name: s.Name, Rate: s.Rate.InexactFloat64()}
		}

		writeJSON(w, map[string]interface{}{
			"federalRate":    rates.FederalRate.InexactFloat64(),
			"states":         resp,
			"filingStatuses": tax.FilingStatuses(),
		}, http.StatusOK)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, map[string]string{
		"error":   code,
		"message": message,
	}, statusCode)
}

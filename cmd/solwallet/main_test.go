package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/solwallet-tax/service/pnl"
	"github.com/brojonat/solwallet-tax/service/server"
)

const (
	demoWallet = "11111111111111111111111111111111"
	testWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"solwallet"}, args...))
	return out.String(), err
}

func demoServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	chain := pnl.NewChain(nil, nil, nil, pnl.DefaultOptions(), nil, logger)
	srv := httptest.NewServer(server.New(":0", chain, nil, nil, nil, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", testWallet, demoWallet)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+testWallet)

	out, err = run(t, "validate", testWallet, "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out, "✗ 0xabc")
}

func TestValidateCommand_Strict(t *testing.T) {
	// 44 ones has valid syntax but decodes to 44 bytes.
	long := strings.Repeat("1", 44)

	_, err := run(t, "validate", long)
	require.NoError(t, err)

	out, err := run(t, "--json", "validate", "--strict", long, demoWallet)
	require.Error(t, err)

	var results []struct {
		Address string `json:"address"`
		Valid   bool   `json:"valid"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.False(t, results[0].Valid)
	assert.True(t, results[1].Valid)
}

func TestDemoCommand(t *testing.T) {
	out, err := run(t, "--json", "demo", demoWallet)
	require.NoError(t, err)

	var res pnl.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, pnl.SourceDemo, res.Source)
	assert.Equal(t, 29, res.TradeCount)
	assert.InDelta(t, -9709.727768651082, res.PnlUSD, 1e-9)

	out, err = run(t, "--jq", ".tradeCount", "demo", demoWallet)
	require.NoError(t, err)
	assert.Equal(t, "29\n", out)

	out, err = run(t, "--jq", ".source", "demo", demoWallet)
	require.NoError(t, err)
	assert.Equal(t, "demo\n", out)

	_, err = run(t, "demo", "bad")
	assert.Error(t, err)
}

func TestDemoCommand_BadFilter(t *testing.T) {
	_, err := run(t, "--jq", ".[", "demo", demoWallet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jq filter")
}

func TestPNLCommand_ExtendedWithoutCredential(t *testing.T) {
	t.Setenv("HELIUS_API_KEY", "")

	out, err := run(t, "--jq", ".source", "pnl", "--extended", demoWallet)
	require.NoError(t, err)
	assert.Equal(t, "demo\n", out)

	out, err = run(t, "--jq", ".tax.isLoss", "pnl", "--state", "CA", demoWallet)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestTaxCommand(t *testing.T) {
	srv := demoServer(t)

	out, err := run(t, "--server", srv.URL, "--json", "tax", "--state", "tx", testWallet)
	require.NoError(t, err)

	var est map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, "demo", est["dataSource"])
	assert.Equal(t, 0.0, est["stateRate"])

	out, err = run(t, "--server", srv.URL, "tax", "--state", "ca", "--filing-status", "hoh", testWallet)
	require.NoError(t, err)
	assert.Contains(t, out, "Filing:      Head of Household")
	assert.Contains(t, out, "Source:      demo")

	_, err = run(t, "--server", srv.URL, "tax", "--state", "ZZ", testWallet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_STATE")
}

func TestStatesCommand(t *testing.T) {
	srv := demoServer(t)

	out, err := run(t, "--server", srv.URL, "--jq", ".states | length", "states")
	require.NoError(t, err)
	assert.Equal(t, "51\n", out)

	out, err = run(t, "--server", srv.URL, "states")
	require.NoError(t, err)
	assert.Contains(t, out, "District of Columbia")
	assert.Contains(t, out, "Head of Household")
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "server", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is healthy")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	_, err = run(t, "--server", failing.URL, "server", "health")
	assert.Error(t, err)
}

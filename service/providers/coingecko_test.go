package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestOracle(url string, maxAge time.Duration) *CoinGeckoOracle {
	return NewCoinGeckoOracle(PriceConfig{
		URL:           url,
		Timeout:       time.Second,
		MaxAge:        maxAge,
		FallbackPrice: 200,
	}, nil, nil, discardLogger())
}

func TestSOLPrice_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"solana":{"usd":142.37}}`))
	}))
	defer server.Close()

	oracle := newTestOracle(server.URL, 0)
	assert.Equal(t, 142.37, oracle.SOLPrice(context.Background()))
}

func TestSOLPrice_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{name: "server error", status: http.StatusInternalServerError, payload: `{}`},
		{name: "rate limited", status: http.StatusTooManyRequests, payload: `{}`},
		{name: "missing solana", status: http.StatusOK, payload: `{"bitcoin":{"usd":1}}`},
		{name: "missing usd", status: http.StatusOK, payload: `{"solana":{"eur":130}}`},
		{name: "zero price", status: http.StatusOK, payload: `{"solana":{"usd":0}}`},
		{name: "not json", status: http.StatusOK, payload: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			}))
			defer server.Close()

			oracle := newTestOracle(server.URL, time.Minute)
			assert.Equal(t, 200.0, oracle.SOLPrice(context.Background()))
		})
	}
}

func TestSOLPrice_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	oracle := newTestOracle(url, 0)
	assert.Equal(t, 200.0, oracle.SOLPrice(context.Background()))
}

func TestSOLPrice_DefaultFallback(t *testing.T) {
	oracle := NewCoinGeckoOracle(PriceConfig{URL: "http://127.0.0.1:1"}, nil, nil, discardLogger())
	assert.Equal(t, DefaultFallbackSOLPrice, oracle.SOLPrice(context.Background()))
}

func TestSOLPrice_ReusesFreshPrice(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"solana":{"usd":150}}`))
	}))
	defer server.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	oracle := newTestOracle(server.URL, 60*time.Second)
	oracle.now = func() time.Time { return now }

	ctx := context.Background()
	assert.Equal(t, 150.0, oracle.SOLPrice(ctx))

	now = now.Add(59 * time.Second)
	assert.Equal(t, 150.0, oracle.SOLPrice(ctx))
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(time.Second)
	assert.Equal(t, 150.0, oracle.SOLPrice(ctx))
	assert.Equal(t, int32(2), calls.Load(), "price older than max age is refetched")
}

func TestSOLPrice_NoReuseWhenMaxAgeZero(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"solana":{"usd":150}}`))
	}))
	defer server.Close()

	oracle := newTestOracle(server.URL, 0)
	oracle.SOLPrice(context.Background())
	oracle.SOLPrice(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestSOLPrice_FallbackIsNotReused(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"solana":{"usd":175}}`))
	}))
	defer server.Close()

	oracle := newTestOracle(server.URL, time.Minute)
	assert.Equal(t, 200.0, oracle.SOLPrice(context.Background()))
	assert.Equal(t, 175.0, oracle.SOLPrice(context.Background()))
}

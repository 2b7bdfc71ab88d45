package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brojonat/solwallet-tax/service/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeBatch(start, n int) []solana.Transaction {
	txns := make([]solana.Transaction, n)
	for i := range txns {
		txns[i] = solana.Transaction{
			Signature: fmt.Sprintf("sig-%d", start+i),
			Timestamp: int64(1_700_000_000 - start - i),
			Type:      solana.TransactionTypeSwap,
			FeePayer:  "11111111111111111111111111111111",
		}
	}
	return txns
}

// pagedServer serves the given batch sizes in order, recording cursors.
type pagedServer struct {
	sizes   []int
	calls   atomic.Int32
	cursors []string
	status  map[int]int // call index -> status override
}

func (p *pagedServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call := int(p.calls.Add(1)) - 1
		p.cursors = append(p.cursors, r.URL.Query().Get("before"))

		if code, ok := p.status[call]; ok {
			w.WriteHeader(code)
			return
		}

		size := 0
		if call < len(p.sizes) {
			size = p.sizes[call]
		}
		start := 0
		for _, s := range p.sizes[:min(call, len(p.sizes))] {
			start += s
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(makeBatch(start, size)))
	}
}

func newTestHelius(baseURL, key string) *HeliusClient {
	return NewHeliusClient(HeliusConfig{
		BaseURL: baseURL,
		APIKey:  key,
		Timeout: 2 * time.Second,
	}, nil, nil, discardLogger())
}

func TestFetchTransactions_PaginatesUntilShortBatch(t *testing.T) {
	ps := &pagedServer{sizes: []int{100, 100, 47}}
	server := httptest.NewServer(ps.handler(t))
	defer server.Close()

	client := newTestHelius(server.URL, "test-key")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 1000)

	require.NoError(t, err)
	assert.Len(t, txns, 247)
	assert.Equal(t, int32(3), ps.calls.Load())
	assert.Equal(t, []string{"", "sig-99", "sig-199"}, ps.cursors)
	assert.Equal(t, "sig-0", txns[0].Signature)
	assert.Equal(t, "sig-246", txns[246].Signature)
}

func TestFetchTransactions_StopsAtLimit(t *testing.T) {
	ps := &pagedServer{sizes: []int{100, 100, 100, 100}}
	server := httptest.NewServer(ps.handler(t))
	defer server.Close()

	client := newTestHelius(server.URL, "test-key")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 150)

	require.NoError(t, err)
	assert.Len(t, txns, 150)
	assert.Equal(t, int32(2), ps.calls.Load())
}

func TestFetchTransactions_EmptyBatch(t *testing.T) {
	ps := &pagedServer{sizes: []int{100, 0}}
	server := httptest.NewServer(ps.handler(t))
	defer server.Close()

	client := newTestHelius(server.URL, "test-key")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 1000)

	require.NoError(t, err)
	assert.Len(t, txns, 100)
	assert.Equal(t, int32(2), ps.calls.Load())
}

func TestFetchTransactions_NonSuccessStatusIsSoft(t *testing.T) {
	ps := &pagedServer{
		sizes:  []int{100, 100, 100},
		status: map[int]int{1: http.StatusTooManyRequests},
	}
	server := httptest.NewServer(ps.handler(t))
	defer server.Close()

	client := newTestHelius(server.URL, "test-key")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 1000)

	require.NoError(t, err)
	assert.Len(t, txns, 100, "keeps what was accumulated before the failure")
	assert.Equal(t, int32(2), ps.calls.Load())
}

func TestFetchTransactions_FirstBatchFails(t *testing.T) {
	ps := &pagedServer{status: map[int]int{0: http.StatusUnauthorized}}
	server := httptest.NewServer(ps.handler(t))
	defer server.Close()

	client := newTestHelius(server.URL, "bad-key")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 1000)

	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestFetchTransactions_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"not an array"}`))
	}))
	defer server.Close()

	client := newTestHelius(server.URL, "test-key")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 1000)

	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestFetchTransactions_MissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestHelius(server.URL, "")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 1000)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, txns)
	assert.Zero(t, calls.Load(), "no request is made without a key")
}

func TestFetchTransactions_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/v0/addresses/So11111111111111111111111111111111111111112/transactions", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestHelius(server.URL+"/", "test-key")
	_, err := client.FetchTransactions(context.Background(), "So11111111111111111111111111111111111111112", 1000)
	require.NoError(t, err)
}

func TestFetchTransactions_DecodesTransfers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"signature": "abc",
			"timestamp": 1700000000,
			"type": "SWAP",
			"source": "JUPITER",
			"fee": 5000,
			"feePayer": "wallet",
			"tokenTransfers": [{"mint": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "tokenAmount": 150.25, "fromUserAccount": "pool", "toUserAccount": "wallet"}],
			"nativeTransfers": [{"amount": 2000000000, "fromUserAccount": "wallet", "toUserAccount": "pool"}]
		}]`))
	}))
	defer server.Close()

	client := newTestHelius(server.URL, "test-key")
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)

	tx := txns[0]
	assert.Equal(t, "abc", tx.Signature)
	assert.True(t, tx.IsSwap())
	assert.Equal(t, uint64(5000), tx.Fee)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), tx.BlockTime())
	require.Len(t, tx.TokenTransfers, 1)
	assert.Equal(t, 150.25, tx.TokenTransfers[0].TokenAmount)
	require.Len(t, tx.NativeTransfers, 1)
	assert.Equal(t, uint64(2_000_000_000), tx.NativeTransfers[0].Amount)
}

func TestFetchTransactions_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestHelius(server.URL, "test-key")
	txns, err := client.FetchTransactions(ctx, "11111111111111111111111111111111", 1000)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, txns)
}

func TestFetchTransactions_PerCallTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewHeliusClient(HeliusConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 50 * time.Millisecond,
	}, nil, nil, discardLogger())

	start := time.Now()
	txns, err := client.FetchTransactions(context.Background(), "11111111111111111111111111111111", 1000)

	require.NoError(t, err, "a timed-out batch is a soft failure")
	assert.Empty(t, txns)
	assert.Less(t, time.Since(start), time.Second)
}

package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/solwallet-tax/service/pnl"
	"github.com/brojonat/solwallet-tax/service/tax"
)

const testWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

func testEvent(t *testing.T) *EstimateEvent {
	t.Helper()
	res := pnl.Demo(testWallet, pnl.DefaultDemoSOLPrice)
	b, err := tax.Calculate(res.PnlUSD, "CA")
	require.NoError(t, err)
	return NewEstimateEvent(testWallet, tax.Single, "CA", res, b)
}

func TestNewEstimateEvent(t *testing.T) {
	event := testEvent(t)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, testWallet, event.WalletAddress)
	assert.Equal(t, "single", event.FilingStatus)
	assert.Equal(t, "Single", event.FilingLabel)
	assert.Equal(t, "demo", event.DataSource)
	assert.Equal(t, 109, event.TradeCount)
	assert.False(t, event.IsLoss)
	assert.InDelta(t, event.FederalTax+event.StateTax, event.TotalTax, 0.011)
	assert.False(t, event.PublishedAt.IsZero())

	assert.NotEqual(t, event.ID, testEvent(t).ID)
}

func TestEstimateEvent_JSON(t *testing.T) {
	data, err := json.Marshal(testEvent(t))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"id", "wallet_address", "pnl_usd", "data_source", "total_tax", "published_at"} {
		assert.Contains(t, fields, key)
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "estimates."+testWallet, Subject(testWallet))
}

func TestMockPublisher(t *testing.T) {
	mock := NewMockPublisher()
	ctx := context.Background()

	require.NoError(t, mock.PublishEstimate(ctx, testEvent(t)))
	other := testEvent(t)
	other.WalletAddress = "11111111111111111111111111111111"
	require.NoError(t, mock.PublishEstimate(ctx, other))

	assert.Equal(t, 2, mock.GetPublishedEventCount())
	assert.Len(t, mock.GetPublishedEventsForWallet(testWallet), 1)

	mock.SetPublishError(errors.New("nats down"))
	assert.Error(t, mock.PublishEstimate(ctx, testEvent(t)))
	assert.Equal(t, 2, mock.GetPublishedEventCount())

	require.NoError(t, mock.Close())
	assert.True(t, mock.IsClosed())

	mock.Reset()
	assert.Equal(t, 0, mock.GetPublishedEventCount())
	assert.False(t, mock.IsClosed())
	assert.NoError(t, mock.PublishEstimate(ctx, testEvent(t)))
}

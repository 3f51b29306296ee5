package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"schwab/internal/order"
	"schwab/internal/trading"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRecordAndQuery(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)
	doc := order.Document{
		OrderType:         order.Market,
		OrderStrategyType: order.Single,
		Legs: []order.Leg{{
			Instruction: order.Buy, Quantity: 10,
			Instrument: order.Instrument{Symbol: "AAPL", AssetType: order.AssetEquity},
		}},
	}

	require.NoError(t, st.Record(ctx, trading.Submission{
		AccountID: "12345678", AssetType: order.AssetEquity, Kind: "buy_market_stock",
		Document: doc, Status: 201, OrderID: "1001", SubmittedAt: base,
	}))
	require.NoError(t, st.Record(ctx, trading.Submission{
		AccountID: "12345678", AssetType: order.AssetOption, Kind: "iron_condor",
		Status: 400, Error: "place order: status 400: Insufficient buying power", SubmittedAt: base.Add(time.Minute),
	}))

	rows, err := st.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, OutcomeRejected, rows[0].Outcome)
	assert.Equal(t, "iron_condor", rows[0].Kind)
	assert.Equal(t, OutcomeAccepted, rows[1].Outcome)

	row, err := st.ByOrderID(ctx, "1001")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 201, row.Status)
	assert.Equal(t, "AAPL", gjson.GetBytes(row.Document, "orderLegCollection.0.instrument.symbol").String())
	assert.True(t, row.SubmittedAt.Equal(base))

	row, err = st.ByOrderID(ctx, "9999")
	assert.NoError(t, err)
	assert.Nil(t, row)
}

func TestRecentLimit(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, st.Record(ctx, trading.Submission{AccountID: "1", Status: 201, SubmittedAt: time.Unix(int64(i), 0)}))
	}
	rows, err := st.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

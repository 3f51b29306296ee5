package strategy

import (
	"errors"
	"testing"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type legView struct {
	instr  order.Instruction
	symbol string
	qty    int
}

func views(doc order.Document) []legView {
	out := make([]legView, 0, len(doc.Legs))
	for _, l := range doc.Legs {
		out = append(out, legView{l.Instruction, l.Instrument.Symbol, l.Quantity})
	}
	return out
}

func TestExistingListsAllStrategies(t *testing.T) {
	names := Existing()
	assert.Len(t, names, 20)
	assert.True(t, sortedStrings(names))
	for _, want := range []string{"bear_call", "iron_condor", "calendar_spread", "straddle_strangle_swap", "protective_collar"} {
		assert.Contains(t, names, want)
	}
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

func TestBuildIronButterfly(t *testing.T) {
	doc, err := Build("iron_butterfly", "OPTION", Params{
		"symbol": "AAPL", "lower_put_strike": 145, "middle_strike": 150, "upper_call_strike": 155, "quantity": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []legView{
		{order.BuyToOpen, "AAPL 145 P", 1},
		{order.SellToOpen, "AAPL 150 C", 2},
		{order.BuyToOpen, "AAPL 155 C", 1},
	}, views(doc))
	assert.Equal(t, order.Single, doc.OrderStrategyType)
	assert.Equal(t, order.Limit, doc.OrderType)
	assert.Equal(t, order.Day, doc.Duration)
	assert.Equal(t, order.SessionNormal, doc.Session)
	for _, l := range doc.Legs {
		assert.Equal(t, order.AssetOption, l.Instrument.AssetType)
	}
}

func TestBuildBearCall(t *testing.T) {
	doc, err := Build("bear_call", "OPTION", Params{
		"symbol": "AAPL", "short_call_strike": 150, "long_call_strike": 155, "quantity": 1, "price": "1.05",
	})
	require.NoError(t, err)
	assert.Equal(t, []legView{
		{order.SellToOpen, "AAPL 150 C", 1},
		{order.BuyToOpen, "AAPL 155 C", 1},
	}, views(doc))
	require.NotNil(t, doc.Price)
	assert.True(t, decimal.RequireFromString("1.05").Equal(*doc.Price))
}

func TestBuildIronCondorLegOrder(t *testing.T) {
	doc, err := Build("iron_condor", "OPTION", Params{
		"symbol": "SPY", "lower_put_strike": 430, "upper_put_strike": 435,
		"lower_call_strike": 460, "upper_call_strike": 465, "quantity": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []legView{
		{order.BuyToOpen, "SPY 430 P", 3},
		{order.SellToOpen, "SPY 435 P", 3},
		{order.SellToOpen, "SPY 460 C", 3},
		{order.BuyToOpen, "SPY 465 C", 3},
	}, views(doc))
}

func TestButterflyMiddleLegDoubles(t *testing.T) {
	for _, name := range []string{"long_call_butterfly", "short_call_butterfly"} {
		doc, err := Build(name, "OPTION", Params{
			"symbol": "MSFT", "lower_strike": 400, "middle_strike": 410, "upper_strike": 420, "quantity": 2,
		})
		require.NoError(t, err, name)
		require.Len(t, doc.Legs, 3)
		assert.Equal(t, 4, doc.Legs[1].Quantity)
		assert.NotEqual(t, doc.Legs[0].Instruction, doc.Legs[1].Instruction)
		assert.Equal(t, doc.Legs[0].Instruction, doc.Legs[2].Instruction)
	}
}

func TestStockLegs(t *testing.T) {
	doc, err := Build("protective_collar", "OPTION", Params{
		"symbol": "aapl", "put_strike": 140, "call_strike": 160, "quantity": 1, "stock_quantity": 100,
	})
	require.NoError(t, err)
	assert.Equal(t, []legView{
		{order.BuyToOpen, "AAPL 140 P", 1},
		{order.SellToOpen, "AAPL 160 C", 1},
		{order.Buy, "AAPL", 100},
	}, views(doc))
	assert.Equal(t, order.AssetEquity, doc.Legs[2].Instrument.AssetType)
	assert.Equal(t, order.AssetOption, doc.Legs[0].Instrument.AssetType)

	_, err = Build("covered_call", "OPTION", Params{"symbol": "AAPL", "call_strike": 160, "quantity": 1})
	assertMissing(t, err, "stock_quantity")
}

func TestCalendarAndDiagonalSymbols(t *testing.T) {
	doc, err := Build("calendar_spread", "OPTION", Params{
		"symbol": "AAPL", "strike": 150, "front_expiration": "2024-06-21",
		"back_expiration": time.Date(2024, 7, 19, 0, 0, 0, 0, time.UTC), "quantity": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []legView{
		{order.SellToOpen, "AAPL 150 240621 C", 1},
		{order.BuyToOpen, "AAPL 150 240719 C", 1},
	}, views(doc))

	doc, err = Build("diagonal_spread", "OPTION", Params{
		"symbol": "AAPL", "front_strike": 150, "back_strike": 152.5,
		"front_expiration": "240621", "back_expiration": "20240719", "quantity": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "AAPL 150 240621 C", doc.Legs[0].Instrument.Symbol)
	assert.Equal(t, "AAPL 152.5 240719 C", doc.Legs[1].Instrument.Symbol)
}

func TestBuildIsIdempotent(t *testing.T) {
	params := Params{"symbol": "AAPL", "strike_price": 150, "quantity": 1, "price": 2.5}
	a, err := Build("long_straddle", "OPTION", params)
	require.NoError(t, err)
	b, err := Build("long_straddle", "OPTION", params)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build("wheel", "OPTION", Params{})
	assert.ErrorIs(t, err, apierr.ErrUnknownStrategy)

	_, err = Build("bear_call", "EQUITY", Params{"symbol": "AAPL"})
	assert.ErrorIs(t, err, apierr.ErrUnsupportedAssetType)
	_, err = Build("bear_call", "INVALID", Params{"symbol": "AAPL"})
	assert.ErrorIs(t, err, apierr.ErrUnsupportedAssetType)

	_, err = Build("bear_call", "OPTION", Params{"symbol": "AAPL", "short_call_strike": 150, "quantity": 1})
	assertMissing(t, err, "long_call_strike")

	_, err = Build("bear_call", "OPTION", Params{"symbol": "AAPL", "short_call_strike": "abc", "long_call_strike": 155, "quantity": 1})
	assertMissing(t, err, "short_call_strike")

	_, err = Build("bear_call", "OPTION", Params{"symbol": "AAPL", "short_call_strike": 150, "long_call_strike": 155, "quantity": 0})
	assert.ErrorIs(t, err, apierr.ErrInvalidParameter)

	_, err = Build("bear_call", "OPTION", Params{
		"symbol": "AAPL", "short_call_strike": 150, "long_call_strike": 155, "quantity": 1, "order_type": "WHENEVER",
	})
	assert.ErrorIs(t, err, apierr.ErrInvalidParameter)
}

func assertMissing(t *testing.T, err error, field string) {
	t.Helper()
	var ve *apierr.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, apierr.MissingParameter, ve.Kind)
	assert.Equal(t, field, ve.Field)
}

func TestEveryStrategyBuildsAndValidates(t *testing.T) {
	cat := Default()
	for _, name := range cat.Existing() {
		def, ok := cat.Definition(name)
		require.True(t, ok)
		params := Params{"price": "1.00"}
		for i, p := range def.Params() {
			switch p {
			case ParamSymbol:
				params[p] = "XYZ"
			case ParamQuantity, ParamStockQuantity:
				params[p] = 1
			case "front_expiration", "back_expiration":
				params[p] = "2025-01-17"
			default:
				params[p] = 100 + i
			}
		}
		doc, err := cat.Build(name, "OPTION", params)
		require.NoError(t, err, name)
		assert.Len(t, doc.Legs, len(def.Legs), name)
		assert.NoError(t, order.Validate(doc), name)
	}
}

func TestDefinitionCannotAlterCatalog(t *testing.T) {
	def, ok := Default().Definition("bear_call")
	require.True(t, ok)
	def.Legs[0] = def.Legs[1]

	doc, err := Build("bear_call", "OPTION", Params{
		"symbol": "AAPL", "short_call_strike": 150, "long_call_strike": 155, "quantity": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, order.SellToOpen, doc.Legs[0].Instruction)
	assert.Equal(t, "AAPL 150 C", doc.Legs[0].Instrument.Symbol)
}

func TestNewCatalogLaterDefinitionWins(t *testing.T) {
	c := NewCatalog(
		Definition{ID: "pair", Legs: []legTemplate{bto(call, "a")}},
		Definition{ID: "pair", Legs: []legTemplate{sto(put, "b")}},
	)
	assert.Equal(t, []string{"pair"}, c.Existing())
	def, ok := c.Definition("PAIR")
	require.True(t, ok)
	assert.Equal(t, []string{ParamSymbol, ParamQuantity, "b"}, def.Params())
}

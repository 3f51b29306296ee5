// Package fees estimates broker commissions from the published schedule.
package fees

import (
	"strings"

	"schwab/internal/apierr"
	"schwab/internal/order"

	"github.com/shopspring/decimal"
)

type Class string

const (
	Options        Class = "options"
	OTC            Class = "otc"
	Stocks         Class = "stocks"
	ETF            Class = "etf"
	Forex          Class = "forex"
	Futures        Class = "futures"
	FuturesOptions Class = "futures_options"
)

var hundred = decimal.NewFromInt(100)

// Schedule holds per-class rates. Forex is charged as the bid/ask spread in
// percent of ask plus ForexPerTrade.
type Schedule struct {
	OptionPerContract  decimal.Decimal
	OTCPerTrade        decimal.Decimal
	FuturesPerContract decimal.Decimal
	ForexPerTrade      decimal.Decimal
}

func DefaultSchedule() Schedule {
	return Schedule{
		OptionPerContract:  decimal.RequireFromString("0.65"),
		OTCPerTrade:        decimal.RequireFromString("6.95"),
		FuturesPerContract: decimal.RequireFromString("2.25"),
	}
}

// Trade is the input of Calculate. Bid and Ask are read for forex only.
type Trade struct {
	Quantity int
	Bid      decimal.Decimal
	Ask      decimal.Decimal
}

// ParseClass accepts the class names case-insensitively; "futures options"
// and "futures-options" map to FuturesOptions.
func ParseClass(raw string) (Class, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	switch c := Class(s); c {
	case Options, OTC, Stocks, ETF, Forex, Futures, FuturesOptions:
		return c, true
	}
	return "", false
}

func (s Schedule) Calculate(class string, t Trade) (decimal.Decimal, error) {
	c, ok := ParseClass(class)
	if !ok {
		return decimal.Zero, &apierr.ValidationError{Kind: apierr.UnsupportedAssetType, Field: "class", Value: class}
	}
	if t.Quantity < 0 {
		return decimal.Zero, apierr.Invalid("quantity", decimal.NewFromInt(int64(t.Quantity)).String(), "must not be negative")
	}
	qty := decimal.NewFromInt(int64(t.Quantity))
	switch c {
	case Options:
		return s.OptionPerContract.Mul(qty), nil
	case OTC:
		return s.OTCPerTrade, nil
	case Futures, FuturesOptions:
		return s.FuturesPerContract.Mul(qty), nil
	case Forex:
		if !t.Ask.IsPositive() {
			return decimal.Zero, apierr.Invalid("ask", t.Ask.String(), "must be positive")
		}
		spread := t.Ask.Sub(t.Bid).Div(t.Ask).Mul(hundred)
		return s.ForexPerTrade.Add(spread), nil
	default:
		return decimal.Zero, nil
	}
}

// ForDocument sums the commission of every leg in doc and its children.
// Forex legs carry no bid/ask here and are skipped.
func (s Schedule) ForDocument(doc order.Document) decimal.Decimal {
	total := decimal.Zero
	for _, leg := range doc.Legs {
		qty := decimal.NewFromInt(int64(leg.Quantity))
		switch leg.Instrument.AssetType {
		case order.AssetOption:
			total = total.Add(s.OptionPerContract.Mul(qty))
		case order.AssetFuture:
			total = total.Add(s.FuturesPerContract.Mul(qty))
		}
	}
	for _, child := range doc.Children {
		total = total.Add(s.ForDocument(child))
	}
	return total
}

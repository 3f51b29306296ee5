// Package order models the broker's order document: enumerations, legs and
// the JSON wire shape, plus schema validation before submission.
package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetEquity         AssetType = "EQUITY"
	AssetOption         AssetType = "OPTION"
	AssetFuture         AssetType = "FUTURE"
	AssetForex          AssetType = "FOREX"
	AssetIndex          AssetType = "INDEX"
	AssetMutualFund     AssetType = "MUTUAL_FUND"
	AssetCashEquivalent AssetType = "CASH_EQUIVALENT"
	AssetFixedIncome    AssetType = "FIXED_INCOME"
)

var supportedAssetTypes = []AssetType{
	AssetEquity, AssetOption, AssetFuture, AssetForex,
	AssetIndex, AssetMutualFund, AssetCashEquivalent, AssetFixedIncome,
}

// SupportedAssetTypes lists the asset types accepted for order placement.
func SupportedAssetTypes() []AssetType {
	return append([]AssetType(nil), supportedAssetTypes...)
}

// ParseAssetType normalizes s and reports whether it names a supported type.
func ParseAssetType(s string) (AssetType, bool) {
	at := AssetType(strings.ToUpper(strings.TrimSpace(s)))
	for _, v := range supportedAssetTypes {
		if v == at {
			return at, true
		}
	}
	return at, false
}

type Instruction string

const (
	Buy         Instruction = "BUY"
	Sell        Instruction = "SELL"
	BuyToOpen   Instruction = "BUY_TO_OPEN"
	SellToOpen  Instruction = "SELL_TO_OPEN"
	BuyToClose  Instruction = "BUY_TO_CLOSE"
	SellToClose Instruction = "SELL_TO_CLOSE"
	SellShort   Instruction = "SELL_SHORT"
	BuyToCover  Instruction = "BUY_TO_COVER"
)

type OrderType string

const (
	Market       OrderType = "MARKET"
	Limit        OrderType = "LIMIT"
	Stop         OrderType = "STOP"
	StopLimit    OrderType = "STOP_LIMIT"
	TrailingStop OrderType = "TRAILING_STOP"
	NetDebit     OrderType = "NET_DEBIT"
	NetCredit    OrderType = "NET_CREDIT"
	NetZero      OrderType = "NET_ZERO"
	OCOType      OrderType = "OCO"
	TriggerType  OrderType = "TRIGGER"
)

type Session string

const (
	SessionNormal   Session = "NORMAL"
	SessionAM       Session = "AM"
	SessionPM       Session = "PM"
	SessionSeamless Session = "SEAMLESS"
)

type Duration string

const (
	Day               Duration = "DAY"
	GoodTillCancel    Duration = "GOOD_TILL_CANCEL"
	FillOrKill        Duration = "FILL_OR_KILL"
	ImmediateOrCancel Duration = "IMMEDIATE_OR_CANCEL"
)

type StrategyType string

const (
	Single  StrategyType = "SINGLE"
	OCO     StrategyType = "OCO"
	Trigger StrategyType = "TRIGGER"
)

// Right is the option side encoded in the symbol suffix.
type Right string

const (
	Call Right = "C"
	Put  Right = "P"
)

type Instrument struct {
	Symbol    string    `json:"symbol"`
	AssetType AssetType `json:"assetType"`
}

type Leg struct {
	Instruction Instruction `json:"instruction"`
	Quantity    int         `json:"quantity"`
	Instrument  Instrument  `json:"instrument"`
}

// Document is the JSON body posted to the orders endpoint. Prices encode as
// JSON strings.
type Document struct {
	OrderType          OrderType        `json:"orderType,omitempty"`
	Session            Session          `json:"session,omitempty"`
	Duration           Duration         `json:"duration,omitempty"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	StopPrice          *decimal.Decimal `json:"stopPrice,omitempty"`
	StopPriceLinkBasis string           `json:"stopPriceLinkBasis,omitempty"`
	StopPriceLinkType  string           `json:"stopPriceLinkType,omitempty"`
	StopPriceOffset    *decimal.Decimal `json:"stopPriceOffset,omitempty"`
	OrderStrategyType  StrategyType     `json:"orderStrategyType"`
	SpecialInstruction string           `json:"specialInstruction,omitempty"`
	Legs               []Leg            `json:"orderLegCollection,omitempty"`
	Children           []Document       `json:"childOrderStrategies,omitempty"`
}

// Dec returns a pointer to d for the optional price fields.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}

package strategy

import (
	"strings"

	"schwab/internal/apierr"
	"schwab/internal/logger"
	"schwab/internal/order"
)

// Build turns name and params into an order document. It performs no I/O
// and returns the same document for the same inputs.
func (c *Catalog) Build(name string, assetType string, params Params) (order.Document, error) {
	def, ok := c.Definition(name)
	if !ok {
		return order.Document{}, &apierr.ValidationError{Kind: apierr.UnknownStrategy, Value: name}
	}
	at, ok := order.ParseAssetType(assetType)
	if !ok || at == order.AssetEquity || at == order.AssetForex {
		return order.Document{}, &apierr.ValidationError{
			Kind:  apierr.UnsupportedAssetType,
			Value: assetType,
			Msg:   "strategies are built for option-like asset types",
		}
	}
	symbol, err := params.RequireString(ParamSymbol)
	if err != nil {
		return order.Document{}, err
	}
	symbol = strings.ToUpper(symbol)
	qty, err := params.PositiveInt(ParamQuantity)
	if err != nil {
		return order.Document{}, err
	}

	legs := make([]order.Leg, 0, len(def.Legs))
	for _, tpl := range def.Legs {
		leg, err := buildLeg(tpl, symbol, qty, at, params)
		if err != nil {
			return order.Document{}, err
		}
		legs = append(legs, leg)
	}

	doc, err := Header(params)
	if err != nil {
		return order.Document{}, err
	}
	doc.OrderStrategyType = order.Single
	doc.Legs = legs
	logger.Debugf("strategy %s built with %d legs for %s", def.ID, len(legs), symbol)
	return doc, nil
}

func buildLeg(tpl legTemplate, symbol string, qty int, at order.AssetType, params Params) (order.Leg, error) {
	if tpl.stock() {
		stockQty, err := params.PositiveInt(ParamStockQuantity)
		if err != nil {
			return order.Leg{}, err
		}
		return order.Leg{
			Instruction: tpl.instruction,
			Quantity:    stockQty,
			Instrument:  order.Instrument{Symbol: symbol, AssetType: order.AssetEquity},
		}, nil
	}
	strike, err := params.Decimal(tpl.strike)
	if err != nil {
		return order.Leg{}, err
	}
	sym := order.OptionSymbol(symbol, strike, tpl.right)
	if tpl.expiration != "" {
		exp, err := params.Expiration(tpl.expiration)
		if err != nil {
			return order.Leg{}, err
		}
		sym = order.DatedOptionSymbol(symbol, strike, exp, tpl.right)
	}
	return order.Leg{
		Instruction: tpl.instruction,
		Quantity:    qty * tpl.ratio,
		Instrument:  order.Instrument{Symbol: sym, AssetType: at},
	}, nil
}

var (
	orderTypes = []order.OrderType{
		order.Market, order.Limit, order.Stop, order.StopLimit, order.TrailingStop,
		order.NetDebit, order.NetCredit, order.NetZero,
	}
	durations = []order.Duration{order.Day, order.GoodTillCancel, order.FillOrKill, order.ImmediateOrCancel}
	sessions  = []order.Session{order.SessionNormal, order.SessionAM, order.SessionPM, order.SessionSeamless}
)

// Header reads the order-level parameters shared by every order kind:
// order_type (default LIMIT), duration (DAY), session (NORMAL) and price.
func Header(params Params) (order.Document, error) {
	var doc order.Document
	var err error
	if doc.OrderType, err = pick(params, ParamOrderType, order.Limit, orderTypes); err != nil {
		return doc, err
	}
	if doc.Duration, err = pick(params, ParamDuration, order.Day, durations); err != nil {
		return doc, err
	}
	if doc.Session, err = pick(params, ParamSession, order.SessionNormal, sessions); err != nil {
		return doc, err
	}
	if doc.Price, err = params.OptionalDecimal(ParamPrice); err != nil {
		return doc, err
	}
	return doc, nil
}

func pick[T ~string](params Params, key string, def T, allowed []T) (T, error) {
	raw := strings.ToUpper(params.String(key))
	if raw == "" {
		return def, nil
	}
	for _, v := range allowed {
		if string(v) == raw {
			return v, nil
		}
	}
	return def, apierr.Invalid(key, raw, "unsupported value")
}

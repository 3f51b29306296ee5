package trading

import (
	"strings"

	"schwab/internal/apierr"
	"schwab/internal/order"
	"schwab/internal/strategy"
)

// Order kinds that are built here rather than by the strategy catalog.
const (
	KindBuyMarketStock   = "buy_market_stock"
	KindBuyLimitStock    = "buy_limit_stock"
	KindStopLoss         = "stop_loss"
	KindStopLimit        = "stop_limit"
	KindTrailingStop     = "trailing_stop"
	KindConditional      = "conditional_order"
	KindOneCancelsOther  = "one_cancels_other"
	KindOneTriggersOther = "one_triggers_other"
	KindForexOrder       = "forex_order"
)

var instructions = []order.Instruction{
	order.Buy, order.Sell, order.BuyToOpen, order.SellToOpen,
	order.BuyToClose, order.SellToClose, order.SellShort, order.BuyToCover,
}

var specialInstructions = []string{"ALL_OR_NONE", "DO_NOT_REDUCE", "ALL_OR_NONE_DO_NOT_REDUCE"}

type singleSpec struct {
	orderType   order.OrderType
	duration    order.Duration
	action      order.Instruction
	assetType   order.AssetType
	needPrice   bool
	needStop    bool
	trailOffset bool
}

func equityOrder(kind string, p strategy.Params) (order.Document, error) {
	switch {
	case kind == KindBuyMarketStock:
		orderType := order.OrderType(strings.ToUpper(p.String(strategy.ParamOrderType)))
		if orderType == "" {
			orderType = order.Market
		}
		return single(p, singleSpec{orderType: orderType, action: order.Buy, assetType: order.AssetEquity, needPrice: orderType != order.Market})
	case kind == KindBuyLimitStock:
		return single(p, singleSpec{orderType: order.Limit, action: order.Buy, assetType: order.AssetEquity, needPrice: true})
	case kind == KindStopLoss:
		return single(p, singleSpec{orderType: order.Stop, action: order.Sell, assetType: order.AssetEquity, needStop: true})
	case kind == KindStopLimit:
		return single(p, singleSpec{orderType: order.StopLimit, action: order.Sell, assetType: order.AssetEquity, needPrice: true, needStop: true})
	case kind == KindTrailingStop:
		return single(p, singleSpec{orderType: order.TrailingStop, action: order.Sell, assetType: order.AssetEquity, trailOffset: true})
	case strings.HasPrefix(kind, KindConditional):
		return conditional(p)
	case kind == KindOneCancelsOther:
		return oneCancelsOther(p)
	case kind == KindOneTriggersOther:
		return oneTriggersOther(p)
	}
	return order.Document{}, &apierr.ValidationError{Kind: apierr.UnknownStrategy, Value: kind, Msg: "not supported for EQUITY"}
}

func forexOrder(kind string, p strategy.Params) (order.Document, error) {
	if kind != KindForexOrder {
		return order.Document{}, &apierr.ValidationError{Kind: apierr.UnknownStrategy, Value: kind, Msg: "not supported for FOREX"}
	}
	orderType := order.OrderType(strings.ToUpper(p.String(strategy.ParamOrderType)))
	if orderType == "" {
		orderType = order.Limit
	}
	return single(p, singleSpec{orderType: orderType, action: order.Buy, assetType: order.AssetForex, needPrice: orderType != order.Market})
}

func single(p strategy.Params, spec singleSpec) (order.Document, error) {
	doc, err := strategy.Header(p)
	if err != nil {
		return order.Document{}, err
	}
	doc.OrderType = spec.orderType
	doc.OrderStrategyType = order.Single
	if spec.duration != "" {
		doc.Duration = spec.duration
	}
	leg, err := singleLeg(p, spec.action, spec.assetType)
	if err != nil {
		return order.Document{}, err
	}
	doc.Legs = []order.Leg{leg}
	if spec.needPrice && doc.Price == nil {
		return order.Document{}, apierr.Missing(strategy.ParamPrice)
	}
	if spec.needStop {
		stop, err := p.Decimal("stop_price")
		if err != nil {
			return order.Document{}, err
		}
		doc.StopPrice = order.Dec(stop)
	}
	if spec.trailOffset {
		offset, err := p.Decimal("trail_amount")
		if err != nil {
			return order.Document{}, err
		}
		doc.StopPriceOffset = order.Dec(offset)
		doc.StopPriceLinkBasis = "LAST"
		doc.StopPriceLinkType = strings.ToUpper(p.String("trail_type"))
		if doc.StopPriceLinkType == "" {
			doc.StopPriceLinkType = "VALUE"
		}
		doc.Price = nil
	}
	return doc, nil
}

func singleLeg(p strategy.Params, def order.Instruction, at order.AssetType) (order.Leg, error) {
	symbol, err := p.RequireString(strategy.ParamSymbol)
	if err != nil {
		return order.Leg{}, err
	}
	qty, err := p.PositiveInt(strategy.ParamQuantity)
	if err != nil {
		return order.Leg{}, err
	}
	action, err := instruction(p, def)
	if err != nil {
		return order.Leg{}, err
	}
	return order.Leg{
		Instruction: action,
		Quantity:    qty,
		Instrument:  order.Instrument{Symbol: strings.ToUpper(symbol), AssetType: at},
	}, nil
}

func instruction(p strategy.Params, def order.Instruction) (order.Instruction, error) {
	raw := strings.ToUpper(p.String("action"))
	if raw == "" {
		return def, nil
	}
	for _, in := range instructions {
		if string(in) == raw {
			return in, nil
		}
	}
	return def, apierr.Invalid("action", raw, "unknown instruction")
}

// conditional places a good-till-cancel buy carrying a special instruction.
func conditional(p strategy.Params) (order.Document, error) {
	cond := strings.ToUpper(p.String("condition"))
	if cond == "" {
		return order.Document{}, apierr.Missing("condition")
	}
	known := false
	for _, s := range specialInstructions {
		known = known || s == cond
	}
	if !known {
		return order.Document{}, apierr.Invalid("condition", cond, "unknown special instruction")
	}
	orderType := order.OrderType(strings.ToUpper(p.String(strategy.ParamOrderType)))
	if orderType == "" {
		orderType = order.Limit
	}
	doc, err := single(p, singleSpec{
		orderType: orderType,
		duration:  order.GoodTillCancel,
		action:    order.Buy,
		assetType: order.AssetEquity,
		needPrice: orderType != order.Market,
	})
	if err != nil {
		return order.Document{}, err
	}
	doc.SpecialInstruction = cond
	return doc, nil
}

// oneCancelsOther pairs a limit exit at price with a stop exit at stop_price.
func oneCancelsOther(p strategy.Params) (order.Document, error) {
	limit, err := single(p, singleSpec{orderType: order.Limit, action: order.Sell, assetType: order.AssetEquity, needPrice: true})
	if err != nil {
		return order.Document{}, err
	}
	stop, err := single(p, singleSpec{orderType: order.Stop, action: order.Sell, assetType: order.AssetEquity, needStop: true})
	if err != nil {
		return order.Document{}, err
	}
	stop.Price = nil
	return order.Document{OrderStrategyType: order.OCO, Children: []order.Document{limit, stop}}, nil
}

// oneTriggersOther enters with a limit at price and, once filled, works an
// opposite limit at exit_price.
func oneTriggersOther(p strategy.Params) (order.Document, error) {
	parent, err := single(p, singleSpec{orderType: order.Limit, action: order.Buy, assetType: order.AssetEquity, needPrice: true})
	if err != nil {
		return order.Document{}, err
	}
	exit, err := p.Decimal("exit_price")
	if err != nil {
		return order.Document{}, err
	}
	child := parent
	child.Legs = []order.Leg{parent.Legs[0]}
	child.Legs[0].Instruction = opposite(parent.Legs[0].Instruction)
	child.Price = order.Dec(exit)
	parent.OrderStrategyType = order.Trigger
	parent.Children = []order.Document{child}
	return parent, nil
}

func opposite(in order.Instruction) order.Instruction {
	switch in {
	case order.Buy:
		return order.Sell
	case order.Sell:
		return order.Buy
	case order.BuyToOpen:
		return order.SellToClose
	case order.SellToOpen:
		return order.BuyToClose
	case order.SellShort:
		return order.BuyToCover
	default:
		return order.Sell
	}
}

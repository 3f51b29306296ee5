package strategy

import "schwab/internal/order"

func bto(r order.Right, strike string) legTemplate {
	return legTemplate{instruction: order.BuyToOpen, right: r, strike: strike, ratio: 1}
}

func sto(r order.Right, strike string) legTemplate {
	return legTemplate{instruction: order.SellToOpen, right: r, strike: strike, ratio: 1}
}

func times(l legTemplate, n int) legTemplate {
	l.ratio = n
	return l
}

func expiring(l legTemplate, param string) legTemplate {
	l.expiration = param
	return l
}

var buyStock = legTemplate{instruction: order.Buy, ratio: 1}

const (
	call = order.Call
	put  = order.Put
)

// coreStrategies lists the built-in strategies. Leg order is part of each
// definition and is preserved in the built document.
func coreStrategies() []Definition {
	defs := []Definition{
		{ID: BearCall, Legs: []legTemplate{sto(call, "short_call_strike"), bto(call, "long_call_strike")}},
		{ID: BearPut, Legs: []legTemplate{bto(put, "long_put_strike"), sto(put, "short_put_strike")}},
		{ID: BullCall, Legs: []legTemplate{bto(call, "long_call_strike"), sto(call, "short_call_strike")}},
		{ID: BullPut, Legs: []legTemplate{sto(put, "short_put_strike"), bto(put, "long_put_strike")}},

		{ID: CoveredCall, Legs: []legTemplate{sto(call, "call_strike"), buyStock}},
		{ID: MarriedPut, Legs: []legTemplate{bto(put, "put_strike"), buyStock}},
		{ID: ProtectiveCollar, Legs: []legTemplate{bto(put, "put_strike"), sto(call, "call_strike"), buyStock}},

		{ID: LongCallButterfly, Legs: []legTemplate{
			bto(call, "lower_strike"), times(sto(call, "middle_strike"), 2), bto(call, "upper_strike"),
		}},
		{ID: ShortCallButterfly, Legs: []legTemplate{
			sto(call, "lower_strike"), times(bto(call, "middle_strike"), 2), sto(call, "upper_strike"),
		}},
		{ID: IronButterfly, Legs: []legTemplate{
			bto(put, "lower_put_strike"), times(sto(call, "middle_strike"), 2), bto(call, "upper_call_strike"),
		}},

		{ID: LongCallCondor, Legs: []legTemplate{
			bto(call, "lower_strike"), sto(call, "lower_middle_strike"), sto(call, "upper_middle_strike"), bto(call, "upper_strike"),
		}},
		{ID: LongPutCondor, Legs: []legTemplate{
			bto(put, "lower_strike"), sto(put, "lower_middle_strike"), sto(put, "upper_middle_strike"), bto(put, "upper_strike"),
		}},
		{ID: ShortCallCondor, Legs: []legTemplate{
			sto(call, "lower_strike"), bto(call, "lower_middle_strike"), bto(call, "upper_middle_strike"), sto(call, "upper_strike"),
		}},
		{ID: IronCondor, Legs: []legTemplate{
			bto(put, "lower_put_strike"), sto(put, "upper_put_strike"), sto(call, "lower_call_strike"), bto(call, "upper_call_strike"),
		}},
		{ID: ShortIronCondor, Legs: []legTemplate{
			sto(put, "lower_put_strike"), bto(put, "upper_put_strike"), sto(call, "lower_call_strike"), bto(call, "upper_call_strike"),
		}},

		{ID: LongStraddle, Legs: []legTemplate{bto(call, "strike_price"), bto(put, "strike_price")}},
		{ID: LongStrangle, Legs: []legTemplate{bto(call, "call_strike"), bto(put, "put_strike")}},
		{ID: StraddleStrangleSwap, Legs: []legTemplate{
			sto(call, "straddle_strike"), sto(put, "straddle_strike"), bto(call, "strangle_strike_1"), bto(put, "strangle_strike_2"),
		}},

		{ID: CalendarSpread, Legs: []legTemplate{
			expiring(sto(call, "strike"), "front_expiration"), expiring(bto(call, "strike"), "back_expiration"),
		}},
		{ID: DiagonalSpread, Legs: []legTemplate{
			expiring(sto(call, "front_strike"), "front_expiration"), expiring(bto(call, "back_strike"), "back_expiration"),
		}},
	}
	return defs
}

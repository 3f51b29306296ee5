package marketdata

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"schwab/internal/apierr"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const dateLayout = "2006-01-02"

// ChainRequest selects an option chain. Zero values are left out of the query.
type ChainRequest struct {
	Symbol                 string
	ContractType           string
	StrikeCount            int
	IncludeUnderlyingQuote bool
	Strategy               string
	Interval               *decimal.Decimal
	Strike                 *decimal.Decimal
	Range                  string
	From                   time.Time
	To                     time.Time
	Volatility             *decimal.Decimal
	UnderlyingPrice        *decimal.Decimal
	InterestRate           *decimal.Decimal
	DaysToExpiration       int
	ExpMonth               string
	OptionType             string
	Entitlement            string
}

func (r ChainRequest) query() (url.Values, error) {
	symbol := strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return nil, apierr.Missing("symbol")
	}
	contractType, err := oneOf("contractType", r.ContractType, contractTypes)
	if err != nil {
		return nil, err
	}
	strategy, err := oneOf("strategy", r.Strategy, chainStrategy)
	if err != nil {
		return nil, err
	}
	rng, err := oneOf("range", r.Range, chainRanges)
	if err != nil {
		return nil, err
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return nil, apierr.Invalid("toDate", r.To.Format(dateLayout), "before fromDate")
	}
	if r.StrikeCount < 0 {
		return nil, apierr.Invalid("strikeCount", strconv.Itoa(r.StrikeCount), "must not be negative")
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("includeUnderlyingQuote", strconv.FormatBool(r.IncludeUnderlyingQuote))
	setString(q, "contractType", contractType)
	setString(q, "strategy", strategy)
	setString(q, "range", rng)
	setString(q, "expMonth", strings.ToUpper(r.ExpMonth))
	setString(q, "optionType", r.OptionType)
	setString(q, "entitlement", r.Entitlement)
	if r.StrikeCount > 0 {
		q.Set("strikeCount", strconv.Itoa(r.StrikeCount))
	}
	if r.DaysToExpiration > 0 {
		q.Set("daysToExpiration", strconv.Itoa(r.DaysToExpiration))
	}
	setDecimal(q, "interval", r.Interval)
	setDecimal(q, "strike", r.Strike)
	setDecimal(q, "volatility", r.Volatility)
	setDecimal(q, "underlyingPrice", r.UnderlyingPrice)
	setDecimal(q, "interestRate", r.InterestRate)
	if !r.From.IsZero() {
		q.Set("fromDate", r.From.Format(dateLayout))
	}
	if !r.To.IsZero() {
		q.Set("toDate", r.To.Format(dateLayout))
	}
	return q, nil
}

// OptionChain returns the chain document verbatim.
func (c *Client) OptionChain(ctx context.Context, req ChainRequest) (json.RawMessage, error) {
	q, err := req.query()
	if err != nil {
		return nil, err
	}
	return c.get(ctx, q, "chains")
}

type Expiration struct {
	Date             time.Time
	DaysToExpiration int
	ExpirationType   string
	SettlementType   string
	Standard         bool
}

// ExpirationChain lists the expirations available for symbol.
func (c *Client) ExpirationChain(ctx context.Context, symbol string) ([]Expiration, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apierr.Missing("symbol")
	}
	raw, err := c.get(ctx, url.Values{"symbol": {symbol}}, "expirationchain")
	if err != nil {
		return nil, err
	}
	list := gjson.GetBytes(raw, "expirationList").Array()
	out := make([]Expiration, 0, len(list))
	for _, item := range list {
		date, err := time.Parse(dateLayout, item.Get("expirationDate").String())
		if err != nil {
			c.log.Warnf("skip expiration %q for %s: %v", item.Get("expirationDate").String(), symbol, err)
			continue
		}
		out = append(out, Expiration{
			Date:             date,
			DaysToExpiration: int(item.Get("daysToExpiration").Int()),
			ExpirationType:   item.Get("expirationType").String(),
			SettlementType:   item.Get("settlementType").String(),
			Standard:         item.Get("standard").Bool(),
		})
	}
	return out, nil
}

func setString(q url.Values, key, v string) {
	if v = strings.TrimSpace(v); v != "" {
		q.Set(key, v)
	}
}

func setDecimal(q url.Values, key string, d *decimal.Decimal) {
	if d != nil {
		q.Set(key, d.String())
	}
}

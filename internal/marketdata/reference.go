package marketdata

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"schwab/internal/apierr"
)

// Movers lists the top movers of an index. sort and frequency may be empty
// and zero.
func (c *Client) Movers(ctx context.Context, index, sort string, frequency int) (json.RawMessage, error) {
	index, err := oneOf("symbol_id", index, moverIndexes)
	if err != nil {
		return nil, err
	}
	if index == "" {
		return nil, apierr.Missing("symbol_id")
	}
	if sort, err = oneOf("sort", sort, moverSorts); err != nil {
		return nil, err
	}
	if !slices.Contains(moverFrequency, frequency) {
		return nil, apierr.Invalid("frequency", strconv.Itoa(frequency), "expected 0, 1, 5, 10, 30 or 60")
	}
	q := url.Values{}
	setString(q, "sort", sort)
	if frequency > 0 {
		q.Set("frequency", strconv.Itoa(frequency))
	}
	return c.get(ctx, q, "movers", index)
}

// MarketHours returns the session hours of markets on date. An empty list
// asks for every market; a zero date means today.
func (c *Client) MarketHours(ctx context.Context, names []string, date time.Time) (json.RawMessage, error) {
	list := make([]string, 0, len(names))
	for _, m := range names {
		m = strings.ToLower(strings.TrimSpace(m))
		if !slices.Contains(markets, m) {
			return nil, apierr.Invalid("markets", m, "expected one of "+strings.Join(markets, ", "))
		}
		list = append(list, m)
	}
	if len(list) == 0 {
		list = markets
	}
	q := url.Values{"markets": {strings.Join(list, ",")}}
	if !date.IsZero() {
		q.Set("date", date.Format(dateLayout))
	}
	return c.get(ctx, q, "markets")
}

func (c *Client) Market(ctx context.Context, market string, date time.Time) (json.RawMessage, error) {
	market = strings.ToLower(strings.TrimSpace(market))
	if !slices.Contains(markets, market) {
		return nil, apierr.Invalid("market_id", market, "expected one of "+strings.Join(markets, ", "))
	}
	var q url.Values
	if !date.IsZero() {
		q = url.Values{"date": {date.Format(dateLayout)}}
	}
	return c.get(ctx, q, "markets", market)
}

// Instruments searches instruments by symbol. projection defaults to
// symbol-search.
func (c *Client) Instruments(ctx context.Context, symbol, projection string) (json.RawMessage, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, apierr.Missing("symbol")
	}
	projection = strings.ToLower(strings.TrimSpace(projection))
	if projection == "" {
		projection = "symbol-search"
	}
	if !slices.Contains(projections, projection) {
		return nil, apierr.Invalid("projection", projection, "expected one of "+strings.Join(projections, ", "))
	}
	return c.get(ctx, url.Values{"symbol": {symbol}, "projection": {projection}}, "instruments")
}

func (c *Client) Instrument(ctx context.Context, cusip string) (json.RawMessage, error) {
	cusip = strings.TrimSpace(cusip)
	if cusip == "" {
		return nil, apierr.Missing("cusip")
	}
	return c.get(ctx, nil, "instruments", cusip)
}

package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/transport"

	"github.com/shopspring/decimal"
)

// HistoryRequest selects candles. PeriodType must accompany Period and
// FrequencyType; FrequencyType must accompany Frequency.
type HistoryRequest struct {
	Symbol                string
	PeriodType            string
	Period                int
	FrequencyType         string
	Frequency             int
	Start                 time.Time
	End                   time.Time
	NeedExtendedHoursData bool
	NeedPreviousClose     bool
}

type Candle struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

type PriceHistory struct {
	Symbol            string
	Empty             bool
	Candles           []Candle
	PreviousClose     *decimal.Decimal
	PreviousCloseDate time.Time
}

type candleWire struct {
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   int64           `json:"volume"`
	Datetime int64           `json:"datetime"`
}

type historyWire struct {
	Symbol            string           `json:"symbol"`
	Empty             bool             `json:"empty"`
	Candles           []candleWire     `json:"candles"`
	PreviousClose     *decimal.Decimal `json:"previousClose"`
	PreviousCloseDate int64            `json:"previousCloseDate"`
}

func (r HistoryRequest) query() (url.Values, error) {
	symbol := strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return nil, apierr.Missing("symbol")
	}
	periodType := strings.ToLower(strings.TrimSpace(r.PeriodType))
	frequencyType := strings.ToLower(strings.TrimSpace(r.FrequencyType))
	if err := validateHistory(periodType, r.Period, frequencyType, r.Frequency); err != nil {
		return nil, err
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return nil, apierr.Invalid("endDate", r.End.Format(time.RFC3339), "before startDate")
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	setString(q, "periodType", periodType)
	setString(q, "frequencyType", frequencyType)
	if r.Period > 0 {
		q.Set("period", strconv.Itoa(r.Period))
	}
	if r.Frequency > 0 {
		q.Set("frequency", strconv.Itoa(r.Frequency))
	}
	if !r.Start.IsZero() {
		q.Set("startDate", strconv.FormatInt(r.Start.UnixMilli(), 10))
	}
	if !r.End.IsZero() {
		q.Set("endDate", strconv.FormatInt(r.End.UnixMilli(), 10))
	}
	q.Set("needExtendedHoursData", strconv.FormatBool(r.NeedExtendedHoursData))
	q.Set("needPreviousClose", strconv.FormatBool(r.NeedPreviousClose))
	return q, nil
}

// PriceHistory returns candles with decimal prices and UTC timestamps.
func (c *Client) PriceHistory(ctx context.Context, req HistoryRequest) (*PriceHistory, error) {
	q, err := req.query()
	if err != nil {
		return nil, err
	}
	target, err := transport.Endpoint(c.opts.BaseURL, "pricehistory")
	if err != nil {
		return nil, err
	}
	var wire historyWire
	if err := c.api.GetJSON(ctx, target, q, &wire); err != nil {
		return nil, fmt.Errorf("pricehistory: %w", err)
	}
	out := &PriceHistory{
		Symbol:        wire.Symbol,
		Empty:         wire.Empty,
		Candles:       make([]Candle, 0, len(wire.Candles)),
		PreviousClose: wire.PreviousClose,
	}
	if wire.PreviousCloseDate > 0 {
		out.PreviousCloseDate = time.UnixMilli(wire.PreviousCloseDate).UTC()
	}
	for _, cw := range wire.Candles {
		out.Candles = append(out.Candles, Candle{
			Time:   time.UnixMilli(cw.Datetime).UTC(),
			Open:   cw.Open,
			High:   cw.High,
			Low:    cw.Low,
			Close:  cw.Close,
			Volume: cw.Volume,
		})
	}
	return out, nil
}

// Package marketdata wraps the market-data GET family: quotes, option
// chains, price history, movers, market hours and instruments.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"schwab/internal/apierr"
	"schwab/internal/logger"
	"schwab/internal/transport"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxSymbols    = 500
	defaultMaxConcurrent = 4
)

// Getter issues an authenticated GET and decodes the JSON answer.
type Getter interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}

type Options struct {
	BaseURL              string
	MaxSymbolsPerRequest int
	MaxConcurrent        int
}

type Client struct {
	api  Getter
	opts Options
	log  *logger.Component
}

func New(api Getter, opts Options) *Client {
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if opts.MaxSymbolsPerRequest <= 0 {
		opts.MaxSymbolsPerRequest = defaultMaxSymbols
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	return &Client{api: api, opts: opts, log: logger.With("marketdata")}
}

// Quotes fetches quotes for symbols, splitting the list into batches that
// run concurrently. The result is keyed by symbol.
func (c *Client) Quotes(ctx context.Context, symbols []string, fields []string, indicative bool) (map[string]json.RawMessage, error) {
	syms := normalizeSymbols(symbols)
	if len(syms) == 0 {
		return nil, apierr.Missing("symbols")
	}
	fieldList, err := validateFields(fields)
	if err != nil {
		return nil, err
	}
	target, err := transport.Endpoint(c.opts.BaseURL, "quotes")
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(syms))
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(c.opts.MaxConcurrent)
	for start := 0; start < len(syms); start += c.opts.MaxSymbolsPerRequest {
		end := min(start+c.opts.MaxSymbolsPerRequest, len(syms))
		batch := syms[start:end]
		group.Go(func() error {
			q := url.Values{}
			q.Set("symbols", strings.Join(batch, ","))
			if fieldList != "" {
				q.Set("fields", fieldList)
			}
			q.Set("indicative", strconv.FormatBool(indicative))
			var raw json.RawMessage
			if err := c.api.GetJSON(gctx, target, q, &raw); err != nil {
				return fmt.Errorf("quotes: %w", err)
			}
			mu.Lock()
			defer mu.Unlock()
			gjson.ParseBytes(raw).ForEach(func(key, value gjson.Result) bool {
				out[key.String()] = json.RawMessage(value.Raw)
				return true
			})
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	c.log.Debugf("quotes: %d symbols, %d returned", len(syms), len(out))
	return out, nil
}

// Quote fetches a single symbol.
func (c *Client) Quote(ctx context.Context, symbol string, fields []string) (json.RawMessage, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apierr.Missing("symbol")
	}
	fieldList, err := validateFields(fields)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	if fieldList != "" {
		q.Set("fields", fieldList)
	}
	raw, err := c.get(ctx, q, symbol, "quotes")
	if err != nil {
		return nil, err
	}
	if v := gjson.GetBytes(raw, gjson.Escape(symbol)); v.Exists() {
		return json.RawMessage(v.Raw), nil
	}
	return raw, nil
}

func (c *Client) get(ctx context.Context, q url.Values, segments ...string) (json.RawMessage, error) {
	target, err := transport.Endpoint(c.opts.BaseURL, segments...)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.api.GetJSON(ctx, target, q, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", strings.Join(segments, "/"), err)
	}
	return raw, nil
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		for _, part := range strings.Split(s, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" || seen[part] {
				continue
			}
			seen[part] = true
			out = append(out, part)
		}
	}
	return out
}

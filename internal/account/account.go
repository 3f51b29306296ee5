// Package account reads balances, positions, transactions and user
// preferences from the trader API.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/logger"
	"schwab/internal/transport"
)

const isoLayout = "2006-01-02T15:04:05.000Z"

// Getter issues an authenticated GET and decodes the JSON answer.
type Getter interface {
	GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error
}

// Number pairs a plain account number with the hash the API expects in
// account-scoped paths.
type Number struct {
	AccountNumber string `json:"accountNumber"`
	HashValue     string `json:"hashValue"`
}

type Client struct {
	api  Getter
	base string
	log  *logger.Component
}

func New(api Getter, traderURL string) *Client {
	return &Client{api: api, base: strings.TrimRight(strings.TrimSpace(traderURL), "/"), log: logger.With("account")}
}

// Accounts lists every linked account. Pass "positions" in fields to include
// holdings.
func (c *Client) Accounts(ctx context.Context, fields ...string) (json.RawMessage, error) {
	return c.get(ctx, fieldsQuery(fields), "accounts")
}

func (c *Client) AccountNumbers(ctx context.Context) ([]Number, error) {
	target, err := transport.Endpoint(c.base, "accounts", "accountNumbers")
	if err != nil {
		return nil, err
	}
	var out []Number
	if err := c.api.GetJSON(ctx, target, nil, &out); err != nil {
		return nil, fmt.Errorf("account numbers: %w", err)
	}
	return out, nil
}

// Hash resolves the hash for a plain account number.
func (c *Client) Hash(ctx context.Context, accountNumber string) (string, error) {
	nums, err := c.AccountNumbers(ctx)
	if err != nil {
		return "", err
	}
	for _, n := range nums {
		if n.AccountNumber == accountNumber {
			return n.HashValue, nil
		}
	}
	return "", apierr.Invalid("account_number", accountNumber, "not linked to this login")
}

func (c *Client) Account(ctx context.Context, accountID string, fields ...string) (json.RawMessage, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, apierr.Missing("account_id")
	}
	return c.get(ctx, fieldsQuery(fields), "accounts", accountID)
}

var transactionTypes = map[string]bool{
	"TRADE": true, "RECEIVE_AND_DELIVER": true, "DIVIDEND_OR_INTEREST": true,
	"ACH_RECEIPT": true, "ACH_DISBURSEMENT": true, "CASH_RECEIPT": true,
	"CASH_DISBURSEMENT": true, "ELECTRONIC_FUND": true, "WIRE_OUT": true,
	"WIRE_IN": true, "JOURNAL": true, "MEMORANDUM": true, "MARGIN_CALL": true,
	"MONEY_MARKET": true, "SMA_ADJUSTMENT": true,
}

// TransactionFilter narrows Transactions. Types defaults to TRADE.
type TransactionFilter struct {
	Start  time.Time
	End    time.Time
	Types  []string
	Symbol string
}

func (c *Client) Transactions(ctx context.Context, accountID string, f TransactionFilter) (json.RawMessage, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, apierr.Missing("account_id")
	}
	if f.Start.IsZero() || f.End.IsZero() {
		return nil, apierr.Missing("start/end")
	}
	if f.End.Before(f.Start) {
		return nil, apierr.Invalid("end", f.End.Format(time.RFC3339), "before start")
	}
	types := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		t = strings.ToUpper(strings.TrimSpace(t))
		if !transactionTypes[t] {
			return nil, apierr.Invalid("types", t, "unknown transaction type")
		}
		types = append(types, t)
	}
	if len(types) == 0 {
		types = []string{"TRADE"}
	}
	q := url.Values{}
	q.Set("startDate", f.Start.UTC().Format(isoLayout))
	q.Set("endDate", f.End.UTC().Format(isoLayout))
	q.Set("types", strings.Join(types, ","))
	if f.Symbol != "" {
		q.Set("symbol", strings.ToUpper(f.Symbol))
	}
	return c.get(ctx, q, "accounts", accountID, "transactions")
}

func (c *Client) Transaction(ctx context.Context, accountID, transactionID string) (json.RawMessage, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, apierr.Missing("account_id")
	}
	if strings.TrimSpace(transactionID) == "" {
		return nil, apierr.Missing("transaction_id")
	}
	return c.get(ctx, nil, "accounts", accountID, "transactions", transactionID)
}

func (c *Client) UserPreferences(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, nil, "userPreference")
}

func (c *Client) get(ctx context.Context, q url.Values, segments ...string) (json.RawMessage, error) {
	target, err := transport.Endpoint(c.base, segments...)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.api.GetJSON(ctx, target, q, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", segments[len(segments)-1], err)
	}
	c.log.Debugf("GET %s ok (%d bytes)", strings.Join(segments, "/"), len(raw))
	return raw, nil
}

func fieldsQuery(fields []string) url.Values {
	var keep []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			keep = append(keep, f)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	return url.Values{"fields": {strings.Join(keep, ",")}}
}

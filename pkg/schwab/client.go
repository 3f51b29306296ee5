// Package schwab is the public entry point of the brokerage client: OAuth
// token handling, named strategy orders, order dispatch and the account and
// market-data reads.
package schwab

import (
	"context"
	"encoding/json"
	"time"

	"schwab/internal/account"
	"schwab/internal/app"
	"schwab/internal/auth"
	"schwab/internal/config"
	"schwab/internal/journal"
	"schwab/internal/marketdata"
	"schwab/internal/order"
	"schwab/internal/strategy"
	"schwab/internal/trading"

	"github.com/shopspring/decimal"
)

type (
	Config            = config.Config
	Credential        = auth.Credential
	Grant             = auth.Grant
	AccountContext    = trading.AccountContext
	Receipt           = trading.Receipt
	ListFilter        = trading.ListFilter
	Params            = strategy.Params
	Document          = order.Document
	AccountNumber     = account.Number
	TransactionFilter = account.TransactionFilter
	ChainRequest      = marketdata.ChainRequest
	HistoryRequest    = marketdata.HistoryRequest
	PriceHistory      = marketdata.PriceHistory
	Expiration        = marketdata.Expiration
	Submission        = journal.SubmissionModel
)

// LoadConfig reads a YAML config file, following includes and SCHWAB_*
// environment overrides.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// DefaultConfig returns defaults plus environment overrides, unvalidated.
func DefaultConfig() *Config { return config.Default() }

// Client is safe for concurrent use.
type Client struct {
	app *app.App
}

// New wires a client from cfg. No network call is made until the first
// request needs a token.
func New(cfg *Config) (*Client, error) {
	a, err := app.NewApp(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{app: a}, nil
}

func (c *Client) Close() error { return c.app.Close() }

// AuthorizeURL is the page the user opens to approve this application.
func (c *Client) AuthorizeURL() string { return c.app.Auth.AuthorizeURL() }

// LoginWithRedirect exchanges the code carried by the URL the browser was
// redirected to after approval.
func (c *Client) LoginWithRedirect(ctx context.Context, redirectURL string) (Credential, error) {
	g, err := auth.ParseRedirectURL(redirectURL)
	if err != nil {
		return Credential{}, err
	}
	return c.app.Auth.Authenticate(ctx, g)
}

func (c *Client) Authenticate(ctx context.Context, g Grant) (Credential, error) {
	return c.app.Auth.Authenticate(ctx, g)
}

func (c *Client) Refresh(ctx context.Context) (Credential, error) { return c.app.Auth.Refresh(ctx) }

// Credential returns a copy of the current tokens.
func (c *Client) Credential() Credential { return c.app.Auth.Snapshot() }

// Restore installs tokens persisted by the caller.
func (c *Client) Restore(cred Credential) { c.app.Auth.Restore(cred) }

// Strategies lists the registered strategy names in sorted order.
func (c *Client) Strategies() []string { return strategy.Existing() }

// BuildOrder returns the document PlaceOrder would send.
func (c *Client) BuildOrder(assetType, kind string, p Params) (Document, error) {
	return c.app.Trading.Build(assetType, kind, p)
}

// EstimateFees prices doc with the configured commission schedule.
func (c *Client) EstimateFees(doc Document) decimal.Decimal { return c.app.Fees.ForDocument(doc) }

func (c *Client) PlaceOrder(ctx context.Context, acct AccountContext, assetType, kind string, p Params) (*Receipt, error) {
	return c.app.Trading.PlaceOrder(ctx, acct, assetType, kind, p)
}

// SubmitOrder sends a document built by the caller.
func (c *Client) SubmitOrder(ctx context.Context, acct AccountContext, doc Document) (*Receipt, error) {
	return c.app.Trading.Submit(ctx, acct, doc)
}

func (c *Client) GetOrderStatus(ctx context.Context, acct AccountContext, orderID string) (json.RawMessage, error) {
	return c.app.Trading.GetOrderStatus(ctx, acct, orderID)
}

func (c *Client) CancelOrder(ctx context.Context, acct AccountContext, orderID string) error {
	return c.app.Trading.CancelOrder(ctx, acct, orderID)
}

func (c *Client) ListOrders(ctx context.Context, acct AccountContext, f ListFilter) (json.RawMessage, error) {
	return c.app.Trading.ListOrders(ctx, acct, f)
}

// RecentSubmissions reads the local order journal. It returns nil when the
// journal is disabled.
func (c *Client) RecentSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	if c.app.Journal == nil {
		return nil, nil
	}
	return c.app.Journal.Recent(ctx, limit)
}

func (c *Client) Accounts(ctx context.Context, fields ...string) (json.RawMessage, error) {
	return c.app.Accounts.Accounts(ctx, fields...)
}

func (c *Client) AccountNumbers(ctx context.Context) ([]AccountNumber, error) {
	return c.app.Accounts.AccountNumbers(ctx)
}

func (c *Client) Account(ctx context.Context, accountID string, fields ...string) (json.RawMessage, error) {
	return c.app.Accounts.Account(ctx, accountID, fields...)
}

func (c *Client) Transactions(ctx context.Context, accountID string, f TransactionFilter) (json.RawMessage, error) {
	return c.app.Accounts.Transactions(ctx, accountID, f)
}

func (c *Client) Transaction(ctx context.Context, accountID, transactionID string) (json.RawMessage, error) {
	return c.app.Accounts.Transaction(ctx, accountID, transactionID)
}

func (c *Client) UserPreferences(ctx context.Context) (json.RawMessage, error) {
	return c.app.Accounts.UserPreferences(ctx)
}

func (c *Client) Quotes(ctx context.Context, symbols, fields []string, indicative bool) (map[string]json.RawMessage, error) {
	return c.app.Market.Quotes(ctx, symbols, fields, indicative)
}

func (c *Client) Quote(ctx context.Context, symbol string, fields ...string) (json.RawMessage, error) {
	return c.app.Market.Quote(ctx, symbol, fields)
}

func (c *Client) OptionChain(ctx context.Context, req ChainRequest) (json.RawMessage, error) {
	return c.app.Market.OptionChain(ctx, req)
}

func (c *Client) ExpirationChain(ctx context.Context, symbol string) ([]Expiration, error) {
	return c.app.Market.ExpirationChain(ctx, symbol)
}

func (c *Client) PriceHistory(ctx context.Context, req HistoryRequest) (*PriceHistory, error) {
	return c.app.Market.PriceHistory(ctx, req)
}

func (c *Client) Movers(ctx context.Context, index, sort string, frequency int) (json.RawMessage, error) {
	return c.app.Market.Movers(ctx, index, sort, frequency)
}

func (c *Client) MarketHours(ctx context.Context, markets []string, date time.Time) (json.RawMessage, error) {
	return c.app.Market.MarketHours(ctx, markets, date)
}

func (c *Client) Market(ctx context.Context, market string, date time.Time) (json.RawMessage, error) {
	return c.app.Market.Market(ctx, market, date)
}

func (c *Client) Instruments(ctx context.Context, symbol, projection string) (json.RawMessage, error) {
	return c.app.Market.Instruments(ctx, symbol, projection)
}

func (c *Client) Instrument(ctx context.Context, cusip string) (json.RawMessage, error) {
	return c.app.Market.Instrument(ctx, cusip)
}

package app

import (
	"net/http"
	"strings"

	"schwab/internal/account"
	"schwab/internal/auth"
	"schwab/internal/config"
	"schwab/internal/fees"
	"schwab/internal/journal"
	"schwab/internal/logger"
	"schwab/internal/marketdata"
	"schwab/internal/trading"
	"schwab/internal/transport"
)

type AppBuilder struct {
	cfg *config.Config

	httpClient       *http.Client
	recorderOverride trading.Recorder
	feeSchedule      *fees.Schedule
}

type AppBuilderOption func(*AppBuilder)

// WithHTTPClient replaces the HTTP client used for token and API calls.
func WithHTTPClient(c *http.Client) AppBuilderOption {
	return func(b *AppBuilder) { b.httpClient = c }
}

// WithRecorder records submissions somewhere other than the SQLite journal.
func WithRecorder(r trading.Recorder) AppBuilderOption {
	return func(b *AppBuilder) { b.recorderOverride = r }
}

func WithFeeSchedule(s fees.Schedule) AppBuilderOption {
	return func(b *AppBuilder) { b.feeSchedule = &s }
}

func NewAppBuilder(cfg *config.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func provideAuth(b *AppBuilder) (*auth.Controller, error) {
	o := b.cfg.OAuth
	opts := auth.Options{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		RedirectURI:  o.RedirectURI,
		AuthorizeURL: o.AuthorizeURL,
		TokenURL:     o.TokenURL,
		RefreshToken: o.RefreshToken,
		Leeway:       o.RefreshLeeway(),
		Timeout:      b.cfg.API.Timeout(),
		HTTPClient:   b.httpClient,
	}
	if auth.GrantType(strings.ToLower(o.GrantType)) == auth.GrantClientCredentials {
		opts.DefaultGrant = &auth.Grant{Type: auth.GrantClientCredentials}
	}
	return auth.NewController(opts)
}

func provideTransport(b *AppBuilder, ctrl *auth.Controller) *transport.Client {
	a := b.cfg.API
	return transport.NewClient(ctrl, transport.Options{
		Timeout:            a.Timeout(),
		InsecureSkipVerify: a.InsecureSkipVerify,
		RatePerMinute:      a.RateLimitPerMin,
		Burst:              a.RateLimitBurst,
		BreakerThreshold:   a.BreakerThreshold,
		BreakerCooldown:    a.BreakerCooldown(),
		HTTPClient:         b.httpClient,
	})
}

// provideJournal returns nil when the journal is disabled.
func provideJournal(b *AppBuilder) (*journal.Store, error) {
	if !b.cfg.Journal.Enabled {
		return nil, nil
	}
	st, err := journal.Open(b.cfg.Journal.Path)
	if err != nil {
		return nil, err
	}
	logger.Infof("order journal at %s", b.cfg.Journal.Path)
	return st, nil
}

func provideDispatcher(b *AppBuilder, client *transport.Client, st *journal.Store) *trading.Dispatcher {
	t := b.cfg.Trading
	opts := trading.Options{
		TraderURL:         b.cfg.API.TraderURL,
		PaperURL:          b.cfg.API.PaperURL,
		ValidateSchema:    t.ValidateSchema,
		IdempotencyHeader: t.IdempotencyHeader,
		DefaultDuration:   t.DefaultDuration,
	}
	switch {
	case b.recorderOverride != nil:
		opts.Recorder = b.recorderOverride
	case st != nil:
		opts.Recorder = st
	}
	return trading.NewDispatcher(client, opts)
}

func provideAccounts(b *AppBuilder, client *transport.Client) *account.Client {
	return account.New(client, b.cfg.API.TraderURL)
}

func provideMarketData(b *AppBuilder, client *transport.Client) *marketdata.Client {
	return marketdata.New(client, marketdata.Options{
		BaseURL:              b.cfg.API.MarketDataURL,
		MaxSymbolsPerRequest: b.cfg.MarketData.MaxSymbolsPerRequest,
		MaxConcurrent:        b.cfg.MarketData.MaxConcurrent,
	})
}

func provideFees(b *AppBuilder) fees.Schedule {
	if b.feeSchedule != nil {
		return *b.feeSchedule
	}
	return fees.DefaultSchedule()
}

func newApp(b *AppBuilder, ctrl *auth.Controller, client *transport.Client, d *trading.Dispatcher,
	accts *account.Client, md *marketdata.Client, st *journal.Store, sched fees.Schedule) *App {
	return &App{
		cfg:      b.cfg,
		Auth:     ctrl,
		API:      client,
		Trading:  d,
		Accounts: accts,
		Market:   md,
		Journal:  st,
		Fees:     sched,
		Summary:  newStartupSummary(b.cfg),
	}
}

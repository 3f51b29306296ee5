package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"schwab/internal/fakeschwab"
	"schwab/pkg/schwab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"symbol=SPY", "Quantity=2", "price= 1.05 "})
	require.NoError(t, err)
	assert.Equal(t, schwab.Params{"symbol": "SPY", "quantity": "2", "price": "1.05"}, p)

	_, err = parseParams([]string{"symbol"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}

func newTestRunner(t *testing.T) (*runner, *bytes.Buffer, *fakeschwab.Server) {
	t.Helper()
	srv := fakeschwab.New("app-key", "app-secret")
	t.Cleanup(srv.Close)
	cfg := testConfig(t, srv)
	client, err := schwab.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	var out bytes.Buffer
	return &runner{client: client, cfg: cfg, out: &out}, &out, srv
}

func TestRunPlaceAndJournal(t *testing.T) {
	r, out, srv := newTestRunner(t)
	ctx := context.Background()

	err := r.run(ctx, "place", []string{"-account", "12345678", "OPTION", "long_straddle", "symbol=SPY", "strike_price=450", "quantity=1", "price=7.10"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "order 1001 accepted")
	assert.Equal(t, 1, srv.Calls(fakeschwab.RoutePlaceOrder))

	out.Reset()
	require.NoError(t, r.run(ctx, "journal", nil))
	assert.Contains(t, out.String(), "OPTION/long_straddle")
}

func TestRunBuildPrintsFees(t *testing.T) {
	r, out, srv := newTestRunner(t)
	require.NoError(t, r.run(context.Background(), "build", []string{"OPTION", "iron_butterfly", "symbol=SPY",
		"lower_put_strike=440", "middle_strike=450", "upper_call_strike=460", "quantity=1", "price=3.2"}))
	assert.Contains(t, out.String(), `"orderStrategyType": "SINGLE"`)
	assert.Contains(t, out.String(), "estimated fees: 2.60")
	assert.Zero(t, srv.TotalCalls())
}

func TestRunUnknownCommand(t *testing.T) {
	r, _, _ := newTestRunner(t)
	assert.Error(t, r.run(context.Background(), "teleport", nil))
}

func testConfig(t *testing.T, srv *fakeschwab.Server) *schwab.Config {
	t.Helper()
	cfg := schwab.DefaultConfig()
	cfg.OAuth.ClientID = "app-key"
	cfg.OAuth.ClientSecret = "app-secret"
	cfg.OAuth.GrantType = "client_credentials"
	cfg.OAuth.TokenURL = srv.TokenURL()
	cfg.API.TraderURL = srv.TraderURL()
	cfg.API.MarketDataURL = srv.MarketDataURL()
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "orders.db")
	return cfg
}

func TestExecuteClosesClientOnFailure(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()

	var opened *schwab.Client
	newClient = func(cfg *schwab.Config) (*schwab.Client, error) {
		c, err := schwab.New(cfg)
		opened = c
		return c, err
	}
	defer func() { newClient = schwab.New }()

	var out bytes.Buffer
	code := execute(context.Background(), testConfig(t, srv), "", "teleport", nil, &out)
	assert.Equal(t, 1, code)
	require.NotNil(t, opened)

	_, err := opened.RecentSubmissions(context.Background(), 1)
	assert.Error(t, err, "journal should be closed once execute returns")
}

func TestExecuteStrategies(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()

	var out bytes.Buffer
	code := execute(context.Background(), testConfig(t, srv), "", "strategies", nil, &out)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "iron_condor")
	assert.Zero(t, srv.TotalCalls())
}

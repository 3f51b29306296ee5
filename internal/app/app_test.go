package app

import (
	"context"
	"path/filepath"
	"testing"

	"schwab/internal/config"
	"schwab/internal/fakeschwab"
	"schwab/internal/journal"
	"schwab/internal/strategy"
	"schwab/internal/trading"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, srv *fakeschwab.Server) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OAuth.ClientID = "app-key"
	cfg.OAuth.ClientSecret = "app-secret"
	cfg.OAuth.GrantType = "client_credentials"
	cfg.OAuth.TokenURL = srv.TokenURL()
	cfg.API.TraderURL = srv.TraderURL()
	cfg.API.PaperURL = srv.PaperURL()
	cfg.API.MarketDataURL = srv.MarketDataURL()
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "orders.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewAppWiresEverything(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	a, err := NewApp(testConfig(t, srv))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Journal)
	assert.Zero(t, srv.TotalCalls())

	ctx := context.Background()
	rec, err := a.Trading.PlaceOrder(ctx, trading.AccountContext{AccountID: "12345678"}, "EQUITY", trading.KindBuyMarketStock,
		strategy.Params{"symbol": "AAPL", "quantity": 3})
	require.NoError(t, err)

	row, err := a.Journal.ByOrderID(ctx, rec.OrderID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, journal.OutcomeAccepted, row.Outcome)

	nums, err := a.Accounts.AccountNumbers(ctx)
	require.NoError(t, err)
	assert.Len(t, nums, 1)
	assert.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))
}

func TestNewAppWithoutJournal(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	cfg := testConfig(t, srv)
	cfg.Journal.Enabled = false

	a, err := NewApp(cfg)
	require.NoError(t, err)
	assert.Nil(t, a.Journal)
	assert.NoError(t, a.Close())
	assert.Contains(t, a.Summary.String(), "journal:     -")
}

func TestNewAppRequiresCredentials(t *testing.T) {
	cfg := config.Default()
	_, err := NewApp(cfg)
	assert.Error(t, err)
	_, err = NewApp(nil)
	assert.Error(t, err)
}

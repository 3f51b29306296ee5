package schwab

import (
	"context"
	"path/filepath"
	"testing"

	"schwab/internal/fakeschwab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientEndToEnd(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.OAuth.ClientID = "app-key"
	cfg.OAuth.ClientSecret = "app-secret"
	cfg.OAuth.GrantType = "authorization_code"
	cfg.OAuth.TokenURL = srv.TokenURL()
	cfg.OAuth.AuthorizeURL = srv.AuthorizeURL()
	cfg.API.TraderURL = srv.TraderURL()
	cfg.API.MarketDataURL = srv.MarketDataURL()
	cfg.Journal.Enabled = true
	cfg.Journal.Path = filepath.Join(t.TempDir(), "orders.db")

	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Contains(t, c.AuthorizeURL(), "client_id=app-key")
	ctx := context.Background()

	_, err = c.AccountNumbers(ctx)
	require.Error(t, err)
	assert.Zero(t, srv.TotalCalls())

	cred, err := c.LoginWithRedirect(ctx, "https://127.0.0.1/?code=C0DE%40&session=abc")
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", cred.RefreshToken)

	params := Params{"symbol": "SPY", "short_call_strike": 460, "long_call_strike": 465, "quantity": 2, "price": "0.85"}
	doc, err := c.BuildOrder("OPTION", "bear_call", params)
	require.NoError(t, err)
	assert.Equal(t, "2.6", c.EstimateFees(doc).String())

	acct := AccountContext{AccountID: "12345678"}
	rec, err := c.PlaceOrder(ctx, acct, "OPTION", "bear_call", params)
	require.NoError(t, err)
	assert.Equal(t, "1001", rec.OrderID)

	subs, err := c.RecentSubmissions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "bear_call", subs[0].Kind)

	quotes, err := c.Quotes(ctx, []string{"SPY", "QQQ"}, nil, false)
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
	assert.Contains(t, c.Strategies(), "iron_condor")
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/fakeschwab"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestController(t *testing.T, srv *fakeschwab.Server, mutate func(*Options)) (*Controller, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)}
	opts := Options{
		ClientID:     "app-key",
		ClientSecret: "app-secret",
		RedirectURI:  "https://127.0.0.1",
		AuthorizeURL: srv.AuthorizeURL(),
		TokenURL:     srv.TokenURL(),
		Now:          clk.now,
	}
	if mutate != nil {
		mutate(&opts)
	}
	ctrl, err := NewController(opts)
	require.NoError(t, err)
	return ctrl, clk
}

func TestAuthenticateAuthorizationCode(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	ctrl, clk := newTestController(t, srv, nil)

	cred, err := ctrl.Authenticate(context.Background(), Grant{Type: GrantAuthorizationCode, Code: "C0.abc", SessionID: "s-1"})
	require.NoError(t, err)

	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, "refresh-1", cred.RefreshToken)
	assert.Equal(t, clk.now().Add(1800*time.Second), cred.ExpiresAt)
	assert.Equal(t, cred, ctrl.Snapshot())
}

func TestAuthenticateRejectsBadSecret(t *testing.T) {
	srv := fakeschwab.New("app-key", "other-secret")
	defer srv.Close()
	ctrl, _ := newTestController(t, srv, nil)

	_, err := ctrl.Authenticate(context.Background(), Grant{Type: GrantClientCredentials})
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrExchangeFailed)

	var ae *apierr.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Contains(t, ae.Body, "invalid_client")
}

func TestExpiresInDefaults(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.SetTokenTTL(0)
	ctrl, clk := newTestController(t, srv, nil)

	cred, err := ctrl.Authenticate(context.Background(), Grant{Type: GrantClientCredentials})
	require.NoError(t, err)
	assert.Equal(t, clk.now().Add(30*time.Minute), cred.ExpiresAt)
}

func TestRefreshWithoutTokenFails(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	ctrl, _ := newTestController(t, srv, nil)

	_, err := ctrl.Refresh(context.Background())
	assert.ErrorIs(t, err, apierr.ErrNoRefreshToken)
	assert.Zero(t, srv.Calls(fakeschwab.RouteToken))
}

func TestRefreshKeepsPreviousRefreshToken(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.IssueRefreshToken("seeded")
	srv.SetOmitRefreshToken(true)
	ctrl, _ := newTestController(t, srv, func(o *Options) { o.RefreshToken = "seeded" })

	cred, err := ctrl.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seeded", cred.RefreshToken)
	assert.Equal(t, "access-1", cred.AccessToken)
}

func TestHeadersRefreshesExpiredTokenOnce(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	ctrl, clk := newTestController(t, srv, nil)

	_, err := ctrl.Authenticate(context.Background(), Grant{Type: GrantAuthorizationCode, Code: "C0.abc"})
	require.NoError(t, err)
	require.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))

	h, err := ctrl.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-1", h.Get("Authorization"))
	assert.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))

	clk.advance(31 * time.Minute)
	h, err = ctrl.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-2", h.Get("Authorization"))
	assert.Equal(t, 2, srv.Calls(fakeschwab.RouteToken))

	h, err = ctrl.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-2", h.Get("Authorization"))
	assert.Equal(t, 2, srv.Calls(fakeschwab.RouteToken))
}

func TestTokenRefreshedInsideLeeway(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	ctrl, clk := newTestController(t, srv, nil)
	_, err := ctrl.Authenticate(context.Background(), Grant{Type: GrantClientCredentials})
	require.NoError(t, err)

	clk.advance(1800*time.Second - 10*time.Second)
	_, err = ctrl.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Calls(fakeschwab.RouteToken))
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.IssueRefreshToken("seeded")
	srv.SetTokenDelay(50 * time.Millisecond)
	ctrl, _ := newTestController(t, srv, func(o *Options) { o.RefreshToken = "seeded" })

	const callers = 16
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = ctrl.Token(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "access-1", tokens[i])
	}
	assert.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))
}

func TestCallerCancellationDoesNotAbortSharedRefresh(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.IssueRefreshToken("seeded")
	srv.SetTokenDelay(100 * time.Millisecond)
	ctrl, _ := newTestController(t, srv, func(o *Options) { o.RefreshToken = "seeded" })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := ctrl.Token(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	tok, err := ctrl.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
	assert.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))
}

func TestNeverAuthenticatedWithoutGrant(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	ctrl, _ := newTestController(t, srv, nil)

	_, err := ctrl.Headers(context.Background())
	assert.ErrorIs(t, err, apierr.ErrMissingGrant)
	assert.Zero(t, srv.TotalCalls())
}

func TestDefaultGrantUsedLazily(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	ctrl, _ := newTestController(t, srv, func(o *Options) {
		o.DefaultGrant = &Grant{Type: GrantClientCredentials}
	})

	tok, err := ctrl.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)
}

func TestRedirectGrantConsumedOnce(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.SetOmitRefreshToken(true)
	ctrl, clk := newTestController(t, srv, nil)

	g, err := ParseRedirectURL("https://127.0.0.1/?code=C0.b2F1dGg%40&session=c4ca5237")
	require.NoError(t, err)
	ctrl.SetGrant(g)

	_, err = ctrl.Token(context.Background())
	require.NoError(t, err)

	clk.advance(time.Hour)
	_, err = ctrl.Token(context.Background())
	assert.ErrorIs(t, err, apierr.ErrMissingGrant)
}

func TestTokenEndpointFailureSurfaces(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.IssueRefreshToken("seeded")
	srv.SetTokenStatus(http.StatusServiceUnavailable)
	ctrl, _ := newTestController(t, srv, func(o *Options) { o.RefreshToken = "seeded" })

	_, err := ctrl.Token(context.Background())
	var ae *apierr.AuthError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apierr.ExchangeFailed, ae.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, ae.Status)
	assert.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))
}

func TestRestoreSkipsNetwork(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	ctrl, clk := newTestController(t, srv, nil)

	ctrl.Restore(Credential{AccessToken: "persisted", RefreshToken: "r", ExpiresAt: clk.now().Add(time.Hour)})
	tok, err := ctrl.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
	assert.Zero(t, srv.TotalCalls())
}

func TestConcurrentRefreshSharesOneExchange(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.IssueRefreshToken("seeded")
	srv.SetTokenDelay(100 * time.Millisecond)
	ctrl, _ := newTestController(t, srv, func(o *Options) { o.RefreshToken = "seeded" })

	const callers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	creds := make([]Credential, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			creds[i], errs[i] = ctrl.Refresh(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, creds[0], creds[i])
	}
	assert.Equal(t, "access-1", creds[0].AccessToken)
	assert.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))
}

func TestRefreshJoinsLazyRenewal(t *testing.T) {
	srv := fakeschwab.New("app-key", "app-secret")
	defer srv.Close()
	srv.IssueRefreshToken("seeded")
	srv.SetTokenDelay(100 * time.Millisecond)
	ctrl, _ := newTestController(t, srv, func(o *Options) { o.RefreshToken = "seeded" })

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Headers(context.Background())
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cred, err := ctrl.Refresh(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, "access-1", cred.AccessToken)
	assert.Equal(t, 1, srv.Calls(fakeschwab.RouteToken))
}

func TestMalformedTokenResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing access token", `{"refresh_token":"r","expires_in":1800}`},
		{"not json", `not json`},
		{"numeric access token", `{"access_token":123,"expires_in":1800}`},
		{"numeric refresh token", `{"access_token":"a","refresh_token":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer token.Close()
			srv := fakeschwab.New("app-key", "app-secret")
			defer srv.Close()
			ctrl, _ := newTestController(t, srv, func(o *Options) { o.TokenURL = token.URL })

			_, err := ctrl.Authenticate(context.Background(), Grant{Type: GrantClientCredentials})
			assert.ErrorIs(t, err, apierr.ErrMalformedResponse)
			assert.Empty(t, ctrl.Snapshot().AccessToken)
		})
	}
}

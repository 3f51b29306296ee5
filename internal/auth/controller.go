package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/logger"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"
)

const (
	defaultExpiresIn = 1800 * time.Second
	defaultLeeway    = 30 * time.Second
	defaultTimeout   = 30 * time.Second
	maxErrorBody     = 4096
	flightKey        = "token"
)

// Options configure a Controller.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	TokenURL     string
	// DefaultGrant is used when a token is needed and nothing has been
	// exchanged yet. Authorization codes are consumed on first use.
	DefaultGrant *Grant
	// RefreshToken seeds the store with a token obtained elsewhere.
	RefreshToken string
	Leeway       time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
	Now          func() time.Time
}

// Controller owns the credential and turns it into request headers,
// authenticating or refreshing lazily when the token is missing or stale.
type Controller struct {
	opts   Options
	store  *TokenStore
	client *http.Client
	now    func() time.Time
	flight singleflight.Group
	log    *logger.Component

	exchangeMu sync.Mutex

	mu    sync.Mutex
	grant *Grant
}

func NewController(opts Options) (*Controller, error) {
	if strings.TrimSpace(opts.ClientID) == "" || strings.TrimSpace(opts.ClientSecret) == "" {
		return nil, fmt.Errorf("auth: client id and secret are required")
	}
	if strings.TrimSpace(opts.TokenURL) == "" {
		return nil, fmt.Errorf("auth: token url is required")
	}
	if opts.Leeway <= 0 {
		opts.Leeway = defaultLeeway
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		opts:   opts,
		store:  NewTokenStore(strings.TrimSpace(opts.RefreshToken)),
		client: client,
		now:    now,
		log:    logger.With("auth"),
	}
	if opts.DefaultGrant != nil {
		g := *opts.DefaultGrant
		c.grant = &g
	}
	return c, nil
}

// SetGrant installs the grant used by the next lazy authentication, e.g. the
// result of ParseRedirectURL.
func (c *Controller) SetGrant(g Grant) {
	c.mu.Lock()
	c.grant = &g
	c.mu.Unlock()
}

func (c *Controller) AuthorizeURL() string {
	return BuildAuthorizeURL(c.opts.AuthorizeURL, c.opts.ClientID, c.opts.RedirectURI)
}

func (c *Controller) Snapshot() Credential {
	return c.store.Load()
}

// Restore replaces the credential with one persisted by the caller.
func (c *Controller) Restore(cred Credential) {
	c.exchangeMu.Lock()
	defer c.exchangeMu.Unlock()
	c.store.Store(cred)
}

// Authenticate performs the initial exchange for g. Callers presenting the
// same grant at once share one exchange.
func (c *Controller) Authenticate(ctx context.Context, g Grant) (Credential, error) {
	key := "grant:" + string(g.Type) + ":" + g.Code
	return c.shared(ctx, key, func(fctx context.Context) (Credential, error) {
		return c.authenticate(fctx, g)
	})
}

// Refresh trades the stored refresh token for a new access token. It joins
// any renewal already in flight instead of starting a second exchange.
func (c *Controller) Refresh(ctx context.Context) (Credential, error) {
	return c.shared(ctx, flightKey, c.refresh)
}

// Token returns a usable access token, refreshing it first when needed.
// Concurrent callers share one exchange; each still honours its own ctx.
func (c *Controller) Token(ctx context.Context) (string, error) {
	if cred := c.store.Load(); cred.Usable(c.now(), c.opts.Leeway) {
		return cred.AccessToken, nil
	}
	cred, err := c.shared(ctx, flightKey, func(fctx context.Context) (Credential, error) {
		if cred := c.store.Load(); cred.Usable(c.now(), c.opts.Leeway) {
			return cred, nil
		}
		return c.renew(fctx)
	})
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Headers returns the Authorization header for an API call.
func (c *Controller) Headers(ctx context.Context) (http.Header, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

// shared runs fn once per key for all concurrent callers. fn runs on a
// context detached from the first caller, bounded by the timeout, and holds
// exchangeMu so no two exchanges touch the credential at the same time.
func (c *Controller) shared(ctx context.Context, key string, fn func(context.Context) (Credential, error)) (Credential, error) {
	ch := c.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
		defer cancel()
		c.exchangeMu.Lock()
		defer c.exchangeMu.Unlock()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	}
}

func (c *Controller) authenticate(ctx context.Context, g Grant) (Credential, error) {
	form, err := g.form(c.opts.RedirectURI)
	if err != nil {
		return Credential{}, &apierr.AuthError{Kind: apierr.ExchangeFailed, Err: err}
	}
	if g.SessionID != "" {
		c.log.Debugf("exchanging authorization code (session=%s)", g.SessionID)
	}
	cred, err := c.exchange(ctx, form)
	if err != nil {
		return Credential{}, err
	}
	if g.Type == GrantAuthorizationCode {
		c.mu.Lock()
		if c.grant != nil && c.grant.Code == g.Code {
			c.grant = nil
		}
		c.mu.Unlock()
	}
	c.log.Infof("authenticated via %s, expires at %s", g.Type, cred.ExpiresAt.Format(time.RFC3339))
	return cred, nil
}

func (c *Controller) refresh(ctx context.Context) (Credential, error) {
	token := c.store.Load().RefreshToken
	if token == "" {
		return Credential{}, &apierr.AuthError{Kind: apierr.NoRefreshToken}
	}
	form := url.Values{}
	form.Set("grant_type", string(GrantRefreshToken))
	form.Set("refresh_token", token)
	cred, err := c.exchange(ctx, form)
	if err != nil {
		return Credential{}, err
	}
	c.log.Debugf("access token refreshed, expires at %s", cred.ExpiresAt.Format(time.RFC3339))
	return cred, nil
}

// renew runs inside a shared flight and must not re-enter shared.
func (c *Controller) renew(ctx context.Context) (Credential, error) {
	if c.store.Load().RefreshToken != "" {
		return c.refresh(ctx)
	}
	c.mu.Lock()
	g := c.grant
	c.mu.Unlock()
	if g == nil {
		return Credential{}, &apierr.AuthError{Kind: apierr.MissingGrant}
	}
	return c.authenticate(ctx, *g)
}

func (c *Controller) basicAuth() string {
	raw := c.opts.ClientID + ":" + c.opts.ClientSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw))
}

func (c *Controller) exchange(ctx context.Context, form url.Values) (Credential, error) {
	body := form.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.TokenURL, strings.NewReader(body))
	if err != nil {
		return Credential{}, &apierr.AuthError{Kind: apierr.ExchangeFailed, Err: err}
	}
	req.Header.Set("Authorization", c.basicAuth())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	logger.LogWireRequest(req.Method, c.opts.TokenURL, req.Header, []byte(body))

	issuedAt := c.now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Credential{}, &apierr.AuthError{Kind: apierr.ExchangeFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.LogWireResponse(req.Method, c.opts.TokenURL, resp.StatusCode, data)
		return Credential{}, &apierr.AuthError{
			Kind:   apierr.ExchangeFailed,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, &apierr.AuthError{Kind: apierr.ExchangeFailed, Err: err}
	}
	logger.LogWireResponse(req.Method, c.opts.TokenURL, resp.StatusCode, data)

	if !gjson.ValidBytes(data) {
		return Credential{}, &apierr.AuthError{Kind: apierr.MalformedResponse, Body: truncate(data)}
	}
	parsed := gjson.ParseBytes(data)
	access := parsed.Get("access_token")
	if access.Type != gjson.String || access.Str == "" {
		return Credential{}, &apierr.AuthError{Kind: apierr.MalformedResponse, Err: fmt.Errorf("response has no access_token string")}
	}
	ttl := defaultExpiresIn
	if exp := parsed.Get("expires_in"); exp.Exists() && exp.Int() > 0 {
		ttl = time.Duration(exp.Int()) * time.Second
	}
	refresh := parsed.Get("refresh_token")
	if refresh.Exists() && refresh.Type != gjson.String && refresh.Type != gjson.Null {
		return Credential{}, &apierr.AuthError{Kind: apierr.MalformedResponse, Err: fmt.Errorf("refresh_token is not a string")}
	}
	return c.store.apply(access.Str, refresh.Str, issuedAt.Add(ttl)), nil
}

func truncate(data []byte) string {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	return strings.TrimSpace(string(data))
}

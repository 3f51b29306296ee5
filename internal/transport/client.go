// Package transport sends authenticated JSON requests to the broker. It
// applies the rate limit and circuit breaker shared by every endpoint family
// and turns non-2xx answers into *apierr.HTTPError.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"schwab/internal/apierr"
	"schwab/internal/logger"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const maxErrorBody = 4096

// HeaderSource supplies the authorization headers for each request.
type HeaderSource interface {
	Headers(ctx context.Context) (http.Header, error)
}

type Options struct {
	Timeout            time.Duration
	InsecureSkipVerify bool
	RatePerMinute      int
	Burst              int
	BreakerThreshold   int
	BreakerCooldown    time.Duration
	HTTPClient         *http.Client
}

type Client struct {
	httpClient *http.Client
	auth       HeaderSource
	limiter    *rate.Limiter
	breaker    *Breaker
	log        *logger.Component
}

func NewClient(auth HeaderSource, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
		}
		httpClient = &http.Client{Timeout: timeout, Transport: tr}
	}
	var limiter *rate.Limiter
	if opts.RatePerMinute > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), burst)
	}
	cooldown := opts.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Client{
		httpClient: httpClient,
		auth:       auth,
		limiter:    limiter,
		breaker:    NewBreaker("broker-api", opts.BreakerThreshold, cooldown),
		log:        logger.With("transport"),
	}
}

func (c *Client) Breaker() *Breaker { return c.breaker }

// Request describes one API call. URL is absolute; Body, when set, is sent
// as JSON.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Body   any
	Header http.Header
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do performs req. A non-2xx status yields *apierr.HTTPError carrying the
// status and body; the response is never retried.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c == nil {
		return nil, fmt.Errorf("transport client not initialized")
	}
	target, err := withQuery(req.URL, req.Query)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if req.Body != nil {
		if raw, ok := req.Body.(json.RawMessage); ok {
			payload = raw
		} else if payload, err = json.Marshal(req.Body); err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	settled := false
	defer func() {
		if !settled {
			c.breaker.Release()
		}
	}()
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	authHeader, err := c.auth.Headers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vals := range authHeader {
		httpReq.Header[k] = vals
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	logger.LogWireRequest(req.Method, target, httpReq.Header, payload)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == nil {
			settled = true
			c.breaker.RecordFailure()
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		settled = true
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("read %s %s response: %w", req.Method, req.URL, err)
	}
	logger.LogWireResponse(req.Method, target, resp.StatusCode, data)
	c.log.Debugf("%s %s status=%d dur=%s", req.Method, req.URL, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	settled = true
	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(req.Method, req.URL, resp.StatusCode, data)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// GetJSON issues a GET and decodes the body into out. A nil out discards it.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Query: query})
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", rawURL, err)
	}
	return nil
}

func newHTTPError(method, target string, status int, data []byte) *apierr.HTTPError {
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	body := strings.TrimSpace(string(data))
	return &apierr.HTTPError{
		Method:  method,
		URL:     target,
		Status:  status,
		Body:    body,
		Message: errorMessage(body),
	}
}

// errorMessage pulls a human readable message out of the broker's error
// envelopes, which differ between endpoint families.
func errorMessage(body string) string {
	if body == "" || !gjson.Valid(body) {
		return ""
	}
	for _, path := range []string{"message", "error_description", "errors.0.detail", "errors.0.title", "errors.0", "error"} {
		if v := gjson.Get(body, path); v.Exists() && v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// Endpoint joins base with escaped path segments.
func Endpoint(base string, segments ...string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("endpoint base url is empty")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	var plain, escaped strings.Builder
	plain.WriteString(strings.TrimSuffix(parsed.Path, "/"))
	escaped.WriteString(strings.TrimSuffix(parsed.EscapedPath(), "/"))
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg == "" {
			continue
		}
		plain.WriteString("/" + seg)
		escaped.WriteString("/" + url.PathEscape(seg))
	}
	parsed.Path = plain.String()
	parsed.RawPath = escaped.String()
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}

func withQuery(raw string, query url.Values) (string, error) {
	if len(query) == 0 {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	q := u.Query()
	for k, vals := range query {
		for _, v := range vals {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

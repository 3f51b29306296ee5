package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate 对配置进行基础校验。凭据必填，paper_url 可为空。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.OAuth.validate(); err != nil {
		return err
	}
	if err := c.API.validate(); err != nil {
		return err
	}
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.MarketData.validate(); err != nil {
		return err
	}
	return c.Journal.validate()
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level %q is not one of debug/info/warn/error", a.LogLevel)
	}
	switch strings.ToLower(a.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format %q must be text or json", a.LogFormat)
	}
	return nil
}

func (o *OAuthConfig) validate() error {
	if o.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required")
	}
	if o.ClientSecret == "" {
		return fmt.Errorf("oauth.client_secret is required")
	}
	if err := checkURL("oauth.token_url", o.TokenURL); err != nil {
		return err
	}
	if err := checkURL("oauth.authorize_url", o.AuthorizeURL); err != nil {
		return err
	}
	switch o.GrantType {
	case "authorization_code", "client_credentials":
	default:
		return fmt.Errorf("oauth.grant_type %q must be authorization_code or client_credentials", o.GrantType)
	}
	if o.RefreshLeewaySeconds < 0 {
		return fmt.Errorf("oauth.refresh_leeway_seconds must be >= 0")
	}
	return nil
}

func (a *APIConfig) validate() error {
	if err := checkURL("api.trader_url", a.TraderURL); err != nil {
		return err
	}
	if err := checkURL("api.market_data_url", a.MarketDataURL); err != nil {
		return err
	}
	if a.PaperURL != "" {
		if err := checkURL("api.paper_url", a.PaperURL); err != nil {
			return err
		}
	}
	if a.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if a.RateLimitPerMin <= 0 || a.RateLimitBurst <= 0 {
		return fmt.Errorf("api.rate_limit_per_min and api.rate_limit_burst must be > 0")
	}
	if a.BreakerThreshold <= 0 {
		return fmt.Errorf("api.breaker_threshold must be > 0")
	}
	return nil
}

func (t *TradingConfig) validate() error {
	switch t.DefaultDuration {
	case "DAY", "GOOD_TILL_CANCEL", "FILL_OR_KILL", "IMMEDIATE_OR_CANCEL":
	default:
		return fmt.Errorf("trading.default_duration %q is not supported", t.DefaultDuration)
	}
	if strings.ContainsAny(t.IdempotencyHeader, " :\t") {
		return fmt.Errorf("trading.idempotency_header %q is not a valid header name", t.IdempotencyHeader)
	}
	return nil
}

func (m *MarketDataConfig) validate() error {
	if m.MaxSymbolsPerRequest <= 0 {
		return fmt.Errorf("market_data.max_symbols_per_request must be > 0")
	}
	if m.MaxConcurrent <= 0 {
		return fmt.Errorf("market_data.max_concurrent must be > 0")
	}
	return nil
}

func (j *JournalConfig) validate() error {
	if j.Enabled && strings.TrimSpace(j.Path) == "" {
		return fmt.Errorf("journal.path is required when journal.enabled is true")
	}
	return nil
}

func checkURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute URL", field, raw)
	}
	return nil
}

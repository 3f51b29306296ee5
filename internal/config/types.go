package config

import (
	"strings"
	"time"
)

// Config 客户端根配置。
type Config struct {
	App        AppConfig        `yaml:"app"`
	OAuth      OAuthConfig      `yaml:"oauth"`
	API        APIConfig        `yaml:"api"`
	Trading    TradingConfig    `yaml:"trading"`
	MarketData MarketDataConfig `yaml:"market_data"`
	Journal    JournalConfig    `yaml:"journal"`
}

type AppConfig struct {
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	LogPath      string `yaml:"log_path"`
	WireLogPath  string `yaml:"wire_log_path"`
	WireDumpBody bool   `yaml:"wire_dump_body"`
	WatchConfig  bool   `yaml:"watch_config"`
}

// OAuthConfig describes the token endpoint and the application credentials.
type OAuthConfig struct {
	ClientID             string `yaml:"client_id"`
	ClientSecret         string `yaml:"client_secret"`
	RedirectURI          string `yaml:"redirect_uri"`
	AuthorizeURL         string `yaml:"authorize_url"`
	TokenURL             string `yaml:"token_url"`
	GrantType            string `yaml:"grant_type"` // authorization_code | client_credentials
	RefreshToken         string `yaml:"refresh_token"`
	RefreshLeewaySeconds int    `yaml:"refresh_leeway_seconds"`
}

func (o OAuthConfig) RefreshLeeway() time.Duration {
	return time.Duration(o.RefreshLeewaySeconds) * time.Second
}

// APIConfig holds endpoint families and transport limits.
type APIConfig struct {
	TraderURL              string `yaml:"trader_url"`
	PaperURL               string `yaml:"paper_url"` // empty: paper trading unavailable
	MarketDataURL          string `yaml:"market_data_url"`
	TimeoutSeconds         int    `yaml:"timeout_seconds"`
	InsecureSkipVerify     bool   `yaml:"insecure_skip_verify"`
	RateLimitPerMin        int    `yaml:"rate_limit_per_min"`
	RateLimitBurst         int    `yaml:"rate_limit_burst"`
	BreakerThreshold       int    `yaml:"breaker_threshold"`
	BreakerCooldownSeconds int    `yaml:"breaker_cooldown_seconds"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (a APIConfig) BreakerCooldown() time.Duration {
	return time.Duration(a.BreakerCooldownSeconds) * time.Second
}

type TradingConfig struct {
	IdempotencyHeader string `yaml:"idempotency_header"` // empty disables the header
	ValidateSchema    bool   `yaml:"validate_schema"`
	DefaultDuration   string `yaml:"default_duration"`
}

type MarketDataConfig struct {
	MaxSymbolsPerRequest int `yaml:"max_symbols_per_request"`
	MaxConcurrent        int `yaml:"max_concurrent"`
}

// JournalConfig 控制本地下单记录。
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

package config

import "strings"

const (
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
	defaultRedirectURI      = "https://127.0.0.1"
	defaultAuthorizeURL     = "https://api.schwabapi.com/v1/oauth/authorize"
	defaultTokenURL         = "https://api.schwabapi.com/v1/oauth/token"
	defaultGrantType        = "authorization_code"
	defaultRefreshLeeway    = 30
	defaultTraderURL        = "https://api.schwabapi.com/trader/v1"
	defaultMarketDataURL    = "https://api.schwabapi.com/marketdata/v1"
	defaultTimeout          = 30
	defaultRateLimitPerMin  = 120
	defaultRateLimitBurst   = 10
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30
	defaultDuration         = "DAY"
	defaultMaxSymbols       = 500
	defaultMaxConcurrent    = 4
	defaultJournalPath      = "data/orders.db"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.OAuth.applyDefaults(keys)
	c.API.applyDefaults(keys)
	c.Trading.applyDefaults(keys)
	c.MarketData.applyDefaults(keys)
	c.Journal.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.log_level", &a.LogLevel, defaultLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultLogFormat),
	)
}

func (o *OAuthConfig) applyDefaults(keys keySet) {
	if o == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("oauth.redirect_uri", &o.RedirectURI, defaultRedirectURI),
		stringFieldDefault("oauth.authorize_url", &o.AuthorizeURL, defaultAuthorizeURL),
		stringFieldDefault("oauth.token_url", &o.TokenURL, defaultTokenURL),
		stringFieldDefault("oauth.grant_type", &o.GrantType, defaultGrantType),
		intFieldDefault("oauth.refresh_leeway_seconds", &o.RefreshLeewaySeconds, defaultRefreshLeeway),
	)
	o.GrantType = strings.ToLower(strings.TrimSpace(o.GrantType))
	o.ClientID = strings.TrimSpace(o.ClientID)
	o.ClientSecret = strings.TrimSpace(o.ClientSecret)
	o.RefreshToken = strings.TrimSpace(o.RefreshToken)
}

func (a *APIConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("api.trader_url", &a.TraderURL, defaultTraderURL),
		stringFieldDefault("api.market_data_url", &a.MarketDataURL, defaultMarketDataURL),
		intFieldDefault("api.timeout_seconds", &a.TimeoutSeconds, defaultTimeout),
		intFieldDefault("api.rate_limit_per_min", &a.RateLimitPerMin, defaultRateLimitPerMin),
		intFieldDefault("api.rate_limit_burst", &a.RateLimitBurst, defaultRateLimitBurst),
		intFieldDefault("api.breaker_threshold", &a.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("api.breaker_cooldown_seconds", &a.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
	a.TraderURL = strings.TrimRight(strings.TrimSpace(a.TraderURL), "/")
	a.PaperURL = strings.TrimRight(strings.TrimSpace(a.PaperURL), "/")
	a.MarketDataURL = strings.TrimRight(strings.TrimSpace(a.MarketDataURL), "/")
}

func (t *TradingConfig) applyDefaults(keys keySet) {
	if t == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("trading.default_duration", &t.DefaultDuration, defaultDuration),
		boolFieldDefault("trading.validate_schema", &t.ValidateSchema, true),
	)
	t.DefaultDuration = strings.ToUpper(strings.TrimSpace(t.DefaultDuration))
	t.IdempotencyHeader = strings.TrimSpace(t.IdempotencyHeader)
}

func (m *MarketDataConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("market_data.max_symbols_per_request", &m.MaxSymbolsPerRequest, defaultMaxSymbols),
		intFieldDefault("market_data.max_concurrent", &m.MaxConcurrent, defaultMaxConcurrent),
	)
}

func (j *JournalConfig) applyDefaults(keys keySet) {
	if j == nil {
		return
	}
	if j.Enabled {
		applyFieldDefaults(keys, stringFieldDefault("journal.path", &j.Path, defaultJournalPath))
	}
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

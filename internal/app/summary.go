package app

import (
	"fmt"
	"strings"

	"schwab/internal/config"
	"schwab/internal/logger"
)

type StartupSummary struct {
	TraderURL     string
	PaperURL      string
	MarketDataURL string
	GrantType     string
	HasRefresh    bool
	RatePerMin    int
	Breaker       string
	Journal       string
	SchemaCheck   bool
}

func newStartupSummary(cfg *config.Config) *StartupSummary {
	s := &StartupSummary{
		TraderURL:     cfg.API.TraderURL,
		PaperURL:      cfg.API.PaperURL,
		MarketDataURL: cfg.API.MarketDataURL,
		GrantType:     cfg.OAuth.GrantType,
		HasRefresh:    strings.TrimSpace(cfg.OAuth.RefreshToken) != "",
		RatePerMin:    cfg.API.RateLimitPerMin,
		Breaker:       fmt.Sprintf("%d failures / %s", cfg.API.BreakerThreshold, cfg.API.BreakerCooldown()),
		SchemaCheck:   cfg.Trading.ValidateSchema,
	}
	if cfg.Journal.Enabled {
		s.Journal = cfg.Journal.Path
	}
	return s
}

func (s *StartupSummary) String() string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	b.WriteString(line + "\n")
	b.WriteString("启动配置摘要 (STARTUP SUMMARY)\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "  trader:      %s\n", s.TraderURL)
	fmt.Fprintf(&b, "  paper:       %s\n", orDash(s.PaperURL))
	fmt.Fprintf(&b, "  market data: %s\n", s.MarketDataURL)
	fmt.Fprintf(&b, "  grant:       %s (refresh token seeded: %t)\n", orDash(s.GrantType), s.HasRefresh)
	fmt.Fprintf(&b, "  rate limit:  %d/min\n", s.RatePerMin)
	fmt.Fprintf(&b, "  breaker:     %s\n", s.Breaker)
	fmt.Fprintf(&b, "  schema:      %t\n", s.SchemaCheck)
	fmt.Fprintf(&b, "  journal:     %s\n", orDash(s.Journal))
	b.WriteString(line)
	return b.String()
}

func (s *StartupSummary) Print() {
	if s == nil {
		return
	}
	logger.InfoBlock(s.String())
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}

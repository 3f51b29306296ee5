package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
oauth:
  client_id: app-key
  client_secret: app-secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "https://api.schwabapi.com/v1/oauth/token", cfg.OAuth.TokenURL)
	assert.Equal(t, "authorization_code", cfg.OAuth.GrantType)
	assert.Equal(t, 30, cfg.OAuth.RefreshLeewaySeconds)
	assert.Equal(t, "https://api.schwabapi.com/trader/v1", cfg.API.TraderURL)
	assert.Empty(t, cfg.API.PaperURL)
	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.Equal(t, 120, cfg.API.RateLimitPerMin)
	assert.Equal(t, "DAY", cfg.Trading.DefaultDuration)
	assert.True(t, cfg.Trading.ValidateSchema)
	assert.Equal(t, 500, cfg.MarketData.MaxSymbolsPerRequest)
	assert.False(t, cfg.Journal.Enabled)
}

func TestLoadKeepsExplicitFalse(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
oauth:
  client_id: a
  client_secret: b
trading:
  validate_schema: false
  default_duration: good_till_cancel
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Trading.ValidateSchema)
	assert.Equal(t, "GOOD_TILL_CANCEL", cfg.Trading.DefaultDuration)
}

func TestLoadFollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "secrets.yaml", `
oauth:
  client_id: from-include
  client_secret: s
`)
	path := writeFile(t, dir, "config.yaml", `
include:
  - secrets.yaml
api:
  paper_url: https://paper.example.com/trader/v1/
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-include", cfg.OAuth.ClientID)
	assert.Equal(t, "https://paper.example.com/trader/v1", cfg.API.PaperURL)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
oauth:
  client_id: file-id
  client_secret: file-secret
`)
	t.Setenv("SCHWAB_OAUTH_CLIENT_SECRET", "env-secret")
	t.Setenv("SCHWAB_OAUTH_REFRESH_TOKEN", "seed-refresh")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-id", cfg.OAuth.ClientID)
	assert.Equal(t, "env-secret", cfg.OAuth.ClientSecret)
	assert.Equal(t, "seed-refresh", cfg.OAuth.RefreshToken)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"missing client id":  func(c *Config) { c.OAuth.ClientID = "" },
		"bad grant":          func(c *Config) { c.OAuth.GrantType = "password" },
		"relative token url": func(c *Config) { c.OAuth.TokenURL = "/oauth/token" },
		"bad paper url":      func(c *Config) { c.API.PaperURL = "paper" },
		"zero timeout":       func(c *Config) { c.API.TimeoutSeconds = 0 },
		"journal no path":    func(c *Config) { c.Journal = JournalConfig{Enabled: true} },
		"header with space":  func(c *Config) { c.Trading.IdempotencyHeader = "Idem Key" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.OAuth.ClientID = "id"
			cfg.OAuth.ClientSecret = "secret"
			require.NoError(t, cfg.Validate())
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "include: [b.yaml]\n")
	writeFile(t, dir, "b.yaml", "include: [a.yaml]\n")
	_, err := Load(filepath.Join(dir, "a.yaml"))
	assert.ErrorContains(t, err, "include cycle")
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.OAuth.ClientID = "visible-id"
	cfg.OAuth.ClientSecret = "very-secret"
	cfg.OAuth.RefreshToken = "refresh-me"

	out, err := cfg.Redacted()
	require.NoError(t, err)
	assert.Contains(t, out, "visible-id")
	assert.NotContains(t, out, "very-secret")
	assert.NotContains(t, out, "refresh-me")
	assert.Equal(t, "very-secret", cfg.OAuth.ClientSecret)
}

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const redactedValue = "***"

// Redacted renders the config as YAML with secrets masked.
func (c *Config) Redacted() (string, error) {
	if c == nil {
		return "", fmt.Errorf("config is nil")
	}
	cp := *c
	cp.OAuth.ClientSecret = mask(cp.OAuth.ClientSecret)
	cp.OAuth.RefreshToken = mask(cp.OAuth.RefreshToken)
	out, err := yaml.Marshal(&cp)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return redactedValue
}

package config

import (
	"fmt"
	"strings"

	"schwab/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChangeFunc receives the freshly decoded config after the file changes.
type ChangeFunc func(*Config)

// Watch re-reads path whenever it changes on disk and hands the result to fn.
// Only the top-level file is watched; included files are re-read with it.
// Reloads that fail to parse or validate are logged and skipped.
func Watch(path string, fn ChangeFunc) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config watch requires path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := Load(path)
		if err != nil {
			logger.Errorf("config reload failed: %v", err)
			return
		}
		logger.Infof("config reloaded from %s", evt.Name)
		if fn != nil {
			fn(cfg)
		}
	})
	v.WatchConfig()
	return nil
}

// ApplyLogging pushes the app section into the logger package.
func ApplyLogging(app AppConfig) {
	logger.SetFormat(app.LogFormat)
	logger.SetLevel(app.LogLevel)
}

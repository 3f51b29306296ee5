package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const envPrefix = "SCHWAB"

// envKeys are bound explicitly so they override the file even when the file
// never mentions them.
var envKeys = []string{
	"app.log_level",
	"oauth.client_id",
	"oauth.client_secret",
	"oauth.redirect_uri",
	"oauth.refresh_token",
	"oauth.grant_type",
	"api.paper_url",
	"journal.path",
}

// Load reads the YAML file at path (following include: lists), applies
// SCHWAB_* environment overrides and defaults, then validates the result.
func Load(path string) (*Config, error) {
	files, err := resolveConfigIncludes(path)
	if err != nil {
		return nil, err
	}
	v := newViper()
	for _, file := range files {
		if err := mergeConfigFile(v, file); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration built from defaults and the environment
// only. It is not validated; callers fill in credentials and call Validate.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		cfg = &Config{}
		cfg.applyDefaults(nil)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	setKeys := make(keySet)
	markSetKeys("", v.AllSettings(), setKeys)
	cfg.applyDefaults(setKeys)
	return &cfg, nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	part, err := readYAML(path)
	if err != nil {
		return err
	}
	return v.MergeConfigMap(part.AllSettings())
}

func readYAML(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

// includeWalker orders config files depth-first so that every include is
// merged before the file that names it.
type includeWalker struct {
	done    map[string]bool
	active  map[string]bool
	ordered []string
}

func resolveConfigIncludes(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &includeWalker{done: map[string]bool{}, active: map[string]bool{}}
	if err := w.visit(root); err != nil {
		return nil, err
	}
	return w.ordered, nil
}

func (w *includeWalker) visit(path string) error {
	path = filepath.Clean(path)
	switch {
	case w.active[path]:
		return fmt.Errorf("include cycle detected: %s", path)
	case w.done[path]:
		return nil
	}
	w.active[path] = true
	defer delete(w.active, path)

	includes, err := includesOf(path)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(filepath.Dir(path), inc)
		}
		if err := w.visit(inc); err != nil {
			return err
		}
	}
	w.done[path] = true
	w.ordered = append(w.ordered, path)
	return nil
}

func includesOf(path string) ([]string, error) {
	v, err := readYAML(path)
	if err != nil {
		return nil, err
	}
	raw := v.Get("include")
	if raw == nil {
		return nil, nil
	}
	if _, isString := raw.(string); isString {
		return nil, fmt.Errorf("include must be a list of paths")
	}
	items, err := cast.ToStringSliceE(raw)
	if err != nil {
		return nil, fmt.Errorf("include must be a list of paths: %w", err)
	}
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

// markSetKeys records every leaf key present in the merged settings so
// defaults never overwrite a value the user wrote explicitly, zero or not.
func markSetKeys(prefix string, node any, dest keySet) {
	switch node.(type) {
	case map[string]any, map[any]any:
		for k, child := range cast.ToStringMap(node) {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			if prefix != "" {
				k = prefix + "." + k
			}
			markSetKeys(k, child, dest)
		}
	default:
		if prefix != "" {
			dest.mark(prefix)
		}
	}
}

// Package config loads the service configuration from a YAML or JSON file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/classboard/classboard/auth"
	"github.com/classboard/classboard/core/metrics"
	"github.com/classboard/classboard/infra/mqtt"
	"github.com/classboard/classboard/infra/weather"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
	// PromPort exposes the Prometheus endpoint on a separate listener when
	// non-zero.
	PromPort int `json:"prom_port"`
}

// DataConfig locates the persistent state.
type DataConfig struct {
	// Dir is the root of the per-class configuration tree.
	Dir string `json:"dir"`
	// RulesDB is the SQLite database holding the autorun rules.
	RulesDB string `json:"rules_db"`
}

// NotifierConfig enables the MQTT push channel alongside the websocket hub.
type NotifierConfig struct {
	Enabled bool        `json:"enabled"`
	MQTT    mqtt.Config `json:"mqtt"`
}

type Config struct {
	Server   ServerConfig   `json:"server"`
	Auth     auth.Conf      `json:"auth"`
	Data     DataConfig     `json:"data"`
	Weather  weather.Config `json:"weather"`
	Notifier NotifierConfig `json:"notifier"`
	Metrics  metrics.Config `json:"metrics"`
	Logging  LoggingConfig  `json:"logging"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("CB_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cb_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Data.RulesDB == "" {
		c.Data.RulesDB = filepath.Join(c.Data.Dir, "autorun.db")
	}
	c.Logging.SetDefaults()
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Auth.Token == "" {
		return fmt.Errorf("auth token is required")
	}
	if c.Notifier.Enabled && c.Notifier.MQTT.Broker == "" {
		return fmt.Errorf("notifier enabled without an mqtt broker")
	}
	return c.Logging.Validate()
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/svitlo/core/metrics"
	"github.com/kilianp07/svitlo/infra/mqtt"
	"github.com/kilianp07/svitlo/infra/source"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore, e.g. SVITLO_SOURCE__QUEUE=4.1.
const EnvPrefix = "SVITLO_"

// DefaultTimezone is the zone the published tables are expressed in.
const DefaultTimezone = "Europe/Kyiv"

// Config is the full service configuration, one field per top-level key.
type Config struct {
	Source   source.Config  `json:"source"`
	Poll     PollConfig     `json:"poll"`
	Timezone string         `json:"timezone"`
	Logging  LoggingConfig  `json:"logging"`
	MQTT     mqtt.Config    `json:"mqtt"`
	Metrics  metrics.Config `json:"metrics"`
	HTTP     HTTPConfig     `json:"http"`
}

// Load reads path (YAML or JSON) and applies environment overrides. An
// empty path configures the service from the environment alone.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
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
	}
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
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

// SetDefaults fills every section's optional fields.
func (c *Config) SetDefaults() {
	c.Source.SetDefaults()
	c.Poll.SetDefaults()
	c.Logging.SetDefaults()
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Poll.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

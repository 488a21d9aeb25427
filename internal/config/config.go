package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"parking-slots/internal/parking"
	"parking-slots/internal/pricing"
)

const (
	defaultPort            = "8080"
	defaultServiceName     = "parking-slots"
	defaultOTelEndpoint    = "http://localhost:4318"
	defaultEnvironment     = "development"
	envPrefix              = "PARKING_"
	otelEnvPrefix          = "OTEL_"
	DefaultShutdownSeconds = 10
)

type Config struct {
	Port            string  `koanf:"port"`
	Layout          string  `koanf:"layout"`
	DatabaseURL     string  `koanf:"database_url"`
	BaseRate        float64 `koanf:"base_rate"`
	Environment     string  `koanf:"environment"`
	ShutdownSeconds int     `koanf:"shutdown_seconds"`
	OTelServiceName string  `koanf:"otel_service_name"`
	OTelEndpoint    string  `koanf:"otel_exporter_otlp_endpoint"`
}

// Load reads the optional YAML file at path, then PARKING_* and OTEL_*
// environment variables, which take precedence.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Load(env.Provider(otelEnvPrefix, ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load otel environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.Layout == "" {
		c.Layout = parking.DefaultLayout().String()
	}
	if c.BaseRate <= 0 {
		c.BaseRate = pricing.DefaultBaseRate
	}
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	if c.ShutdownSeconds <= 0 {
		c.ShutdownSeconds = DefaultShutdownSeconds
	}
	if c.OTelServiceName == "" {
		c.OTelServiceName = defaultServiceName
	}
	if c.OTelEndpoint == "" {
		c.OTelEndpoint = defaultOTelEndpoint
	}
}

func (c *Config) Validate() error {
	if _, err := c.ParsedLayout(); err != nil {
		return fmt.Errorf("config layout: %w", err)
	}
	return nil
}

func (c *Config) ParsedLayout() (parking.Layout, error) {
	return parking.ParseLayout(c.Layout)
}

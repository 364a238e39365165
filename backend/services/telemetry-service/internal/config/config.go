package config

import (
	"fmt"
	"strings"

	libconfig "ueicloud/backend/libs/config"
	libdb "ueicloud/backend/libs/db"
)

const defaultHTTPPort = "8000"

// Config defines telemetry service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"TELEMETRY_HTTP_PORT" default:"8000"`
	} `yaml:"http"`
	Database struct {
		Host     string `yaml:"host" env:"DB_HOST" default:"postgres"`
		Port     int    `yaml:"port" env:"DB_PORT" default:"5432"`
		Name     string `yaml:"name" env:"DB_NAME" default:"uei"`
		User     string `yaml:"user" env:"DB_USER" default:"uei"`
		Password string `yaml:"password" env:"DB_PASS" default:"uei_password"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"TELEMETRY_REDIS_ADDR"`
		Password string `yaml:"password" env:"TELEMETRY_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"TELEMETRY_REDIS_DB"`
		Channel  string `yaml:"channel" env:"TELEMETRY_REDIS_CHANNEL" default:"telemetry.ingested"`
	} `yaml:"redis"`
	Metrics struct {
		Enabled bool `yaml:"enabled" env:"TELEMETRY_METRICS_ENABLED" default:"true"`
	} `yaml:"metrics"`
}

// Load configuration using shared helper.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if err := cfg.DBParams().Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.RedisEnabled() && strings.TrimSpace(cfg.Redis.Channel) == "" {
		return nil, fmt.Errorf("config: redis channel required when redis addr is set")
	}
	return cfg, nil
}

// DBParams returns the connection options handed to the persistence layer.
func (c *Config) DBParams() libdb.ConnParams {
	return libdb.ConnParams{
		Host:     strings.TrimSpace(c.Database.Host),
		Port:     c.Database.Port,
		Database: strings.TrimSpace(c.Database.Name),
		User:     strings.TrimSpace(c.Database.User),
		Password: c.Database.Password,
	}
}

// RedisEnabled reports whether ingest notifications should be published.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = defaultHTTPPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tejusbharadwaj/meterlens/internal/timezone"
)

// EnvPrefix prefixes environment variables that override file settings,
// e.g. METERLENS_SERVER_HTTP_PORT.
const EnvPrefix = "METERLENS"

// Config holds all configuration for our application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Source     SourceConfig     `mapstructure:"source"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
	Display    DisplayConfig    `mapstructure:"display"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	GRPCPort         int      `mapstructure:"grpc_port"`
	HTTPPort         int      `mapstructure:"http_port"`
	Host             string   `mapstructure:"host"`
	MaxDocumentBytes int      `mapstructure:"max_document_bytes"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
}

// SourceConfig points at the document reloaded on Schedule. An empty
// Location disables loading.
type SourceConfig struct {
	Location    string        `mapstructure:"location"`
	CountryHint string        `mapstructure:"country_hint"`
	Schedule    string        `mapstructure:"schedule"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type MiddlewareConfig struct {
	CacheSize      int     `mapstructure:"cache_size"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type DisplayConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. $VARS in the
// file are expanded first; METERLENS_* variables then override any key.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Round-trip through a map so syntax errors surface before expansion
	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
	}
	data, err = yaml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw config: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadConfig(bytes.NewReader([]byte(expandedData))); err != nil {
		return nil, fmt.Errorf("failed to read expanded config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if !validPort(c.Server.GRPCPort) {
		errs = append(errs, fmt.Errorf("invalid server.grpc_port: %d", c.Server.GRPCPort))
	}
	if !validPort(c.Server.HTTPPort) {
		errs = append(errs, fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort))
	}
	if c.Server.MaxDocumentBytes <= 0 {
		errs = append(errs, fmt.Errorf("invalid server.max_document_bytes: %d", c.Server.MaxDocumentBytes))
	}
	if c.Middleware.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid middleware.cache_size: %d", c.Middleware.CacheSize))
	}
	if c.Middleware.RateLimit <= 0 || c.Middleware.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("middleware.rate_limit and rate_limit_burst must be positive"))
	}
	if !timezone.Known(c.Display.Timezone) {
		errs = append(errs, fmt.Errorf("unknown display.timezone: %s", c.Display.Timezone))
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid logging.level: %w", err))
	}
	return errors.Join(errs...)
}

func validPort(p int) bool {
	return p > 0 && p < 65536
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.max_document_bytes", 10<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("source.location", "")
	v.SetDefault("source.country_hint", "")
	v.SetDefault("source.schedule", "*/5 * * * *")
	v.SetDefault("source.timeout", "30s")

	v.SetDefault("middleware.cache_size", 1000)
	v.SetDefault("middleware.rate_limit", 5.0)
	v.SetDefault("middleware.rate_limit_burst", 10)

	v.SetDefault("display.timezone", timezone.Default)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

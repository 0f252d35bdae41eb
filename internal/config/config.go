package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Source drivers accepted by source.driver.
const (
	DriverExcel    = "excel"
	DriverPostgres = "postgres"
)

// Config holds the entire application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Source SourceConfig `mapstructure:"source" yaml:"source"`
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
}

// ServerConfig tunes the HTTP transport layer.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	APIPrefix       string        `mapstructure:"api_prefix" yaml:"api_prefix"`
	APIKey          string        `mapstructure:"api_key" yaml:"-"`
	RateLimit       float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst" yaml:"rate_burst"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SourceConfig selects and configures the entity-store bootstrap.
type SourceConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"`
	ExcelPath string `mapstructure:"excel_path" yaml:"excel_path"`
	// PostgresURL is only consulted when Driver is "postgres". Usually
	// supplied via CROPSCAN_SOURCE_POSTGRES_URL rather than the config file.
	PostgresURL string `mapstructure:"postgres_url" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Server --
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.api_key", "changeme")
	v.SetDefault("server.rate_limit", 50.0)
	v.SetDefault("server.rate_burst", 100)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// -- Source --
	v.SetDefault("source.driver", DriverExcel)
	v.SetDefault("source.excel_path", "data/source.xlsx")

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "cropscan")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the defaults above; fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Bind environment variables for sensitive data.
	_ = v.BindEnv("server.api_key", "CROPSCAN_SERVER_API_KEY")
	_ = v.BindEnv("source.postgres_url", "CROPSCAN_SOURCE_POSTGRES_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is a required configuration field")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be a positive number")
	}
	if c.Server.RateBurst <= 0 {
		return fmt.Errorf("server.rate_burst must be a positive integer")
	}
	switch c.Source.Driver {
	case DriverExcel:
		if c.Source.ExcelPath == "" {
			return fmt.Errorf("source.excel_path is required when source.driver is %q", DriverExcel)
		}
	case DriverPostgres:
		if c.Source.PostgresURL == "" {
			return fmt.Errorf("source.postgres_url is required when source.driver is %q (set CROPSCAN_SOURCE_POSTGRES_URL)", DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported source.driver: %q", c.Source.Driver)
	}
	return nil
}

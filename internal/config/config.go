package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the baku CLI. Precedence is defaults,
// then config file, then BAKU_* environment variables, then flags merged
// on top.
type Config struct {
	Workers        int               `yaml:"workers"`
	LegacyRanges   bool              `yaml:"legacy_ranges"`
	ConnectTimeout time.Duration     `yaml:"connect_timeout"`
	KATimeout      time.Duration     `yaml:"keepalive_timeout"`
	ProxyURL       string            `yaml:"proxy"`
	ProxyUsername  string            `yaml:"proxy_username"`
	ProxyPassword  string            `yaml:"proxy_password"`
	UserAgent      string            `yaml:"user_agent"`
	Headers        map[string]string `yaml:"headers"`
	Debug          bool              `yaml:"debug"`
	LogFile        string            `yaml:"log_file"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Workers:        runtime.NumCPU(),
		ConnectTimeout: 10 * time.Second,
		KATimeout:      90 * time.Second,
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	Workers        int               `yaml:"workers"`
	LegacyRanges   bool              `yaml:"legacy_ranges"`
	ConnectTimeout string            `yaml:"connect_timeout"`
	KATimeout      string            `yaml:"keepalive_timeout"`
	ProxyURL       string            `yaml:"proxy"`
	ProxyUsername  string            `yaml:"proxy_username"`
	ProxyPassword  string            `yaml:"proxy_password"`
	UserAgent      string            `yaml:"user_agent"`
	Headers        map[string]string `yaml:"headers"`
	Debug          bool              `yaml:"debug"`
	LogFile        string            `yaml:"log_file"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	cfg.LegacyRanges = yc.LegacyRanges
	if yc.ConnectTimeout != "" {
		d, err := time.ParseDuration(yc.ConnectTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if yc.KATimeout != "" {
		d, err := time.ParseDuration(yc.KATimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse keepalive_timeout: %w", err)
		}
		cfg.KATimeout = d
	}
	if yc.ProxyURL != "" {
		cfg.ProxyURL = yc.ProxyURL
	}
	if yc.ProxyUsername != "" {
		cfg.ProxyUsername = yc.ProxyUsername
	}
	if yc.ProxyPassword != "" {
		cfg.ProxyPassword = yc.ProxyPassword
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	if len(yc.Headers) != 0 {
		cfg.Headers = yc.Headers
	}
	cfg.Debug = yc.Debug
	if yc.LogFile != "" {
		cfg.LogFile = yc.LogFile
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the BAKU_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("BAKU_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse BAKU_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("BAKU_LEGACY_RANGES"); v != "" {
		c.LegacyRanges = v == "true" || v == "1"
	}
	if v := os.Getenv("BAKU_CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse BAKU_CONNECT_TIMEOUT: %w", err)
		}
		c.ConnectTimeout = d
	}
	if v := os.Getenv("BAKU_KEEPALIVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse BAKU_KEEPALIVE_TIMEOUT: %w", err)
		}
		c.KATimeout = d
	}
	if v := os.Getenv("BAKU_PROXY"); v != "" {
		c.ProxyURL = v
	}
	if v := os.Getenv("BAKU_PROXY_USERNAME"); v != "" {
		c.ProxyUsername = v
	}
	if v := os.Getenv("BAKU_PROXY_PASSWORD"); v != "" {
		c.ProxyPassword = v
	}
	if v := os.Getenv("BAKU_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("BAKU_DEBUG"); v != "" {
		c.Debug = v == "true" || v == "1"
	}
	if v := os.Getenv("BAKU_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.ConnectTimeout < 0 {
		return errors.New("config: connect_timeout must not be negative")
	}
	if c.KATimeout < 0 {
		return errors.New("config: keepalive_timeout must not be negative")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.LegacyRanges {
		c.LegacyRanges = override.LegacyRanges
	}
	if override.ConnectTimeout != 0 {
		c.ConnectTimeout = override.ConnectTimeout
	}
	if override.KATimeout != 0 {
		c.KATimeout = override.KATimeout
	}
	if override.ProxyURL != "" {
		c.ProxyURL = override.ProxyURL
	}
	if override.ProxyUsername != "" {
		c.ProxyUsername = override.ProxyUsername
	}
	if override.ProxyPassword != "" {
		c.ProxyPassword = override.ProxyPassword
	}
	if override.UserAgent != "" {
		c.UserAgent = override.UserAgent
	}
	if len(override.Headers) != 0 {
		merged := make(map[string]string, len(c.Headers)+len(override.Headers))
		for k, v := range c.Headers {
			merged[k] = v
		}
		for k, v := range override.Headers {
			merged[k] = v
		}
		c.Headers = merged
	}
	if override.Debug {
		c.Debug = override.Debug
	}
	if override.LogFile != "" {
		c.LogFile = override.LogFile
	}
	return c
}

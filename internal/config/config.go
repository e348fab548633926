package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	SES      SESConfig      `yaml:"ses"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// SESConfig holds the SES signing credentials and endpoint settings.
// The access key and secret feed the request signer directly; they are
// required for the process to start.
type SESConfig struct {
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"` // override for testing; empty means the regional default
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the optional Redis connection for the dispatch lock.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DispatchConfig holds orchestrator tuning.
type DispatchConfig struct {
	// DelayMillis is the pause inserted after every send, success or
	// failure, to stay under provider rate limits.
	DelayMillis int `yaml:"delay_millis"`
	// LockTTLSeconds bounds how long a campaign dispatch lock is held.
	LockTTLSeconds int `yaml:"lock_ttl_seconds"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Delay returns the inter-message pacing delay as a duration.
func (d DispatchConfig) Delay() time.Duration {
	return time.Duration(d.DelayMillis) * time.Millisecond
}

// LockTTL returns the dispatch lock TTL as a duration.
func (d DispatchConfig) LockTTL() time.Duration {
	return time.Duration(d.LockTTLSeconds) * time.Second
}

// Load reads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML config (if path is non-empty and the file
// exists) and then applies environment variable overrides. A .env file
// in the working directory is honored.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("AWS_SES_ENDPOINT"); v != "" {
		cfg.SES.Endpoint = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("DISPATCH_DELAY_MILLIS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Dispatch.DelayMillis = ms
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.SES.Region == "" {
		c.SES.Region = "us-east-1"
	}
	if c.SES.TimeoutSeconds == 0 {
		c.SES.TimeoutSeconds = 30
	}
	if c.Dispatch.DelayMillis == 0 {
		c.Dispatch.DelayMillis = 100
	}
	if c.Dispatch.LockTTLSeconds == 0 {
		c.Dispatch.LockTTLSeconds = 900
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
}

// Validate checks the preconditions without which no dispatch job may
// start. Missing SES credentials are a fatal configuration error.
func (c *Config) Validate() error {
	if c.SES.AccessKey == "" {
		return fmt.Errorf("ses access key is required (AWS_SES_ACCESS_KEY)")
	}
	if c.SES.SecretKey == "" {
		return fmt.Errorf("ses secret key is required (AWS_SES_SECRET_KEY)")
	}
	if c.SES.Region == "" {
		return fmt.Errorf("ses region is required (AWS_SES_REGION)")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (DATABASE_URL)")
	}
	return nil
}

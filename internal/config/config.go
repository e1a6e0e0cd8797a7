// Package config provides Viper-based hierarchical configuration management
// for the parsing pipeline: defaults, an optional config.yaml, and
// HISHAB_-prefixed environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	AI struct {
		Enabled         bool    `mapstructure:"enabled" yaml:"enabled"`
		Model           string  `mapstructure:"model" yaml:"model"`
		TimeoutSeconds  int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
		MaxOutputTokens int     `mapstructure:"max_output_tokens" yaml:"max_output_tokens"`
		APIKey          string  `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Thresholds struct {
		Review     float64 `mapstructure:"review" yaml:"review"`
		AutoAccept float64 `mapstructure:"auto_accept" yaml:"auto_accept"`
	} `mapstructure:"thresholds" yaml:"thresholds"`

	Cache struct {
		TTLMinutes int `mapstructure:"ttl_minutes" yaml:"ttl_minutes"`
	} `mapstructure:"cache" yaml:"cache"`

	Data struct {
		Database  string `mapstructure:"database" yaml:"database"`
		VocabFile string `mapstructure:"vocab_file" yaml:"vocab_file"`
	} `mapstructure:"data" yaml:"data"`

	Currency struct {
		Default string `mapstructure:"default" yaml:"default"`
	} `mapstructure:"currency" yaml:"currency"`
}

// AITimeout returns the bounded request timeout for AI calls.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long parse results stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// InitializeConfig initializes Viper configuration with hierarchical loading.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.hishab")
	v.AddConfigPath(".hishab")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("HISHAB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. The API key always comes from the conventional unprefixed variable
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// AI defaults
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 20)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_output_tokens", 1024)

	// Confidence thresholds: below review everything needs human review,
	// above auto_accept confirmation is skipped.
	v.SetDefault("thresholds.review", 0.6)
	v.SetDefault("thresholds.auto_accept", 0.8)

	// Cache defaults
	v.SetDefault("cache.ttl_minutes", 15)

	// Data defaults
	v.SetDefault("data.database", "hishab.db")
	v.SetDefault("data.vocab_file", "")

	// BDT is the home-market default when an amount carries no marker.
	v.SetDefault("currency.default", "BDT")
}

// validateConfig validates the configuration values.
func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.AI.Enabled {
		// A missing GEMINI_API_KEY is not an error: the pipeline runs
		// heuristic-only until one is provided.
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}

		if config.AI.Temperature < 0 || config.AI.Temperature > 2 {
			return fmt.Errorf("ai.temperature must be between 0 and 2, got: %f", config.AI.Temperature)
		}
	}

	if config.Thresholds.Review < 0 || config.Thresholds.Review > 1 {
		return fmt.Errorf("thresholds.review must be between 0.0 and 1.0, got: %f", config.Thresholds.Review)
	}

	if config.Thresholds.AutoAccept < 0 || config.Thresholds.AutoAccept > 1 {
		return fmt.Errorf("thresholds.auto_accept must be between 0.0 and 1.0, got: %f", config.Thresholds.AutoAccept)
	}

	if config.Thresholds.Review > config.Thresholds.AutoAccept {
		return fmt.Errorf("thresholds.review (%f) cannot exceed thresholds.auto_accept (%f)",
			config.Thresholds.Review, config.Thresholds.AutoAccept)
	}

	if config.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.ttl_minutes cannot be negative, got: %d", config.Cache.TTLMinutes)
	}

	return nil
}

// ConfigureLoggingFromConfig configures a logrus logger based on the Config.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

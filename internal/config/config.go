package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from the environment
// (MAGUIDA_* prefix) with sane defaults for local development.
type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	// External shop/chatbot backend, e.g. https://maguida.raia.cm
	APIEndpoint string `mapstructure:"api_endpoint"`

	// OpenAI completion settings
	OpenAIKeys        []string `mapstructure:"openai_keys"`
	OpenAIModel       string   `mapstructure:"openai_model"`
	ChatMaxTokens     int      `mapstructure:"chat_max_tokens"`
	DecideMaxTokens   int      `mapstructure:"decide_max_tokens"`
	OpenAITemperature float32  `mapstructure:"openai_temperature"`

	GoogleClientID string `mapstructure:"google_client_id"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	UploadDir     string `mapstructure:"upload_dir"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`

	// Completion context window: last N messages sent to the model.
	ContextWindow int `mapstructure:"context_window"`

	SearchCacheTTL time.Duration `mapstructure:"search_cache_ttl"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MAGUIDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("api_endpoint", "https://maguida.raia.cm")
	v.SetDefault("openai_model", "gpt-4")
	v.SetDefault("chat_max_tokens", 300)
	v.SetDefault("decide_max_tokens", 200)
	v.SetDefault("openai_temperature", 0.7)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("upload_dir", "data/uploads")
	v.SetDefault("max_upload_size", 5*1024*1024)
	v.SetDefault("context_window", 10)
	v.SetDefault("search_cache_ttl", 10*time.Minute)
	v.SetDefault("session_ttl", 7*24*time.Hour)
	v.SetDefault("http_timeout", 30*time.Second)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Keys arrive as a comma-separated list in a single variable.
	if raw := v.GetString("openai_api_keys"); raw != "" {
		cfg.OpenAIKeys = nil
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.OpenAIKeys = append(cfg.OpenAIKeys, k)
			}
		}
	}

	cfg.APIEndpoint = strings.TrimRight(cfg.APIEndpoint, "/")

	return &cfg, nil
}

// Validate checks the settings a running server cannot do without.
func (c *Config) Validate() error {
	if len(c.OpenAIKeys) == 0 {
		return fmt.Errorf("MAGUIDA_OPENAI_API_KEYS is required")
	}
	if c.APIEndpoint == "" {
		return fmt.Errorf("MAGUIDA_API_ENDPOINT is required")
	}
	if c.ContextWindow <= 0 {
		return fmt.Errorf("context window must be positive, got %d", c.ContextWindow)
	}
	return nil
}

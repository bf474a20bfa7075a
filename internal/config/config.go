// Package config loads application configuration with koanf: built-in
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jakubkieblesz1/Amazon-Lazy-Meal-Planner/internal/logging"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

// Config holds the configuration for the application. Immutable after Load.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Gemini   GeminiConfig   `koanf:"gemini"`
	Fitbit   FitbitConfig   `koanf:"fitbit"`
	Telegram TelegramConfig `koanf:"telegram"`
	Log      logging.Config `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SessionConfig holds session token settings.
type SessionConfig struct {
	// Secret signs session tokens. Required.
	Secret string `koanf:"secret"`
	// TTL is how long an issued session stays valid.
	TTL time.Duration `koanf:"ttl"`
}

// GeminiConfig holds generative model settings.
type GeminiConfig struct {
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	VisionModel string        `koanf:"vision_model"`
	Timeout     time.Duration `koanf:"timeout"`
}

// FitbitConfig holds activity data settings.
type FitbitConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// TelegramConfig holds the optional menu notification settings.
// Notifications are disabled when BotToken is empty.
type TelegramConfig struct {
	BotToken string `koanf:"bot_token"`
	ChatID   int64  `koanf:"chat_id"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			Timeout: 90 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/lazymeal.db",
		},
		Session: SessionConfig{
			TTL: time.Hour,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-1.5-pro",
			VisionModel: "gemini-1.5-flash",
			Timeout:     60 * time.Second,
		},
		Fitbit: FitbitConfig{
			BaseURL: "https://api.fitbit.com",
			Timeout: 15 * time.Second,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration with precedence env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// SERVER_PORT -> server.port, GEMINI_API_KEY -> gemini.api_key
	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envTransform maps an environment variable name to a koanf path. Only the
// first underscore becomes a section separator, so GEMINI_API_KEY maps to
// gemini.api_key. Variables outside the known sections are ignored.
func envTransform(name string) string {
	lower := strings.ToLower(name)
	section, rest, found := strings.Cut(lower, "_")
	if !found || rest == "" {
		return ""
	}
	switch section {
	case "server", "database", "session", "gemini", "fitbit", "telegram", "log":
		return section + "." + rest
	}
	return ""
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable not set")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range defaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

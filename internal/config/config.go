package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"
	DefaultOpenMeteoURL  = "https://api.open-meteo.com/v1/forecast"
	DefaultImageBaseURL  = "https://source.unsplash.com/900x600/"
	DefaultModel         = "openrouter/auto"

	MinOutboundTimeout = 20 * time.Second
	MaxOutboundTimeout = 45 * time.Second
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig    `mapstructure:"basic_config"`
	Provider    ProviderConfig `mapstructure:"provider"`
	Store       StoreConfig    `mapstructure:"store"`
	Weather     WeatherConfig  `mapstructure:"weather"`
	Images      ImageConfig    `mapstructure:"images"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

type BasicConfig struct {
	ServerAddress string   `mapstructure:"server_address"`
	FrontendURL   string   `mapstructure:"frontend_url"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
}

// ProviderConfig selects the chat-completion backend. Kind is "openrouter"
// for the plain HTTP client or one of the eino providers (openai, claude, gemini).
type ProviderConfig struct {
	Kind    string        `mapstructure:"kind"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig describes the trip store. An empty DSN disables it.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type WeatherConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ImageConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Enabled reports whether a trip store has been configured.
func (s StoreConfig) Enabled() bool {
	return strings.TrimSpace(s.DSN) != ""
}

var envBindings = map[string]string{
	"basic_config.server_address": "SERVER_ADDRESS",
	"basic_config.frontend_url":   "FRONTEND_URL",
	"basic_config.cors_origins":   "CORS_ORIGINS",
	"provider.kind":               "LLM_PROVIDER",
	"provider.base_url":           "OPENROUTER_URL",
	"provider.model":              "OPENROUTER_MODEL",
	"provider.api_key":            "OPENROUTER_API_KEY",
	"provider.timeout":            "LLM_TIMEOUT",
	"store.driver":                "TRIP_STORE_DRIVER",
	"store.dsn":                   "TRIP_STORE_DSN",
	"weather.base_url":            "OPEN_METEO_URL",
	"weather.timeout":             "WEATHER_TIMEOUT",
	"images.base_url":             "IMAGE_BASE_URL",
	"logging.level":               "LOG_LEVEL",
	"logging.format":              "LOG_FORMAT",
}

// Load reads configuration from the environment (and .env), optionally
// layered over a config file at path.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var absPath string
	if path != "" {
		var err error
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		v.SetConfigFile(absPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", absPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize(absPath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("basic_config.server_address", ":8000")
	v.SetDefault("provider.kind", "openrouter")
	v.SetDefault("provider.base_url", DefaultOpenRouterURL)
	v.SetDefault("provider.model", DefaultModel)
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("store.driver", "sqlite3")
	v.SetDefault("weather.base_url", DefaultOpenMeteoURL)
	v.SetDefault("weather.timeout", MinOutboundTimeout)
	v.SetDefault("images.base_url", DefaultImageBaseURL)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func loadEnvFile(name string) error {
	if _, err := os.Stat(name); err != nil {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

func (c *Config) normalize(configPath string) {
	c.Provider.Kind = strings.ToLower(strings.TrimSpace(c.Provider.Kind))
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	c.Provider.Timeout = ClampTimeout(c.Provider.Timeout)
	c.Weather.Timeout = ClampTimeout(c.Weather.Timeout)
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "postgresql" {
		c.Store.Driver = "postgres"
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)

	origins := make([]string, 0, len(c.BasicConfig.CORSOrigins))
	for _, o := range c.BasicConfig.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.BasicConfig.CORSOrigins = origins

	// sqlite paths in a config file are relative to that file
	if configPath != "" && isSQLite(c.Store.Driver) && c.Store.DSN != "" &&
		c.Store.DSN != ":memory:" && !strings.HasPrefix(c.Store.DSN, "file:") &&
		!filepath.IsAbs(c.Store.DSN) {
		c.Store.DSN = filepath.Join(filepath.Dir(configPath), c.Store.DSN)
	}
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return errors.New("OPENROUTER_API_KEY must be configured")
	}
	switch c.Provider.Kind {
	case "openrouter", "openai", "claude", "gemini":
	default:
		return fmt.Errorf("unsupported llm provider: %s", c.Provider.Kind)
	}
	if c.Store.Enabled() {
		switch c.Store.Driver {
		case "sqlite", "sqlite3", "mysql", "postgres", "redis":
		default:
			return fmt.Errorf("unsupported trip store driver: %s", c.Store.Driver)
		}
	}
	return nil
}

// ClampTimeout keeps outbound call budgets inside the supported window.
func ClampTimeout(d time.Duration) time.Duration {
	if d < MinOutboundTimeout {
		return MinOutboundTimeout
	}
	if d > MaxOutboundTimeout {
		return MaxOutboundTimeout
	}
	return d
}

func isSQLite(driver string) bool {
	return driver == "sqlite" || driver == "sqlite3"
}

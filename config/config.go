package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds the database connection information.
type DatabaseConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
}

// AuthConfig holds token and cookie settings.
type AuthConfig struct {
	Secret       string        `yaml:"secret"`
	Issuer       string        `yaml:"issuer"`
	Audience     string        `yaml:"audience"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieName   string        `yaml:"cookie_name"`
	CookieDomain string        `yaml:"cookie_domain"`
}

// OpenRouterConfig holds settings for the AI completion endpoint.
type OpenRouterConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	SiteURL     string        `yaml:"site_url"`
	SiteName    string        `yaml:"site_name"`
}

// RedisConfig configures the token denylist. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// HTTPConfig holds server settings.
type HTTPConfig struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig sizes the in-process cache of verified generation sessions.
type CacheConfig struct {
	SessionKeys int64 `yaml:"session_keys"`
}

// Config is the full application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Redis      RedisConfig      `yaml:"redis"`
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Debug      bool             `yaml:"debug"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "flashcards.db",
		},
		Auth: AuthConfig{
			Issuer:     "flashcards-ai",
			Audience:   "flashcards-ai-api",
			TokenTTL:   24 * time.Hour,
			CookieName: "auth_token",
		},
		OpenRouter: OpenRouterConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   2048,
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
			RetryDelay:  time.Second,
		},
		HTTP: HTTPConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:4321"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			SessionKeys: 10000,
		},
	}
}

// LoadConfig reads the optional YAML file at path, then applies environment overrides.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envString("DB_TYPE", &cfg.Database.Type)
	envString("DB_URL", &cfg.Database.DSN)

	envString("JWT_SECRET_KEY", &cfg.Auth.Secret)
	envString("JWT_ISSUER", &cfg.Auth.Issuer)
	envString("JWT_AUDIENCE", &cfg.Auth.Audience)
	envDuration("JWT_TTL", &cfg.Auth.TokenTTL)
	envString("COOKIE_NAME", &cfg.Auth.CookieName)
	envString("COOKIE_DOMAIN", &cfg.Auth.CookieDomain)

	envString("OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey)
	envString("OPENROUTER_BASE_URL", &cfg.OpenRouter.BaseURL)
	envString("OPENROUTER_MODEL", &cfg.OpenRouter.Model)
	envFloat("OPENROUTER_TEMPERATURE", &cfg.OpenRouter.Temperature)
	envInt("OPENROUTER_MAX_TOKENS", &cfg.OpenRouter.MaxTokens)
	envDuration("OPENROUTER_TIMEOUT", &cfg.OpenRouter.Timeout)
	envInt("OPENROUTER_MAX_ATTEMPTS", &cfg.OpenRouter.MaxAttempts)
	envDuration("OPENROUTER_RETRY_DELAY", &cfg.OpenRouter.RetryDelay)
	envString("OPENROUTER_SITE_URL", &cfg.OpenRouter.SiteURL)
	envString("OPENROUTER_SITE_NAME", &cfg.OpenRouter.SiteName)

	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	envInt("REDIS_DB", &cfg.Redis.DB)

	envString("PORT", &cfg.HTTP.Port)
	envList("CORS_ALLOWED_ORIGINS", &cfg.HTTP.AllowedOrigins)
	envDuration("HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	envDuration("HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)
	envDuration("HTTP_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout)

	envInt64("SESSION_CACHE_KEYS", &cfg.Cache.SessionKeys)

	envBool("DEBUG", &cfg.Debug)
}

// Validate checks settings every command needs.
func (c *Config) Validate() error {
	if c.Database.Type == "" || c.Database.DSN == "" {
		return errors.New("database type and dsn must be configured")
	}
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET_KEY not set")
	}
	if c.Auth.Issuer == "" || c.Auth.Audience == "" {
		return errors.New("token issuer and audience must be configured")
	}
	return nil
}

// Environment returns the cookie environment derived from the auth settings.
func (c *Config) Environment() Environment {
	return NewEnvironment(c.Auth.CookieDomain)
}

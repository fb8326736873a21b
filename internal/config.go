package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Store backends.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Store StoreConfig       `yaml:"store"`
	Media MediaConfig       `yaml:"media"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Media.Validate(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level      `yaml:"log_level"`
	HTTP     HTTPConfig      `yaml:"http"`
	CORS     CORSConfig      `yaml:"cors"`
	Rate     RateLimitConfig `yaml:"rate_limit"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Rate.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CORSConfig lists browser origins allowed to call the API. Empty
// disables CORS handling.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig throttles the API. Zero RPS disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RPS, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Min(0)),
	)
}

// StoreConfig selects and configures the note store.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	FS      FSConfig     `yaml:"fs"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisConfig  `yaml:"redis"`
}

// Validate validates the store configuration and the selected backend.
func (c *StoreConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendFS, BackendSQLite, BackendRedis, BackendMemory)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case BackendFS:
		return c.FS.Validate()
	case BackendSQLite:
		return c.SQLite.Validate()
	case BackendRedis:
		return c.Redis.Validate()
	}
	return nil
}

// FSConfig holds the directory of the JSON document store.
type FSConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the FS configuration.
func (c *FSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// Validate validates the Redis configuration.
func (c *RedisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required, is.DialString),
		validation.Field(&c.DB, validation.Min(0), validation.Max(15)),
		validation.Field(&c.Key, validation.Required),
	)
}

// MediaConfig holds the blob directory and the public base URL blobs are
// served from.
type MediaConfig struct {
	Path      string `yaml:"path"`
	PublicURL string `yaml:"public_url"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.PublicURL, validation.Required, is.URL),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Backend: BackendFS,
			FS:      FSConfig{Path: "./data/notes"},
			SQLite:  SQLiteConfig{Path: "./data/pocketnotes.db"},
			Redis:   RedisConfig{Addr: "localhost:6379", Key: "pocketnotes:notes"},
		},
		Media: MediaConfig{
			Path:      "./data/media",
			PublicURL: "http://localhost:8080",
		},
	}
}

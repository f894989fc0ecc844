// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	SanityProjectID  string `mapstructure:"SANITY_PROJECT_ID" validate:"required_if=StoreDriver remote"`
	SanityDataset    string `mapstructure:"SANITY_DATASET" validate:"required_if=StoreDriver remote"`
	SanityAPIVersion string `mapstructure:"SANITY_API_VERSION" validate:"required"`
	SanityToken      string `mapstructure:"SANITY_TOKEN"`
	SanityUseCDN     bool   `mapstructure:"SANITY_USE_CDN"`
	SanityBaseURL    string `mapstructure:"SANITY_BASE_URL" validate:"omitempty,url"`

	StoreDriver string `mapstructure:"STORE_DRIVER" validate:"oneof=remote badger"`
	BadgerPath  string `mapstructure:"BADGER_PATH" validate:"required_if=StoreDriver badger"`

	CacheDriver string `mapstructure:"CACHE_DRIVER" validate:"oneof=badger redis"`
	CachePath   string `mapstructure:"CACHE_PATH"`
	RedisURL    string `mapstructure:"REDIS_URL" validate:"required_if=CacheDriver redis"`

	RevalidateSeconds int    `mapstructure:"REVALIDATE_SECONDS" validate:"gt=0"`
	SiteURL           string `mapstructure:"SITE_URL" validate:"required,url"`
	Port              string `mapstructure:"PORT" validate:"required,numeric"`
	Env               string `mapstructure:"APP_ENV" validate:"required"`
	AllowedOrigins    string `mapstructure:"ALLOWED_ORIGINS"`
}

var defaults = map[string]interface{}{
	"SANITY_PROJECT_ID":  "",
	"SANITY_DATASET":     "production",
	"SANITY_API_VERSION": "2021-10-21",
	"SANITY_TOKEN":       "",
	"SANITY_USE_CDN":     true,
	"SANITY_BASE_URL":    "",
	"STORE_DRIVER":       "remote",
	"BADGER_PATH":        "data/badger",
	"CACHE_DRIVER":       "badger",
	"CACHE_PATH":         "",
	"REDIS_URL":          "localhost:6379",
	"REVALIDATE_SECONDS": 60,
	"SITE_URL":           "http://localhost:3000",
	"PORT":               "3000",
	"APP_ENV":            "development",
	"ALLOWED_ORIGINS":    "",
}

// Load reads dir/.env into the environment, then dir/config.yml when present,
// and lets environment variables override both. Overrides run before the
// result is validated.
func Load(dir string, overrides ...func(*Config)) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.StoreDriver = strings.ToLower(strings.TrimSpace(config.StoreDriver))
	config.CacheDriver = strings.ToLower(strings.TrimSpace(config.CacheDriver))
	for _, override := range overrides {
		override(&config)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// LocalStore forces the badger store driver, for commands that only manage
// the local store.
func LocalStore(c *Config) {
	c.StoreDriver = "badger"
}

// Validate checks required values and driver names.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// Revalidate is the age after which a cached post page is regenerated.
func (c *Config) Revalidate() time.Duration {
	return time.Duration(c.RevalidateSeconds) * time.Second
}

// Origins returns the comma separated ALLOWED_ORIGINS as a list.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

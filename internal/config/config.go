// Package config loads server configuration from defaults, an optional YAML
// file and RECIPE_* environment variables.
package config

import (
	"strings"
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Storage  StorageConfig  `koanf:"storage"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// TokenRateLimit is the number of token requests allowed per IP per
	// minute. Zero disables the limit.
	TokenRateLimit int `koanf:"token_rate_limit" validate:"gte=0"`
}

// DatabaseConfig points at the SQLite database file.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret" validate:"required,min=16"`
	Issuer    string        `koanf:"issuer" validate:"required"`
	TokenTTL  time.Duration `koanf:"token_ttl" validate:"gt=0"`
}

// Storage backends for uploaded images.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// StorageConfig selects where uploaded images live. MediaURL prefixes local
// image paths; S3PublicURL replaces it for the s3 backend, since the API does
// not serve bucket objects itself.
type StorageConfig struct {
	Backend           string `koanf:"backend" validate:"oneof=local s3"`
	MediaRoot         string `koanf:"media_root" validate:"required_if=Backend local"`
	MediaURL          string `koanf:"media_url" validate:"required"`
	S3Bucket          string `koanf:"s3_bucket" validate:"required_if=Backend s3"`
	S3PublicURL       string `koanf:"s3_public_url" validate:"required_if=Backend s3"`
	S3Region          string `koanf:"s3_region"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
}

// PublicURL returns the prefix clients use to fetch stored images, always
// ending in a slash.
func (c StorageConfig) PublicURL() string {
	base := c.MediaURL
	if c.Backend == StorageS3 {
		base = c.S3PublicURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			TokenRateLimit:  20,
		},
		Database: DatabaseConfig{
			Path: "./data/recipes.db",
		},
		Auth: AuthConfig{
			Issuer:   "recipes",
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:   StorageLocal,
			MediaRoot: "./data/media",
			MediaURL:  "/media/",
			S3Region:  "us-east-1",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

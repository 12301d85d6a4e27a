package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DevSessionSecret = "dev-session-secret-change-me"
	DevJWTSecret     = "dev-jwt-secret-change-me"
)

// ErrMissingDatabaseURL is returned when no persistence connection string is configured.
var ErrMissingDatabaseURL = errors.New("config: DATABASE_URL (or MONGODB_URI) is required")

// Config holds every option recognised by the service.
type Config struct {
	DatabaseURL  string
	DatabaseName string
	AppPort      string

	SessionSecret string
	SessionTTL    time.Duration
	JWTSecret     string
	TokenTTL      time.Duration

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string

	BlobDriver          string
	UploadDir           string
	PublicBaseURL       string
	BlobBucket          string
	BlobCredentialsFile string
	MaxUploadBytes      int64

	RabbitMQURL   string
	RedisAddr     string
	RedisPassword string
	LogLevel      string
	SeedFile      string
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("DATABASE_NAME", "boutique")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("SESSION_SECRET", DevSessionSecret)
	v.SetDefault("SESSION_TTL", 2*time.Hour)
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin")
	v.SetDefault("BLOB_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("PUBLIC_BASE_URL", "/uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", 5<<20)
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if dbURL == "" {
		dbURL = strings.TrimSpace(v.GetString("MONGODB_URI"))
	}
	if dbURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	cfg := &Config{
		DatabaseURL:         dbURL,
		DatabaseName:        v.GetString("DATABASE_NAME"),
		AppPort:             normalizePort(v.GetString("APP_PORT")),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		SessionTTL:          v.GetDuration("SESSION_TTL"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		AdminUsername:       v.GetString("ADMIN_USERNAME"),
		AdminPassword:       v.GetString("ADMIN_PASSWORD"),
		AdminPasswordHash:   v.GetString("ADMIN_PASSWORD_HASH"),
		BlobDriver:          strings.ToLower(v.GetString("BLOB_DRIVER")),
		UploadDir:           v.GetString("UPLOAD_DIR"),
		PublicBaseURL:       strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		BlobBucket:          v.GetString("BLOB_BUCKET"),
		BlobCredentialsFile: v.GetString("BLOB_CREDENTIALS_FILE"),
		MaxUploadBytes:      v.GetInt64("MAX_UPLOAD_BYTES"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		SeedFile:            v.GetString("SEED_FILE"),
	}

	switch cfg.BlobDriver {
	case "local":
	case "gcs":
		if cfg.BlobBucket == "" {
			return nil, errors.New("config: BLOB_BUCKET is required when BLOB_DRIVER=gcs")
		}
	default:
		return nil, fmt.Errorf("config: unsupported BLOB_DRIVER %q", cfg.BlobDriver)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, errors.New("config: MAX_UPLOAD_BYTES must be positive")
	}
	return cfg, nil
}

// UsesDevSecrets reports whether either signing secret is still the built-in default.
func (c *Config) UsesDevSecrets() bool {
	return c.SessionSecret == DevSessionSecret || c.JWTSecret == DevJWTSecret
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

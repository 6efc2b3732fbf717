package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Snapshot  SnapshotConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MongoDBConfig names the one collection the service binds. An empty URI
// selects the in-memory store.
type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// AuthConfig enables bearer-token checks on the API. OIDC wins when both
// an issuer and a secret are set.
type AuthConfig struct {
	OIDCIssuer   string
	OIDCClientID string
	JWTSecret    string
}

func (a AuthConfig) Enabled() bool {
	return a.OIDCIssuer != "" || a.JWTSecret != ""
}

// SnapshotConfig selects where collection exports go: MinIO when an
// endpoint is set, else Dir.
type SnapshotConfig struct {
	Dir           string
	MinIOEndpoint string
	MinIOAccess   string
	MinIOSecret   string
	MinIOUseSSL   bool
	MinIOBucket   string
}

var ErrMissingSetting = errors.New("missing required setting")

// LoadConfig loads configuration from environment variables and, when
// envFile is non-empty and exists, from that .env file first.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "5010")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("MINIO_BUCKET", "mongodriver-snapshots")

	cfg := &Config{
		LogLevel: v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Auth: AuthConfig{
			OIDCIssuer:   v.GetString("AUTH_OIDC_ISSUER"),
			OIDCClientID: v.GetString("AUTH_OIDC_CLIENT_ID"),
			JWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
		},
		Snapshot: SnapshotConfig{
			Dir:           v.GetString("SNAPSHOT_DIR"),
			MinIOEndpoint: v.GetString("MINIO_ENDPOINT"),
			MinIOAccess:   v.GetString("MINIO_ACCESS_KEY"),
			MinIOSecret:   os.Getenv("MINIO_SECRET_KEY"),
			MinIOUseSSL:   v.GetBool("MINIO_USE_SSL"),
			MinIOBucket:   v.GetString("MINIO_BUCKET"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MongoDB.URI != "" {
		if c.MongoDB.Database == "" {
			return fmt.Errorf("%w: MONGODB_DATABASE", ErrMissingSetting)
		}
		if c.MongoDB.Collection == "" {
			return fmt.Errorf("%w: MONGODB_COLLECTION", ErrMissingSetting)
		}
	}
	if c.Auth.OIDCIssuer != "" && c.Auth.OIDCClientID == "" {
		return fmt.Errorf("%w: AUTH_OIDC_CLIENT_ID", ErrMissingSetting)
	}
	if c.RateLimit.Enabled && c.RateLimit.UseRedis && c.Redis.Host == "" {
		return fmt.Errorf("%w: REDIS_HOST (RATE_LIMIT_USE_REDIS is set)", ErrMissingSetting)
	}
	return nil
}

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	BackendMongo = "mongo"
	BackendRedis = "redis"

	ReadProtected = "protected"
	ReadPublic    = "public"
)

// Placeholders applied outside production when a secret is left empty.
const (
	devJWTSecret    = "dev-only-jwt-secret"
	devGoogleID     = "dev-google-client-id"
	devGoogleSecret = "dev-google-client-secret"
	devMongoURI     = "mongodb://localhost:27017"
	devRedisHost    = "localhost"
)

type Config struct {
	Port      string `env:"PORT,       default=3000"`
	Env       string `env:"ENV,        default=development"`
	APIPrefix string `env:"API_PREFIX, default=/api/v1"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`

	CORSOrigins     []string `env:"CORS_ORIGINS"`
	StoreBackend    string   `env:"STORE_BACKEND,     default=mongo"`
	ReadAccess      string   `env:"READ_ACCESS,       default=protected"`
	PublicRateLimit float64  `env:"PUBLIC_RATE_LIMIT, default=20"`

	JWTSecret string `env:"JWT_SECRET"`

	Google GoogleConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

type MongoConfig struct {
	URI      string `env:"MONGODB_URI"`
	Database string `env:"MONGO_DB, default=fmt-data-fill"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT,     default=6379"`
	Username string `env:"REDIS_USERNAME, default=default"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// PublicReads reports whether read endpoints accept unauthenticated callers.
func (c *Config) PublicReads() bool { return c.ReadAccess == ReadPublic }

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFrom(context.Background(), envconfig.OsLookuper())
}

// LoadFrom resolves configuration from an arbitrary lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize normalises enum values, then either fails on missing production
// settings or fills development placeholders.
func (c *Config) finalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	c.ReadAccess = strings.ToLower(strings.TrimSpace(c.ReadAccess))
	c.APIPrefix = "/" + strings.Trim(c.APIPrefix, "/")

	switch c.StoreBackend {
	case BackendMongo, BackendRedis:
	default:
		return fmt.Errorf("config: STORE_BACKEND must be %q or %q, got %q", BackendMongo, BackendRedis, c.StoreBackend)
	}
	switch c.ReadAccess {
	case ReadProtected, ReadPublic:
	default:
		return fmt.Errorf("config: READ_ACCESS must be %q or %q, got %q", ReadProtected, ReadPublic, c.ReadAccess)
	}
	if c.PublicRateLimit < 0 {
		return fmt.Errorf("config: PUBLIC_RATE_LIMIT must not be negative")
	}

	if c.IsProduction() {
		var missing []string
		require := func(name, value string) {
			if strings.TrimSpace(value) == "" {
				missing = append(missing, name)
			}
		}
		require("GOOGLE_CLIENT_ID", c.Google.ClientID)
		require("GOOGLE_CLIENT_SECRET", c.Google.ClientSecret)
		require("JWT_SECRET", c.JWTSecret)
		if c.StoreBackend == BackendMongo {
			require("MONGODB_URI", c.Mongo.URI)
		} else {
			require("REDIS_HOST", c.Redis.Host)
		}
		if len(missing) > 0 {
			return fmt.Errorf("config: missing required variables: %s", strings.Join(missing, ", "))
		}
		return nil
	}

	fill := func(dst *string, placeholder string) {
		if *dst == "" {
			*dst = placeholder
		}
	}
	fill(&c.JWTSecret, devJWTSecret)
	fill(&c.Google.ClientID, devGoogleID)
	fill(&c.Google.ClientSecret, devGoogleSecret)
	fill(&c.Mongo.URI, devMongoURI)
	fill(&c.Redis.Host, devRedisHost)
	return nil
}

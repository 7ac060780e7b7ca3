package config

import (
	"context"
	"strings"
	"testing"

	"github.com/sethvargo/go-envconfig"
)

func load(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()
	return LoadFrom(context.Background(), envconfig.MapLookuper(env))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("expected port 3000, got %q", cfg.Port)
	}
	if cfg.APIPrefix != "/api/v1" {
		t.Errorf("expected prefix /api/v1, got %q", cfg.APIPrefix)
	}
	if cfg.StoreBackend != BackendMongo {
		t.Errorf("expected mongo backend, got %q", cfg.StoreBackend)
	}
	if cfg.PublicReads() {
		t.Error("expected reads to be protected by default")
	}
	if cfg.PublicRateLimit != 20 {
		t.Errorf("expected rate limit 20, got %v", cfg.PublicRateLimit)
	}
	if cfg.Mongo.Database != "fmt-data-fill" {
		t.Errorf("expected database fmt-data-fill, got %q", cfg.Mongo.Database)
	}
	if cfg.Redis.Port != 6379 || cfg.Redis.Username != "default" {
		t.Errorf("unexpected redis defaults: %+v", cfg.Redis)
	}
	if cfg.JWTSecret == "" || cfg.Google.ClientID == "" || cfg.Mongo.URI == "" || cfg.Redis.Host == "" {
		t.Errorf("expected development placeholders, got %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"PORT":          "8081",
		"API_PREFIX":    "api/v2/",
		"CORS_ORIGINS":  "http://localhost:5173,https://app.example.com",
		"STORE_BACKEND": "Redis",
		"READ_ACCESS":   "public",
		"REDIS_HOST":    "cache.internal",
		"REDIS_PORT":    "6380",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8081" {
		t.Errorf("expected port 8081, got %q", cfg.Port)
	}
	if cfg.APIPrefix != "/api/v2" {
		t.Errorf("expected normalised prefix /api/v2, got %q", cfg.APIPrefix)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://app.example.com" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
	if cfg.StoreBackend != BackendRedis {
		t.Errorf("expected redis backend, got %q", cfg.StoreBackend)
	}
	if !cfg.PublicReads() {
		t.Error("expected public reads")
	}
	if cfg.Redis.Host != "cache.internal" || cfg.Redis.Port != 6380 {
		t.Errorf("unexpected redis config: %+v", cfg.Redis)
	}
}

func TestLoad_RejectsUnknownEnums(t *testing.T) {
	tests := map[string]map[string]string{
		"backend":     {"STORE_BACKEND": "postgres"},
		"read access": {"READ_ACCESS": "sometimes"},
		"rate limit":  {"PUBLIC_RATE_LIMIT": "-1"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := load(t, env); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	_, err := load(t, map[string]string{
		"ENV":              "production",
		"GOOGLE_CLIENT_ID": "id",
	})
	if err == nil {
		t.Fatal("expected error for missing production settings")
	}
	for _, name := range []string{"GOOGLE_CLIENT_SECRET", "JWT_SECRET", "MONGODB_URI"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("expected %s in error, got %q", name, err)
		}
	}
	if strings.Contains(err.Error(), "REDIS_HOST") {
		t.Errorf("redis host should not be required for the mongo backend: %q", err)
	}
}

func TestLoad_ProductionComplete(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"ENV":                  "production",
		"STORE_BACKEND":        "redis",
		"GOOGLE_CLIENT_ID":     "id",
		"GOOGLE_CLIENT_SECRET": "secret",
		"JWT_SECRET":           "jwt",
		"REDIS_HOST":           "cache.internal",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
	if cfg.Mongo.URI != "" {
		t.Errorf("production must not receive placeholders, got mongo uri %q", cfg.Mongo.URI)
	}
}

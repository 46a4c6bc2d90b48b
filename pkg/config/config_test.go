package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "3000" {
		t.Fatalf("expected default port 3000, got %q", cfg.App.Port)
	}
	if cfg.Store.Backend != StoreBackendMemory {
		t.Fatalf("expected memory store backend, got %q", cfg.Store.Backend)
	}
	if cfg.Mongo.Database != "FILMEX_DB" || cfg.Mongo.OrdersCollection != "ordenes" {
		t.Fatalf("unexpected mongo defaults: %+v", cfg.Mongo)
	}
	if cfg.Mongo.Enabled() {
		t.Fatal("expected mirror disabled without a mongo uri")
	}
	if got := cfg.Mirror.Timeout; got != 5*time.Second {
		t.Fatalf("expected mirror timeout 5s, got %v", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_UnknownStoreBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreBackend, "etcd")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), EnvStoreBackend) {
		t.Fatalf("expected store backend error, got %v", err)
	}
}

func TestLoad_SQLBackendBuildsLegacyDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreBackend, "SQL")
	t.Setenv(EnvDBHost, "db.local")
	t.Setenv(EnvDBUser, "filmex")
	t.Setenv(EnvDBName, "filmex")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Store.Backend != StoreBackendSQL {
		t.Fatalf("expected normalized backend, got %q", cfg.Store.Backend)
	}
	want := "postgres://filmex@db.local:5432/filmex?sslmode=disable"
	if cfg.DB.DSN != want {
		t.Fatalf("expected dsn %q, got %q", want, cfg.DB.DSN)
	}
}

func TestLoad_SQLBackendRequiresDSN(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreBackend, StoreBackendSQL)
	t.Setenv(EnvDBDriver, DBDriverSQLite)

	if _, err := Load(); err == nil {
		t.Fatal("expected sqlite without dsn to fail")
	}
}

func TestLoad_RedisBackendRequiresAddress(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStoreBackend, StoreBackendRedis)

	if _, err := Load(); err == nil {
		t.Fatal("expected redis backend without address to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	if _, err := Load(); err != nil {
		t.Fatalf("expected redis backend to load, got %v", err)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvJWTSecret, "secret")
	for _, key := range []string{EnvStoreBackend, EnvRedisURL, EnvRedisAddr, EnvDBDSN, EnvDBDriver, EnvMongoURI, EnvDBHost, EnvDBUser, EnvDBName} {
		unsetEnv(t, key)
	}
}

// unsetEnv clears key for the test and restores it afterwards. envconfig
// treats an empty but present variable as set, which would bypass defaults.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

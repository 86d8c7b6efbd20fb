package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-manager/internal/config"
)

var allVars = []string{
	"PORT", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS", "MAX_BODY_BYTES",
	"DOCSTORE_DRIVER", "MONGODB_URI", "MONGODB_DATABASE",
	"SURREALDB_URL", "SURREALDB_NS", "SURREALDB_DB", "SURREALDB_USER", "SURREALDB_PASS",
	"DATABASE_URL", "DATA_FILE", "PROBE_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

// TestLoad_defaults verifies that every variable falls back to its default
// when nothing is set: the mongo driver needs no required variable.
func TestLoad_defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	require.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	require.Equal(t, config.DriverMongo, cfg.Driver)
	require.Equal(t, "mongodb://localhost:27017/family-trip-manager", cfg.MongoURI)
	require.Equal(t, "family-trip-manager", cfg.MongoDatabase)
	require.Equal(t, "./db.json", cfg.DataFile)
	require.Equal(t, 2*time.Second, cfg.ProbeTimeout)
}

// TestLoad_overrides verifies that all values can be overridden via env vars.
func TestLoad_overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("MAX_BODY_BYTES", "2048")
	t.Setenv("DOCSTORE_DRIVER", "surrealdb")
	t.Setenv("SURREALDB_URL", "ws://surreal:8000/rpc")
	t.Setenv("SURREALDB_USER", "root")
	t.Setenv("SURREALDB_PASS", "secret")
	t.Setenv("DATA_FILE", "/var/lib/trips/db.json")
	t.Setenv("PROBE_TIMEOUT", "500ms")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	require.Equal(t, int64(2048), cfg.MaxBodyBytes)
	require.Equal(t, config.DriverSurreal, cfg.Driver)
	require.Equal(t, config.SurrealConfig{
		URL: "ws://surreal:8000/rpc", Namespace: "trips", Database: "trips", User: "root", Pass: "secret",
	}, cfg.Surreal)
	require.Equal(t, "/var/lib/trips/db.json", cfg.DataFile)
	require.Equal(t, 500*time.Millisecond, cfg.ProbeTimeout)
}

func TestLoad_mongoDatabaseFromURI(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://user:pw@db:27017/holidays?retryWrites=true")

	cfg, err := config.Load()

	require.NoError(t, err)
	require.Equal(t, "holidays", cfg.MongoDatabase)

	t.Setenv("MONGODB_DATABASE", "explicit")
	cfg, err = config.Load()
	require.NoError(t, err)
	require.Equal(t, "explicit", cfg.MongoDatabase)
}

// TestLoad_missingRequired verifies that DATABASE_URL is only required when
// the postgres driver is selected, and that the error names it.
func TestLoad_missingRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCSTORE_DRIVER", "postgres")

	_, err := config.Load()

	require.Error(t, err)
	require.ErrorContains(t, err, "DATABASE_URL")
}

// TestLoad_invalidValuesReportedTogether verifies that every unusable value
// appears in one error.
func TestLoad_invalidValuesReportedTogether(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCSTORE_DRIVER", "redis")
	t.Setenv("LOG_FORMAT", "xml")
	t.Setenv("MAX_BODY_BYTES", "-1")
	t.Setenv("PROBE_TIMEOUT", "soon")

	_, err := config.Load()

	require.Error(t, err)
	for _, want := range []string{"DOCSTORE_DRIVER=redis", "LOG_FORMAT=xml", "MAX_BODY_BYTES=-1", "PROBE_TIMEOUT=soon"} {
		require.ErrorContains(t, err, want)
	}
}

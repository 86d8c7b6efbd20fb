// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Document-store drivers accepted in DOCSTORE_DRIVER.
const (
	DriverMongo    = "mongo"
	DriverSurreal  = "surrealdb"
	DriverPostgres = "postgres"
	// DriverNone pins the process to the file store without probing.
	DriverNone = "none"
)

const defaultMongoDatabase = "family-trip-manager"

// Config holds all configuration values for the API server and tripctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// LogFormat selects the log handler: "json" (default) or "text" (coloured).
	LogFormat string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// Driver is the document store probed at startup. Defaults to "mongo".
	Driver string

	// MongoURI and MongoDatabase locate the mongo document store.
	// The database defaults to the URI path, then to "family-trip-manager".
	MongoURI      string
	MongoDatabase string

	Surreal SurrealConfig

	// DatabaseURL is the Postgres connection string. Required when Driver is "postgres".
	DatabaseURL string

	// DataFile is the JSON document used by the file store. Defaults to "./db.json".
	DataFile string

	// ProbeTimeout bounds the startup connection attempt. Defaults to 2s.
	ProbeTimeout time.Duration
}

// SurrealConfig locates the SurrealDB document store.
type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	User      string
	Pass      string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing every required variable that is not set and every
// variable whose value cannot be used.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "json")),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Driver:      strings.ToLower(getEnv("DOCSTORE_DRIVER", DriverMongo)),
		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017/"+defaultMongoDatabase),
		Surreal: SurrealConfig{
			URL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
			Namespace: getEnv("SURREALDB_NS", "trips"),
			Database:  getEnv("SURREALDB_DB", "trips"),
			User:      os.Getenv("SURREALDB_USER"),
			Pass:      os.Getenv("SURREALDB_PASS"),
		},
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataFile:    getEnv("DATA_FILE", "./db.json"),
	}
	cfg.MongoDatabase = getEnv("MONGODB_DATABASE", databaseFromURI(cfg.MongoURI))

	var missing, invalid []string

	switch cfg.LogFormat {
	case "json", "text":
	default:
		invalid = append(invalid, "LOG_FORMAT="+cfg.LogFormat)
	}

	switch cfg.Driver {
	case DriverMongo, DriverSurreal, DriverNone:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		invalid = append(invalid, "DOCSTORE_DRIVER="+cfg.Driver)
	}

	maxBody := getEnv("MAX_BODY_BYTES", "1048576")
	n, err := strconv.ParseInt(maxBody, 10, 64)
	if err != nil || n <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES="+maxBody)
	}
	cfg.MaxBodyBytes = n

	probe := getEnv("PROBE_TIMEOUT", "2s")
	d, err := time.ParseDuration(probe)
	if err != nil || d <= 0 {
		invalid = append(invalid, "PROBE_TIMEOUT="+probe)
	}
	cfg.ProbeTimeout = d

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		problems = append(problems, "invalid environment variables: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("%s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// databaseFromURI returns the database named in a mongo connection string's
// path, e.g. "trips" for mongodb://host/trips?retryWrites=true.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

// Package testutil provides shared helpers for integration tests.
// Helpers in this package skip automatically when required environment
// variables are not set, so unit tests can run without a running database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/surrealdb/surrealdb.go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewPool opens a *pgxpool.Pool connected to the database specified by the
// TEST_DATABASE_URL environment variable.
//
// The test is skipped automatically if TEST_DATABASE_URL is not set.
// The pool is closed automatically when the test (and all its subtests) finish.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := requireEnv(t, "TEST_DATABASE_URL")

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB opens a *sql.DB connected to TEST_DATABASE_URL using the pgx
// database/sql driver. Use this when driving goose migrations in tests.
// The connection is closed automatically when the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := requireEnv(t, "TEST_DATABASE_URL")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// NewMongoDatabase connects to TEST_MONGODB_URI and returns an empty database
// named name. The database is dropped before it is returned and the client is
// disconnected when the test finishes.
func NewMongoDatabase(t *testing.T, name string) *mongo.Database {
	t.Helper()

	uri := requireEnv(t, "TEST_MONGODB_URI")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("testutil.NewMongoDatabase: connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database(name)
	if err := db.Drop(ctx); err != nil {
		t.Fatalf("testutil.NewMongoDatabase: drop: %v", err)
	}
	return db
}

// NewSurrealDB connects to TEST_SURREALDB_URL, signs in as root/root unless
// TEST_SURREALDB_USER and TEST_SURREALDB_PASS say otherwise, and selects a
// namespace and database named name. Every table of tables is removed first.
func NewSurrealDB(t *testing.T, name string, tables []string) *surrealdb.DB {
	t.Helper()

	url := requireEnv(t, "TEST_SURREALDB_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := surrealdb.FromEndpointURLString(ctx, url)
	if err != nil {
		t.Fatalf("testutil.NewSurrealDB: connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })

	if _, err := db.SignIn(ctx, map[string]any{
		"user": envOr("TEST_SURREALDB_USER", "root"),
		"pass": envOr("TEST_SURREALDB_PASS", "root"),
	}); err != nil {
		t.Fatalf("testutil.NewSurrealDB: sign in: %v", err)
	}
	if err := db.Use(ctx, name, name); err != nil {
		t.Fatalf("testutil.NewSurrealDB: use: %v", err)
	}
	for _, table := range tables {
		if _, err := surrealdb.Query[any](ctx, db, "DELETE type::table($tb)", map[string]any{"tb": table}); err != nil {
			t.Fatalf("testutil.NewSurrealDB: clear %s: %v", table, err)
		}
	}
	return db
}

// MustOpenSQLDB opens a *sql.DB for the given DSN and panics on any error.
// Use this in TestMain functions where no *testing.T is available.
// Callers are responsible for closing the returned *sql.DB.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: open: " + err.Error())
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		panic("testutil.MustOpenSQLDB: ping: " + err.Error())
	}
	return db
}

// requireEnv returns the named environment variable, skipping the test if
// it is not set.
func requireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set; skipping integration test", key)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Package pgstore is the postgres document driver: every record of every
// collection is one JSONB row in the documents table.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/migrations"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements repo.Store on top of the documents table.
type Store struct {
	db   db
	pool *pgxpool.Pool
}

// New returns a Store using an existing connection. The caller owns db.
func New(db db) *Store {
	return &Store{db: db}
}

// Open connects to dsn, applies pending migrations, and returns a Store that
// owns its pool.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore.Open: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore.Open: ping: %w", err)
	}
	if err := Migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore.Open: %w", err)
	}
	return &Store{db: pool, pool: pool}, nil
}

// Migrate applies every pending goose migration from the embedded FS.
func Migrate(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("pgstore.Migrate: open: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		return fmt.Errorf("pgstore.Migrate: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("pgstore.Migrate: up: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close releases the pool when the Store owns one.
func (s *Store) Close(context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// List returns matching records, sorted by q.Sort and then by insertion order.
func (s *Store) List(ctx context.Context, collection string, q repo.Query) ([]domain.Record, error) {
	where, args := whereClause(collection, q.Filter)

	var order []string
	for _, f := range q.Sort {
		args = append(args, f.Field)
		dir := "ASC NULLS FIRST"
		if f.Descending {
			dir = "DESC NULLS LAST"
		}
		order = append(order, fmt.Sprintf("body -> ($%d::text) %s", len(args), dir))
	}
	order = append(order, "seq ASC")

	query := "SELECT id, body FROM documents WHERE " + where + " ORDER BY " + strings.Join(order, ", ")
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore.Store.List: %w", err)
	}
	defer rows.Close()

	out := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore.Store.List: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore.Store.List: %w", err)
	}
	return out, nil
}

// GetByID returns the record or domain.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, collection, id string) (domain.Record, error) {
	const q = `SELECT id, body FROM documents WHERE collection = $1 AND id = $2`
	rec, err := scanRecord(s.db.QueryRow(ctx, q, collection, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pgstore.Store.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore.Store.GetByID: %w", err)
	}
	return rec, nil
}

// Create inserts rec; postgres generates the id.
func (s *Store) Create(ctx context.Context, collection string, rec domain.Record) (domain.Record, error) {
	const q = `INSERT INTO documents (collection, body) VALUES ($1, $2) RETURNING id, body`
	created, err := scanRecord(s.db.QueryRow(ctx, q, collection, body(rec)))
	if err != nil {
		return nil, fmt.Errorf("pgstore.Store.Create: %w", err)
	}
	return created, nil
}

// Update merges patch into the stored body with the jsonb || operator.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error) {
	const q = `
		UPDATE documents SET body = body || $3
		WHERE collection = $1 AND id = $2
		RETURNING id, body`
	updated, err := scanRecord(s.db.QueryRow(ctx, q, collection, id, body(patch)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pgstore.Store.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore.Store.Update: %w", err)
	}
	return updated, nil
}

// Delete removes one record; a missing id is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.db.Exec(ctx, q, collection, id); err != nil {
		return fmt.Errorf("pgstore.Store.Delete: %w", err)
	}
	return nil
}

// DeleteWhere removes every matching record.
func (s *Store) DeleteWhere(ctx context.Context, collection string, filter repo.Filter) (int64, error) {
	where, args := whereClause(collection, filter)
	tag, err := s.db.Exec(ctx, "DELETE FROM documents WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("pgstore.Store.DeleteWhere: %w", err)
	}
	return tag.RowsAffected(), nil
}

// whereClause renders filter as SQL. Loose equality is a text comparison:
// body ->> field yields "120" for the number 120 and "true" for a boolean,
// so the filter value is widened to every text form it may match.
func whereClause(collection string, filter repo.Filter) (string, []any) {
	clauses := []string{"collection = $1"}
	args := []any{collection}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := filter[k]
		switch {
		case k == domain.FieldID && v == nil:
			clauses = append(clauses, "FALSE")
		case k == domain.FieldID:
			args = append(args, texts(v))
			clauses = append(clauses, fmt.Sprintf("id = ANY($%d::text[])", len(args)))
		case v == nil:
			args = append(args, k)
			clauses = append(clauses, fmt.Sprintf("body ->> ($%d::text) IS NULL", len(args)))
		default:
			args = append(args, k, texts(v))
			clauses = append(clauses, fmt.Sprintf("body ->> ($%d::text) = ANY($%d::text[])", len(args)-1, len(args)))
		}
	}
	return strings.Join(clauses, " AND "), args
}

func texts(v any) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, variant := range domain.Variants(v) {
		s, ok := domain.Canonical(variant)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// body strips _id, which is stored in its own column.
func body(rec domain.Record) domain.Record {
	out := rec.Clone()
	delete(out, domain.FieldID)
	return out
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		id  string
		rec domain.Record
	)
	if err := row.Scan(&id, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = domain.Record{}
	}
	rec[domain.FieldID] = id
	return rec, nil
}

// Package surrealstore is the SurrealDB document driver. Each collection is a
// table; the record identifier is kept both as the SurrealDB record id and
// as a plain _id field so every query filters on ordinary fields.
package surrealstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/schema"
)

// identifier limits field names that are spliced into SurrealQL; values are
// always bound as $parameters.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds the connection settings for Open.
type Config struct {
	URL       string
	Namespace string
	Database  string
	User      string
	Pass      string
}

// Store implements repo.Store on a SurrealDB database.
type Store struct {
	db    *surrealdb.DB
	owned bool
}

// New returns a Store on a connected, signed-in database with namespace and
// database already selected. The caller owns db.
func New(db *surrealdb.DB) *Store {
	return &Store{db: db}
}

// Open connects, signs in when credentials are set, and selects the
// namespace and database. ctx bounds the whole handshake.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("surrealstore.Open: %w", err)
	}
	if cfg.User != "" && cfg.Pass != "" {
		if _, err := db.SignIn(ctx, map[string]any{"user": cfg.User, "pass": cfg.Pass}); err != nil {
			_ = db.Close(context.Background())
			return nil, fmt.Errorf("surrealstore.Open: sign in: %w", err)
		}
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(context.Background())
		return nil, fmt.Errorf("surrealstore.Open: use %s/%s: %w", cfg.Namespace, cfg.Database, err)
	}
	return &Store{db: db, owned: true}, nil
}

// Ping runs a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, s.db, "RETURN true", nil); err != nil {
		return fmt.Errorf("surrealstore.Store.Ping: %w", err)
	}
	return nil
}

// Close closes the connection when the Store owns it.
func (s *Store) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.db.Close(ctx)
}

// List returns matching records ordered by q.Sort.
func (s *Store) List(ctx context.Context, collection string, q repo.Query) ([]domain.Record, error) {
	where, vars, err := whereClause(collection, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("surrealstore.Store.List: %w", err)
	}

	sql := "SELECT * FROM type::table($tb)" + where
	if len(q.Sort) > 0 {
		order := make([]string, 0, len(q.Sort))
		for _, f := range q.Sort {
			if !identifier.MatchString(f.Field) {
				return nil, fmt.Errorf("surrealstore.Store.List: %w: bad sort field %q", domain.ErrValidation, f.Field)
			}
			dir := "ASC"
			if f.Descending {
				dir = "DESC"
			}
			order = append(order, "`"+f.Field+"` "+dir)
		}
		sql += " ORDER BY " + strings.Join(order, ", ")
	}

	recs, err := s.query(ctx, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("surrealstore.Store.List: %w", err)
	}
	return recs, nil
}

// GetByID returns the record or domain.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, collection, id string) (domain.Record, error) {
	where, vars, _ := whereClause(collection, repo.Filter{domain.FieldID: id})
	recs, err := s.query(ctx, "SELECT * FROM type::table($tb)"+where+" LIMIT 1", vars)
	if err != nil {
		return nil, fmt.Errorf("surrealstore.Store.GetByID: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("surrealstore.Store.GetByID: %w", domain.ErrNotFound)
	}
	return recs[0], nil
}

// Create stores rec under a new uuid.
func (s *Store) Create(ctx context.Context, collection string, rec domain.Record) (domain.Record, error) {
	id := uuid.NewString()
	data := rec.Clone()
	data[domain.FieldID] = id

	recs, err := s.query(ctx, "CREATE type::thing($tb, $id) CONTENT $data", map[string]any{
		"tb":   collection,
		"id":   id,
		"data": map[string]any(data),
	})
	if err != nil {
		return nil, fmt.Errorf("surrealstore.Store.Create: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("surrealstore.Store.Create: no record returned")
	}
	return recs[0], nil
}

// Update merges patch into the record.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error) {
	data := patch.Clone()
	delete(data, domain.FieldID)

	where, vars, _ := whereClause(collection, repo.Filter{domain.FieldID: id})
	vars["patch"] = map[string]any(data)
	recs, err := s.query(ctx, "UPDATE type::table($tb) MERGE $patch"+where+" RETURN AFTER", vars)
	if err != nil {
		return nil, fmt.Errorf("surrealstore.Store.Update: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("surrealstore.Store.Update: %w", domain.ErrNotFound)
	}
	return recs[0], nil
}

// Delete removes one record; a missing id is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.DeleteWhere(ctx, collection, repo.Filter{domain.FieldID: id}); err != nil {
		return fmt.Errorf("surrealstore.Store.Delete: %w", err)
	}
	return nil
}

// DeleteWhere removes every matching record.
func (s *Store) DeleteWhere(ctx context.Context, collection string, filter repo.Filter) (int64, error) {
	where, vars, err := whereClause(collection, filter)
	if err != nil {
		return 0, fmt.Errorf("surrealstore.Store.DeleteWhere: %w", err)
	}
	recs, err := s.query(ctx, "DELETE type::table($tb)"+where+" RETURN BEFORE", vars)
	if err != nil {
		return 0, fmt.Errorf("surrealstore.Store.DeleteWhere: %w", err)
	}
	return int64(len(recs)), nil
}

// query runs one statement and converts its rows to records.
func (s *Store) query(ctx context.Context, sql string, vars map[string]any) ([]domain.Record, error) {
	res, err := surrealdb.Query[[]map[string]any](ctx, s.db, sql, vars)
	if err != nil {
		return nil, err
	}
	if res == nil || len(*res) == 0 {
		return []domain.Record{}, nil
	}
	first := (*res)[0]
	if first.Status != "" && first.Status != "OK" {
		return nil, fmt.Errorf("query status %s", first.Status)
	}

	out := make([]domain.Record, 0, len(first.Result))
	for _, row := range first.Result {
		out = append(out, toRecord(row))
	}
	return out, nil
}

// whereClause renders filter as a SurrealQL WHERE clause. Loose equality is
// membership in the value's variants, so "42" also matches the number 42.
func whereClause(collection string, filter repo.Filter) (string, map[string]any, error) {
	vars := map[string]any{"tb": collection}
	if len(filter) == 0 {
		return "", vars, nil
	}

	conds := make([]string, 0, len(filter))
	i := 0
	for _, k := range sortedKeys(filter) {
		if !identifier.MatchString(k) {
			return "", nil, fmt.Errorf("%w: bad filter field %q", domain.ErrValidation, k)
		}
		v := filter[k]
		if v == nil {
			conds = append(conds, fmt.Sprintf("(`%s` = NONE OR `%s` = NULL)", k, k))
			continue
		}
		name := fmt.Sprintf("v%d", i)
		i++
		vars[name] = domain.Variants(v)
		conds = append(conds, fmt.Sprintf("`%s` IN $%s", k, name))
	}
	return " WHERE " + strings.Join(conds, " AND "), vars, nil
}

// toRecord drops the native record id and normalises decoded values.
func toRecord(row map[string]any) domain.Record {
	rec := make(domain.Record, len(row))
	for k, v := range row {
		if k == "id" {
			if _, ok := row[domain.FieldID]; ok {
				continue
			}
			// Rows written by other tools carry only the native id.
			rec[domain.FieldID] = recordKey(v)
			continue
		}
		rec[k] = native(v)
	}
	return rec
}

func recordKey(v any) string {
	switch x := v.(type) {
	case models.RecordID:
		return fmt.Sprint(x.ID)
	case *models.RecordID:
		return fmt.Sprint(x.ID)
	}
	return fmt.Sprint(v)
}

func native(v any) any {
	switch x := v.(type) {
	case models.CustomNil, *models.CustomNil:
		return nil
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC().Format(schema.TimeLayout)
	case models.CustomDateTime:
		return x.Time.UTC().Format(schema.TimeLayout)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = native(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = native(e)
		}
		return out
	}
	return v
}

func sortedKeys(f repo.Filter) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

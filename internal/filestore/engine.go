// Package filestore is the local fallback backend: every collection lives in
// one JSON document on disk.
//
// Each operation reads the whole document, computes its result in memory and,
// for mutations, writes the whole document back. A read-modify-write cycle
// is only safe if no other writer interleaves with it, so all engines opened
// on the same path share one lock and hold it for the full cycle.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
)

// locks holds one *sync.RWMutex per absolute file path.
var locks sync.Map

func lockFor(path string) *sync.RWMutex {
	l, _ := locks.LoadOrStore(path, &sync.RWMutex{})
	return l.(*sync.RWMutex)
}

// Engine is the file-backed implementation of repo.Store and repo.Purger.
type Engine struct {
	path  string
	mu    *sync.RWMutex
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the identifier generator (uuid.NewString by default).
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New returns an engine persisting to path. The file is not touched until
// Init or the first operation.
func New(path string, opts ...Option) (*Engine, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("filestore.New: %w", err)
	}
	e := &Engine{path: abs, mu: lockFor(abs), newID: uuid.NewString}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Path returns the absolute location of the persisted document.
func (e *Engine) Path() string { return e.path }

// Init creates the document with seven empty collections if it does not exist.
func (e *Engine) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := os.Stat(e.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("filestore.Engine.Init: %w", err)
	}
	if err := e.write(&document{}); err != nil {
		return fmt.Errorf("filestore.Engine.Init: %w", err)
	}
	return nil
}

// List returns the records of collection matching q.
func (e *Engine) List(ctx context.Context, collection string, q repo.Query) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, err := e.read()
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.List: %w", err)
	}
	coll, err := doc.collection(collection)
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.List: %w", err)
	}

	out := make([]domain.Record, 0, len(*coll))
	for _, rec := range *coll {
		if rec.Matches(q.Filter) {
			out = append(out, rec)
		}
	}
	repo.SortRecords(out, q.Sort)
	return out, nil
}

// GetByID returns the record with the given _id or domain.ErrNotFound.
func (e *Engine) GetByID(ctx context.Context, collection, id string) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, err := e.read()
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.GetByID: %w", err)
	}
	coll, err := doc.collection(collection)
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.GetByID: %w", err)
	}
	if i := indexOf(*coll, id); i >= 0 {
		return (*coll)[i], nil
	}
	return nil, fmt.Errorf("filestore.Engine.GetByID: %w", domain.ErrNotFound)
}

// Create appends rec under a new identifier and persists the document.
func (e *Engine) Create(ctx context.Context, collection string, rec domain.Record) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stored, err := domain.Normalize(rec)
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.Create: %w", err)
	}
	stored[domain.FieldID] = e.newID()

	err = e.mutate(collection, func(coll *[]domain.Record) (bool, error) {
		*coll = append(*coll, stored)
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.Create: %w", err)
	}
	return stored.Clone(), nil
}

// Update merges patch into the record and persists the document.
func (e *Engine) Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := domain.Normalize(patch)
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.Update: %w", err)
	}
	delete(clean, domain.FieldID)

	var updated domain.Record
	err = e.mutate(collection, func(coll *[]domain.Record) (bool, error) {
		i := indexOf(*coll, id)
		if i < 0 {
			return false, domain.ErrNotFound
		}
		for k, v := range clean {
			(*coll)[i][k] = v
		}
		updated = (*coll)[i].Clone()
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.Update: %w", err)
	}
	return updated, nil
}

// Delete removes the record with the given _id. A missing record is not an error.
func (e *Engine) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.mutate(collection, func(coll *[]domain.Record) (bool, error) {
		return removeWhere(coll, func(r domain.Record) bool { return domain.LooseEqual(r[domain.FieldID], id) }) > 0, nil
	})
	if err != nil {
		return fmt.Errorf("filestore.Engine.Delete: %w", err)
	}
	return nil
}

// DeleteWhere removes all records matching filter.
func (e *Engine) DeleteWhere(ctx context.Context, collection string, filter repo.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	err := e.mutate(collection, func(coll *[]domain.Record) (bool, error) {
		n = removeWhere(coll, func(r domain.Record) bool { return r.Matches(filter) })
		return n > 0, nil
	})
	if err != nil {
		return 0, fmt.Errorf("filestore.Engine.DeleteWhere: %w", err)
	}
	return n, nil
}

// PurgeTrip removes a trip and its dependents with one read and one write.
func (e *Engine) PurgeTrip(ctx context.Context, tripID string, dependents []string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.read()
	if err != nil {
		return nil, fmt.Errorf("filestore.Engine.PurgeTrip: %w", err)
	}

	removed := make(map[string]int64, len(dependents)+1)
	trips, _ := doc.collection(domain.Trips)
	removed[domain.Trips] = removeWhere(trips, func(r domain.Record) bool { return domain.LooseEqual(r[domain.FieldID], tripID) })

	changed := removed[domain.Trips] > 0
	for _, name := range dependents {
		coll, err := doc.collection(name)
		if err != nil {
			return nil, fmt.Errorf("filestore.Engine.PurgeTrip: %w", err)
		}
		removed[name] = removeWhere(coll, func(r domain.Record) bool { return domain.LooseEqual(r[domain.FieldTripID], tripID) })
		changed = changed || removed[name] > 0
	}

	if changed {
		if err := e.write(doc); err != nil {
			return nil, fmt.Errorf("filestore.Engine.PurgeTrip: %w", err)
		}
	}
	return removed, nil
}

// mutate runs fn against one collection under the write lock and persists the
// document when fn reports a change.
func (e *Engine) mutate(collection string, fn func(coll *[]domain.Record) (bool, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.read()
	if err != nil {
		return err
	}
	coll, err := doc.collection(collection)
	if err != nil {
		return err
	}
	changed, err := fn(coll)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return e.write(doc)
}

// read loads the document; a missing file reads as seven empty collections.
// Callers must hold e.mu.
func (e *Engine) read() (*document, error) {
	b, err := os.ReadFile(e.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &document{}, nil
	}
	if err != nil {
		return nil, err
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.path, err)
	}
	return &doc, nil
}

// write replaces the document atomically: a temp file in the same directory
// is written, synced, and renamed over the target. Callers must hold e.mu.
func (e *Engine) write(doc *document) error {
	doc.fill()
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(e.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	// CreateTemp opens 0600; keep the target's mode across the rename.
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(e.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, e.path)
}

func indexOf(coll []domain.Record, id string) int {
	for i, rec := range coll {
		if domain.LooseEqual(rec[domain.FieldID], id) {
			return i
		}
	}
	return -1
}

// removeWhere filters coll in place and returns how many records were dropped.
func removeWhere(coll *[]domain.Record, drop func(domain.Record) bool) int64 {
	kept := (*coll)[:0]
	var n int64
	for _, rec := range *coll {
		if drop(rec) {
			n++
			continue
		}
		kept = append(kept, rec)
	}
	*coll = kept
	return n
}

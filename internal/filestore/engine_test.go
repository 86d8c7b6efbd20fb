package filestore_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/filestore"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/repo/repotest"
)

func newEngine(t *testing.T) (*filestore.Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	e, err := filestore.New(path)
	require.NoError(t, err)
	return e, path
}

func TestEngine_Conformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repo.Store {
		e, _ := newEngine(t)
		return e
	})
}

func TestEngine_MissingFileReadsEmpty(t *testing.T) {
	e, path := newEngine(t)

	recs, err := e.List(context.Background(), domain.Trips, repo.Query{})
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "a read must not create the file")
}

func TestEngine_InitWritesSevenEmptyCollectionsInOrder(t *testing.T) {
	e, path := newEngine(t)
	require.NoError(t, e.Init(context.Background()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string][]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Len(t, raw, 7)
	for _, name := range domain.Collections {
		v, ok := raw[name]
		assert.True(t, ok, name)
		assert.NotNil(t, v, "%s must be [] not null", name)
	}

	text := string(b)
	last := -1
	for _, name := range domain.Collections {
		i := strings.Index(text, `"`+name+`"`)
		require.Greater(t, i, last, "collection %s out of order", name)
		last = i
	}
	assert.Contains(t, text, "\n  \"trips\"", "document is indented")
}

func TestEngine_InitKeepsExistingFile(t *testing.T) {
	e, path := newEngine(t)
	ctx := context.Background()
	_, err := e.Create(ctx, domain.Trips, domain.Record{"title": "kept"})
	require.NoError(t, err)

	require.NoError(t, e.Init(ctx))

	recs, err := e.List(ctx, domain.Trips, repo.Query{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestEngine_ReadsLegacyFileWithNumericIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	legacy := `{"trips":[{"_id":"1767225600000","title":"Old"}],"expenses":[{"_id":"1767225600001","tripId":1767225600000,"title":"x","amount":3}]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	e, err := filestore.New(path)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := e.List(ctx, domain.Expenses, repo.By(domain.FieldTripID, "1767225600000"))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	removed, err := e.PurgeTrip(ctx, "1767225600000", domain.DependentCollections)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed[domain.Trips])
	assert.EqualValues(t, 1, removed[domain.Expenses])

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string][]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Len(t, raw, 7, "missing collections are filled in on write")
}

func TestEngine_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	e, err := filestore.New(path)
	require.NoError(t, err)

	_, err = e.List(context.Background(), domain.Trips, repo.Query{})
	assert.Error(t, err)
	_, err = e.Create(context.Background(), domain.Trips, domain.Record{"title": "x"})
	assert.Error(t, err)
}

func TestEngine_UnknownCollection(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.List(context.Background(), "users", repo.Query{})
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestEngine_IDGenerator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	e, err := filestore.New(path, filestore.WithIDGenerator(func() string { return "fixed" }))
	require.NoError(t, err)

	rec, err := e.Create(context.Background(), domain.Todos, domain.Record{"task": "x", "_id": "caller-supplied"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", rec.ID())
}

func TestEngine_UpdateCannotChangeID(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	rec, err := e.Create(ctx, domain.Todos, domain.Record{"task": "x"})
	require.NoError(t, err)

	got, err := e.Update(ctx, domain.Todos, rec.ID(), domain.Record{"_id": "other", "task": "y"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), got.ID())
	assert.Equal(t, "y", got["task"])
}

func TestEngine_CancelledContext(t *testing.T) {
	e, _ := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Create(ctx, domain.Todos, domain.Record{"task": "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_NoTempFilesLeftBehind(t *testing.T) {
	e, path := newEngine(t)
	ctx := context.Background()
	for range 5 {
		_, err := e.Create(ctx, domain.Todos, domain.Record{"task": "x"})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "db.json", entries[0].Name())
}

func TestEngine_WriteKeepsFileMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	ctx := context.Background()

	e, path := newEngine(t)
	require.NoError(t, e.Init(ctx))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm(), "new file")

	require.NoError(t, os.Chmod(path, 0o640))
	_, err = e.Create(ctx, domain.Todos, domain.Record{"task": "x"})
	require.NoError(t, err)
	fi, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm(), "existing file")
}

// Two engines opened on the same path must share the lock, otherwise their
// read-modify-write cycles interleave and records are lost.
func TestEngine_EnginesOnSamePathShareLock(t *testing.T) {
	dir := t.TempDir()
	a, err := filestore.New(filepath.Join(dir, "db.json"))
	require.NoError(t, err)
	b, err := filestore.New(filepath.Join(dir, ".", "db.json"))
	require.NoError(t, err)
	require.Equal(t, a.Path(), b.Path())

	const perEngine = 30
	ctx := context.Background()
	var wg sync.WaitGroup
	for _, e := range []*filestore.Engine{a, b} {
		for range perEngine {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.Create(ctx, domain.Expenses, domain.Record{"tripId": "t1", "title": "x", "amount": 1})
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	got, err := a.List(ctx, domain.Expenses, repo.Query{})
	require.NoError(t, err)
	assert.Len(t, got, 2*perEngine)
}

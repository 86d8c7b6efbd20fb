// Package repotest is a conformance suite for repo.Store backends. Every
// backend must pass it unchanged so callers cannot tell which one is active.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-manager/internal/cascade"
	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/schema"
)

// Open returns an empty backend for one subtest.
type Open func(t *testing.T) repo.Store

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// Run executes the suite. open is called once per subtest.
func Run(t *testing.T, open Open) {
	t.Helper()

	newRepo := func(t *testing.T) *repo.Repository {
		return repo.New(open(t), schema.Default(), repo.WithClock(func() time.Time { return fixedNow }))
	}

	t.Run("Create_FillsDefaultsAndID", func(t *testing.T) { testCreateDefaults(t, newRepo(t)) })
	t.Run("Create_MissingRequired", func(t *testing.T) { testCreateMissingRequired(t, newRepo(t)) })
	t.Run("GetByID_NotFound", func(t *testing.T) { testGetNotFound(t, newRepo(t)) })
	t.Run("Update_OnlyPatchedFieldsChange", func(t *testing.T) { testUpdatePartial(t, newRepo(t)) })
	t.Run("Update_NotFound", func(t *testing.T) { testUpdateNotFound(t, newRepo(t)) })
	t.Run("Delete_Idempotent", func(t *testing.T) { testDeleteIdempotent(t, newRepo(t)) })
	t.Run("List_LooseTripID", func(t *testing.T) { testListLooseTripID(t, newRepo(t)) })
	t.Run("List_LooseNumberAndBool", func(t *testing.T) { testListLooseScalars(t, newRepo(t)) })
	t.Run("List_Sorted", func(t *testing.T) { testListSorted(t, newRepo(t)) })
	t.Run("List_EmptyIsNotNil", func(t *testing.T) { testListEmpty(t, newRepo(t)) })
	t.Run("DeleteWhere_Counts", func(t *testing.T) { testDeleteWhere(t, newRepo(t)) })
	t.Run("Cascade_Japan2026", func(t *testing.T) { testCascadeScenario(t, newRepo(t)) })
	t.Run("Cascade_LeavesOtherTrips", func(t *testing.T) { testCascadeIsolation(t, newRepo(t)) })
	t.Run("Create_Concurrent", func(t *testing.T) { testConcurrentCreates(t, newRepo(t)) })
}

func mustCreate(t *testing.T, s repo.Store, collection string, rec domain.Record) domain.Record {
	t.Helper()
	out, err := s.Create(context.Background(), collection, rec)
	require.NoError(t, err)
	require.NotEmpty(t, out.ID())
	return out
}

func testCreateDefaults(t *testing.T, s repo.Store) {
	trip := mustCreate(t, s, domain.Trips, domain.Record{"title": "Japan 2026", "budget": 3000})

	assert.Equal(t, "Japan 2026", trip["title"])
	assert.EqualValues(t, 3000, trip["budget"])
	assert.Equal(t, "upcoming", trip["status"])
	assert.Equal(t, false, trip["isArchived"])
	assert.Equal(t, "single", trip["tripType"])
	assert.Equal(t, "2026-03-01T09:30:00.000Z", trip["createdAt"])

	got, err := s.GetByID(context.Background(), domain.Trips, trip.ID())
	require.NoError(t, err)
	assert.Equal(t, trip, got)

	exp := mustCreate(t, s, domain.Expenses, domain.Record{"tripId": trip.ID(), "title": "Train pass", "amount": 120})
	assert.Equal(t, "General", exp["category"])
	assert.Equal(t, trip.ID(), exp["tripId"])
}

func testCreateMissingRequired(t *testing.T, s repo.Store) {
	_, err := s.Create(context.Background(), domain.Expenses, domain.Record{"title": "no trip", "amount": 5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	recs, err := s.List(context.Background(), domain.Expenses, repo.Query{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func testGetNotFound(t *testing.T, s repo.Store) {
	_, err := s.GetByID(context.Background(), domain.Trips, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testUpdatePartial(t *testing.T, s repo.Store) {
	ctx := context.Background()
	trip := mustCreate(t, s, domain.Trips, domain.Record{"title": "Lisbon", "budget": 800, "description": "long weekend"})

	updated, err := s.Update(ctx, domain.Trips, trip.ID(), domain.Record{"status": "ongoing"})
	require.NoError(t, err)
	assert.Equal(t, "ongoing", updated["status"])

	got, err := s.GetByID(ctx, domain.Trips, trip.ID())
	require.NoError(t, err)
	for k, v := range trip {
		if k == "status" {
			continue
		}
		assert.Equal(t, v, got[k], "field %s changed", k)
	}
	assert.Len(t, got, len(trip))
}

func testUpdateNotFound(t *testing.T, s repo.Store) {
	_, err := s.Update(context.Background(), domain.Trips, "does-not-exist", domain.Record{"status": "ongoing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testDeleteIdempotent(t *testing.T, s repo.Store) {
	ctx := context.Background()
	todo := mustCreate(t, s, domain.Todos, domain.Record{"tripId": "t1", "task": "passport"})

	require.NoError(t, s.Delete(ctx, domain.Todos, todo.ID()))
	require.NoError(t, s.Delete(ctx, domain.Todos, todo.ID()))

	_, err := s.GetByID(ctx, domain.Todos, todo.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testListLooseTripID(t *testing.T, s repo.Store) {
	ctx := context.Background()
	mine := mustCreate(t, s, domain.Expenses, domain.Record{"tripId": 42, "title": "ramen", "amount": 12})
	mustCreate(t, s, domain.Expenses, domain.Record{"tripId": "43", "title": "sushi", "amount": 30})

	for _, key := range []any{"42", 42, 42.0} {
		got, err := s.List(ctx, domain.Expenses, repo.By(domain.FieldTripID, key))
		require.NoError(t, err)
		require.Len(t, got, 1, "filter %#v", key)
		assert.Equal(t, mine.ID(), got[0].ID())
	}
}

func testListLooseScalars(t *testing.T, s repo.Store) {
	ctx := context.Background()
	done := mustCreate(t, s, domain.Todos, domain.Record{"tripId": "t1", "task": "visa", "completed": true})
	mustCreate(t, s, domain.Todos, domain.Record{"tripId": "t1", "task": "adapter"})
	train := mustCreate(t, s, domain.Expenses, domain.Record{"tripId": "t1", "title": "train", "amount": 120})
	mustCreate(t, s, domain.Expenses, domain.Record{"tripId": "t1", "title": "bus", "amount": 4.5})

	got, err := s.List(ctx, domain.Todos, repo.By("completed", "true"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, done.ID(), got[0].ID())

	got, err = s.List(ctx, domain.Expenses, repo.By("amount", "120"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, train.ID(), got[0].ID())
}

func testListSorted(t *testing.T, s repo.Store) {
	ctx := context.Background()
	for _, d := range []struct {
		name  string
		order int
	}{{"Kyoto", 2}, {"Tokyo", 1}, {"Osaka", 3}} {
		mustCreate(t, s, domain.Destinations, domain.Record{"tripId": "t1", "name": d.name, "order": d.order})
	}

	got, err := s.List(ctx, domain.Destinations, repo.Query{
		Filter: repo.Filter{domain.FieldTripID: "t1"},
		Sort:   []repo.SortField{{Field: "order"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []any{"Tokyo", "Kyoto", "Osaka"}, []any{got[0]["name"], got[1]["name"], got[2]["name"]})

	got, err = s.List(ctx, domain.Destinations, repo.Query{Sort: []repo.SortField{{Field: "order", Descending: true}}})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Osaka", got[0]["name"])
}

func testListEmpty(t *testing.T, s repo.Store) {
	got, err := s.List(context.Background(), domain.Stays, repo.By(domain.FieldTripID, "nobody"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func testDeleteWhere(t *testing.T, s repo.Store) {
	ctx := context.Background()
	for i := range 3 {
		mustCreate(t, s, domain.Activities, domain.Record{"tripId": "t1", "title": fmt.Sprintf("a%d", i)})
	}
	mustCreate(t, s, domain.Activities, domain.Record{"tripId": "t2", "title": "other"})

	n, err := s.DeleteWhere(ctx, domain.Activities, repo.Filter{domain.FieldTripID: "t1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	left, err := s.List(ctx, domain.Activities, repo.Query{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "t2", left[0]["tripId"])
}

func testCascadeScenario(t *testing.T, s repo.Store) {
	ctx := context.Background()
	trip := mustCreate(t, s, domain.Trips, domain.Record{"title": "Japan 2026", "budget": 3000})
	assert.Equal(t, "upcoming", trip["status"])
	assert.Equal(t, false, trip["isArchived"])

	exp := mustCreate(t, s, domain.Expenses, domain.Record{"tripId": trip.ID(), "title": "Train pass", "amount": 120})
	assert.Equal(t, "General", exp["category"])

	rep, err := cascade.New(s).DeleteTrip(ctx, trip.ID())
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.Removed[domain.Trips])
	assert.EqualValues(t, 1, rep.Removed[domain.Expenses])

	left, err := s.List(ctx, domain.Expenses, repo.By(domain.FieldTripID, trip.ID()))
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = s.GetByID(ctx, domain.Trips, trip.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testCascadeIsolation(t *testing.T, s repo.Store) {
	ctx := context.Background()
	doomed := mustCreate(t, s, domain.Trips, domain.Record{"title": "doomed"})
	kept := mustCreate(t, s, domain.Trips, domain.Record{"title": "kept"})

	dependents := map[string]domain.Record{
		domain.Destinations: {"name": "Nara"},
		domain.Transport:    {"type": "Train"},
		domain.Stays:        {"name": "Ryokan"},
		domain.Activities:   {"title": "Temple"},
		domain.Expenses:     {"title": "Tea", "amount": 8},
		domain.Todos:        {"task": "Book"},
	}
	for name, rec := range dependents {
		for _, tripID := range []string{doomed.ID(), kept.ID()} {
			r := rec.Clone()
			r[domain.FieldTripID] = tripID
			mustCreate(t, s, name, r)
		}
	}

	_, err := cascade.New(s).DeleteTrip(ctx, doomed.ID())
	require.NoError(t, err)

	for _, name := range domain.DependentCollections {
		gone, err := s.List(ctx, name, repo.By(domain.FieldTripID, doomed.ID()))
		require.NoError(t, err)
		assert.Empty(t, gone, name)

		left, err := s.List(ctx, name, repo.By(domain.FieldTripID, kept.ID()))
		require.NoError(t, err)
		assert.Len(t, left, 1, name)
	}
	_, err = s.GetByID(ctx, domain.Trips, kept.ID())
	assert.NoError(t, err)

	// A second cascade of the same trip is a no-op.
	rep, err := cascade.New(s).DeleteTrip(ctx, doomed.ID())
	require.NoError(t, err)
	assert.Zero(t, rep.Removed[domain.Trips])
}

func testConcurrentCreates(t *testing.T, s repo.Store) {
	const n = 25
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, domain.Todos, domain.Record{"tripId": "t1", "task": fmt.Sprintf("task %d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.List(ctx, domain.Todos, repo.By(domain.FieldTripID, "t1"))
	require.NoError(t, err)
	assert.Len(t, got, n)

	seen := make(map[string]bool, n)
	for _, rec := range got {
		assert.False(t, seen[rec.ID()], "duplicate id %s", rec.ID())
		seen[rec.ID()] = true
	}
}

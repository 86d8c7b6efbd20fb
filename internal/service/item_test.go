package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/service"
)

func TestItemService_Create_RequiresExistingTrip(t *testing.T) {
	store := fileStore(t)
	svc := service.NewItemService(store)

	_, err := svc.Create(context.Background(), domain.Expenses, domain.Record{"tripId": "nope", "title": "x", "amount": 1})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "trip nope does not exist")
}

// The trip check and the write are separate store calls. A trip deleted
// between them does not stop the write.
func TestItemService_Create_TripCheckIsNotAtomicWithCascade(t *testing.T) {
	store := fileStore(t)
	ctx := context.Background()
	trip, err := store.Create(ctx, domain.Trips, domain.Record{"title": "Japan"})
	require.NoError(t, err)

	var calls []string
	svc := service.NewItemService(&mockStore{
		getByID: func(ctx context.Context, collection, id string) (domain.Record, error) {
			calls = append(calls, "get "+collection)
			rec, err := store.GetByID(ctx, collection, id)
			require.NoError(t, store.Delete(ctx, domain.Trips, id))
			return rec, err
		},
		create: func(ctx context.Context, collection string, rec domain.Record) (domain.Record, error) {
			calls = append(calls, "create "+collection)
			return store.Create(ctx, collection, rec)
		},
	})

	rec, err := svc.Create(ctx, domain.Todos, domain.Record{"tripId": trip.ID(), "task": "visa"})

	require.NoError(t, err)
	assert.Equal(t, []string{"get trips", "create todos"}, calls)
	_, err = store.GetByID(ctx, domain.Trips, trip.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetByID(ctx, domain.Todos, rec.ID())
	assert.NoError(t, err, "the orphan survives")
}

func TestItemService_Create_MissingTripIDIsSchemaError(t *testing.T) {
	svc := service.NewItemService(fileStore(t))

	_, err := svc.Create(context.Background(), domain.Todos, domain.Record{"task": "x"})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "tripId is required")
}

func TestItemService_RejectsTripsCollection(t *testing.T) {
	svc := service.NewItemService(fileStore(t))

	_, err := svc.Create(context.Background(), domain.Trips, domain.Record{"title": "x"})
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)

	_, err = svc.ListByTrip(context.Background(), "users", "t1")
	assert.ErrorIs(t, err, domain.ErrUnknownCollection)
}

func TestItemService_ListByTrip_DisplayOrder(t *testing.T) {
	store := fileStore(t)
	ctx := context.Background()
	trip, err := store.Create(ctx, domain.Trips, domain.Record{"title": "Japan"})
	require.NoError(t, err)
	svc := service.NewItemService(store)

	for _, d := range []domain.Record{
		{"name": "Osaka", "order": 3},
		{"name": "Tokyo", "order": 1},
		{"name": "Kyoto", "order": 2},
	} {
		d["tripId"] = trip.ID()
		_, err := svc.Create(ctx, domain.Destinations, d)
		require.NoError(t, err)
	}
	for _, a := range []domain.Record{
		{"title": "dinner", "date": "2026-04-02", "timeSlot": "19:00"},
		{"title": "temple", "date": "2026-04-02", "timeSlot": "09:00"},
		{"title": "arrive", "date": "2026-04-01", "timeSlot": "15:00"},
	} {
		a["tripId"] = trip.ID()
		_, err := svc.Create(ctx, domain.Activities, a)
		require.NoError(t, err)
	}

	dests, err := svc.ListByTrip(ctx, domain.Destinations, trip.ID())
	require.NoError(t, err)
	assert.Equal(t, []any{"Tokyo", "Kyoto", "Osaka"}, field(dests, "name"))

	acts, err := svc.ListByTrip(ctx, domain.Activities, trip.ID())
	require.NoError(t, err)
	assert.Equal(t, []any{"arrive", "temple", "dinner"}, field(acts, "title"))

	none, err := svc.ListByTrip(ctx, domain.Stays, trip.ID())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestItemService_Update_MoveToMissingTrip(t *testing.T) {
	store := fileStore(t)
	ctx := context.Background()
	trip, err := store.Create(ctx, domain.Trips, domain.Record{"title": "Japan"})
	require.NoError(t, err)
	svc := service.NewItemService(store)
	todo, err := svc.Create(ctx, domain.Todos, domain.Record{"tripId": trip.ID(), "task": "visa"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.Todos, todo.ID(), domain.Record{"tripId": "elsewhere"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := svc.Update(ctx, domain.Todos, todo.ID(), domain.Record{"completed": true})
	require.NoError(t, err)
	assert.Equal(t, true, got["completed"])
}

func TestItemService_Delete_Idempotent(t *testing.T) {
	svc := service.NewItemService(fileStore(t))

	assert.NoError(t, svc.Delete(context.Background(), domain.Stays, "missing"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "users", "x"), domain.ErrUnknownCollection)
}

func field(recs []domain.Record, name string) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r[name]
	}
	return out
}

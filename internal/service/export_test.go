package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/service"
)

func TestExportService_Export(t *testing.T) {
	store := fileStore(t)
	ctx := context.Background()
	japan, err := store.Create(ctx, domain.Trips, domain.Record{"title": "Japan 2026"})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.Trips, domain.Record{"title": "Empty"})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.Expenses, domain.Record{"tripId": japan.ID(), "title": "Train pass", "amount": 120, "date": "2026-04-01"})
	require.NoError(t, err)
	_, err = store.Create(ctx, domain.Destinations, domain.Record{"tripId": japan.ID(), "name": "Tokyo", "arrivalDate": "2026-04-01"})
	require.NoError(t, err)

	rows, err := service.NewExportService(store).Export(ctx)

	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.Destinations, rows[0].Collection)
	assert.Equal(t, "Tokyo", rows[0].Label)
	assert.Equal(t, "2026-04-01", rows[0].Date)
	assert.Equal(t, domain.Expenses, rows[1].Collection)
	assert.Equal(t, 120.0, rows[1].Cost)
	assert.Equal(t, "upcoming", rows[1].TripStatus)
	assert.Equal(t, "Empty", rows[2].TripTitle)
	assert.Empty(t, rows[2].Collection)
}

func TestExportService_Export_StoreError(t *testing.T) {
	boom := errors.New("boom")
	svc := service.NewExportService(&mockStore{
		list: func(context.Context, string, repo.Query) ([]domain.Record, error) { return nil, boom },
	})

	_, err := svc.Export(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestExportService_Snapshot_AllCollections(t *testing.T) {
	snap, err := service.NewExportService(fileStore(t)).Snapshot(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap, 7)
	for _, name := range domain.Collections {
		assert.NotNil(t, snap[name], name)
	}
}

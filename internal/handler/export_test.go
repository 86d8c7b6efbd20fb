package handler_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-manager/internal/domain"
)

// mockExporter is a test double for handler.Exporter.
type mockExporter struct {
	export func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockExporter) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

func exportFixture() []domain.ExportRow {
	return []domain.ExportRow{
		{
			TripID: "t1", TripTitle: "Japan 2026", TripStatus: "upcoming",
			Collection: domain.Expenses, RecordID: "e1", Label: "Train pass, 7 day", Date: "2026-04-01", Cost: 120.5,
		},
		{TripID: "t2", TripTitle: "Empty", TripStatus: "completed"},
	}
}

func TestGetExport_JSON(t *testing.T) {
	exp := &mockExporter{export: func(context.Context) ([]domain.ExportRow, error) { return exportFixture(), nil }}

	rec := serve(newHTTPHandler(nil, nil, exp), http.MethodGet, "/api/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var rows []domain.ExportRow
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&rows))
	assert.Equal(t, exportFixture(), rows)
}

func TestGetExport_CSV(t *testing.T) {
	exp := &mockExporter{export: func(context.Context) ([]domain.ExportRow, error) { return exportFixture(), nil }}

	rec := serve(newHTTPHandler(nil, nil, exp), http.MethodGet, "/api/export?format=csv", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"trip_id", "trip_title", "trip_status", "collection", "record_id", "label", "date", "cost"}, records[0])
	assert.Equal(t, []string{"t1", "Japan 2026", "upcoming", "expenses", "e1", "Train pass, 7 day", "2026-04-01", "120.5"}, records[1])
	assert.Equal(t, []string{"t2", "Empty", "completed", "", "", "", "", ""}, records[2])
}

func TestGetExport_422_UnknownFormat(t *testing.T) {
	rec := serve(newHTTPHandler(nil, nil, &mockExporter{}), http.MethodGet, "/api/export?format=xml", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// Package handler: export.go implements GET /api/export.
// Returns every trip and its records as a flat table.
// Supports ?format=csv (CSV) or default (JSON).
package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"trip_id", "trip_title", "trip_status",
	"collection", "record_id", "label", "date", "cost",
}

// GetExport handles GET /api/export.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format != "" && format != "csv" && format != "json" {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("format must be csv or json"))
		return
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.writeError(w, r, "export", err)
		return
	}

	if format != "csv" {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, row := range rows {
		cost := ""
		if row.Collection != "" {
			cost = strconv.FormatFloat(row.Cost, 'f', -1, 64)
		}
		//nolint:errcheck
		cw.Write([]string{
			row.TripID, row.TripTitle, row.TripStatus,
			row.Collection, row.RecordID, row.Label, row.Date, cost,
		})
	}
	cw.Flush()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trips-export.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(buf.Bytes())
}

package domain

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per dependent record, with trip
// fields repeated for every record on that trip. Trips with no dependents
// yield one row with empty record fields.
type ExportRow struct {
	// Trip fields, repeated for every record on the trip.
	TripID     string `json:"tripId"`
	TripTitle  string `json:"tripTitle"`
	TripStatus string `json:"tripStatus"`

	// Record fields, empty when the trip has no dependents.
	Collection string  `json:"collection,omitempty"`
	RecordID   string  `json:"recordId,omitempty"`
	Label      string  `json:"label,omitempty"` // name, title, task, or transport type
	Date       string  `json:"date,omitempty"`
	Cost       float64 `json:"cost"`
}

package schema

import (
	"time"

	"github.com/pkordes/trip-manager/internal/domain"
)

var (
	priorityRule  = "oneof=low medium high"
	latitudeRule  = "gte=-90,lte=90"
	longitudeRule = "gte=-180,lte=180"
)

func value(v any) func(time.Time) any {
	return func(time.Time) any { return v }
}

func timestamp(now time.Time) any {
	return now.UTC().Format(TimeLayout)
}

// createdAt is stamped on every record, as the file store always did.
var createdAt = Field{Name: domain.FieldCreatedAt, Kind: Date, Default: timestamp}

var tripID = Field{Name: domain.FieldTripID, Kind: String, Required: true}

// destinationID is a soft reference: it may point at a deleted destination.
var destinationID = Field{Name: "destinationId", Kind: String}

// Default returns the registry of the seven trip-planning collections.
func Default() *Registry {
	return NewRegistry(
		&Schema{Collection: domain.Trips, Fields: []Field{
			{Name: "title", Kind: String, Required: true},
			{Name: "description", Kind: String},
			{Name: "startDate", Kind: Date},
			{Name: "endDate", Kind: Date},
			{Name: "budget", Kind: Number, Default: value(float64(0))},
			{Name: "status", Kind: String, Default: value("upcoming"), Rule: "oneof=upcoming ongoing completed"},
			{Name: "isArchived", Kind: Bool, Default: value(false)},
			{Name: "tripType", Kind: String, Default: value("single"), Rule: "oneof=single multi-city"},
			createdAt,
		}},
		&Schema{Collection: domain.Destinations, Fields: []Field{
			tripID,
			{Name: "name", Kind: String, Required: true},
			{Name: "country", Kind: String},
			{Name: "order", Kind: Number, Default: value(float64(0))},
			{Name: "arrivalDate", Kind: Date},
			{Name: "departureDate", Kind: Date},
			{Name: "lat", Kind: Number, Rule: latitudeRule},
			{Name: "lng", Kind: Number, Rule: longitudeRule},
			{Name: "origin", Kind: String},
			{Name: "distance", Kind: String},
			{Name: "duration", Kind: String},
			{Name: "notes", Kind: String},
			createdAt,
		}},
		&Schema{Collection: domain.Activities, Fields: []Field{
			tripID,
			destinationID,
			{Name: "title", Kind: String, Required: true},
			{Name: "date", Kind: Date},
			{Name: "timeSlot", Kind: String},
			{Name: "completed", Kind: Bool, Default: value(false)},
			{Name: "cost", Kind: Number, Default: value(float64(0))},
			{Name: "notes", Kind: String},
			{Name: "location", Kind: String},
			{Name: "priority", Kind: String, Default: value("medium"), Rule: priorityRule},
			createdAt,
		}},
		&Schema{Collection: domain.Stays, Fields: []Field{
			tripID,
			destinationID,
			{Name: "name", Kind: String, Required: true},
			{Name: "type", Kind: String, Default: value("Hotel"), Rule: "oneof=Hotel Hostel Airbnb Friend Other"},
			{Name: "checkIn", Kind: Date},
			{Name: "checkOut", Kind: Date},
			{Name: "cost", Kind: Number, Default: value(float64(0))},
			{Name: "notes", Kind: String},
			{Name: "address", Kind: String},
			{Name: "bookingReference", Kind: String},
			createdAt,
		}},
		&Schema{Collection: domain.Transport, Fields: []Field{
			tripID,
			destinationID,
			{Name: "type", Kind: String, Default: value("Flight"), Rule: "oneof=Flight Train Bus Car Ferry Other"},
			{Name: "provider", Kind: String},
			{Name: "referenceNumber", Kind: String},
			{Name: "departureTime", Kind: Date},
			{Name: "departureLocation", Kind: String},
			{Name: "arrivalTime", Kind: Date},
			{Name: "arrivalLocation", Kind: String},
			{Name: "cost", Kind: Number, Default: value(float64(0))},
			{Name: "notes", Kind: String},
			createdAt,
		}},
		&Schema{Collection: domain.Expenses, Fields: []Field{
			tripID,
			{Name: "title", Kind: String, Required: true},
			{Name: "amount", Kind: Number, Required: true},
			{Name: "category", Kind: String, Default: value("General")},
			{Name: "date", Kind: Date, Default: timestamp},
			createdAt,
		}},
		&Schema{Collection: domain.Todos, Fields: []Field{
			tripID,
			{Name: "task", Kind: String, Required: true},
			{Name: "completed", Kind: Bool, Default: value(false)},
			{Name: "priority", Kind: String, Default: value("medium"), Rule: priorityRule},
			createdAt,
		}},
	)
}

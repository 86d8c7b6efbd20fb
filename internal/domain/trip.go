// Package domain contains the core data types for the Trip Manager application.
// This package has zero external dependencies and is imported by every other
// internal package (schema, repo, backends, service, handler).
package domain

// Collection names as persisted by every backend.
const (
	Trips        = "trips"
	Destinations = "destinations"
	Transport    = "transport"
	Stays        = "stays"
	Activities   = "activities"
	Expenses     = "expenses"
	Todos        = "todos"
)

// Collections lists all seven collections in their persisted order.
var Collections = []string{Trips, Destinations, Transport, Stays, Activities, Expenses, Todos}

// DependentCollections lists the six collections whose records belong to a
// trip through a strong tripId reference.
var DependentCollections = []string{Destinations, Transport, Stays, Activities, Expenses, Todos}

// Well-known field names shared across collections.
const (
	FieldID        = "_id"
	FieldTripID    = "tripId"
	FieldCreatedAt = "createdAt"
)

// IsCollection reports whether name is one of the seven persisted collections.
func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// TripSummary is the budget view of a single trip.
// Spent adds expense amounts to the costs recorded on activities, stays, and transport.
type TripSummary struct {
	TripID    string         `json:"tripId"`
	Title     string         `json:"title"`
	Budget    float64        `json:"budget"`
	Spent     float64        `json:"spent"`
	Remaining float64        `json:"remaining"`
	Counts    map[string]int `json:"counts"`
}

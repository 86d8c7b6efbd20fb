package filestore

import (
	"fmt"

	"github.com/pkordes/trip-manager/internal/domain"
)

// document is the on-disk layout. Field order fixes the key order of the file.
type document struct {
	Trips        []domain.Record `json:"trips"`
	Destinations []domain.Record `json:"destinations"`
	Transport    []domain.Record `json:"transport"`
	Stays        []domain.Record `json:"stays"`
	Activities   []domain.Record `json:"activities"`
	Expenses     []domain.Record `json:"expenses"`
	Todos        []domain.Record `json:"todos"`
}

func (d *document) collection(name string) (*[]domain.Record, error) {
	switch name {
	case domain.Trips:
		return &d.Trips, nil
	case domain.Destinations:
		return &d.Destinations, nil
	case domain.Transport:
		return &d.Transport, nil
	case domain.Stays:
		return &d.Stays, nil
	case domain.Activities:
		return &d.Activities, nil
	case domain.Expenses:
		return &d.Expenses, nil
	case domain.Todos:
		return &d.Todos, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, name)
}

// fill replaces nil collections with empty ones so they encode as [].
func (d *document) fill() {
	for _, name := range domain.Collections {
		coll, _ := d.collection(name)
		if *coll == nil {
			*coll = []domain.Record{}
		}
	}
}

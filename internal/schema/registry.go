// Package schema is the record schema registry shared by every backend.
// It knows, for each of the seven collections, which fields exist, which are
// required, how loosely-typed input is coerced, and which defaults fill
// omitted optional fields. Applying the registry above the storage layer is
// what keeps the file engine and the document drivers observably identical.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/trip-manager/internal/domain"
)

// TimeLayout is the format of generated timestamps (createdAt, Expense.date).
// It matches what a JavaScript client produces with Date.toISOString.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Kind is the storage type of a field.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	Date
)

// Field describes one field of a collection.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	// Default yields the value stored when the field is omitted on create.
	// Nil means the field is simply left out.
	Default func(now time.Time) any
	// Rule is a go-playground/validator tag checked against non-nil values.
	Rule string
}

// Schema is the ordered field list of a collection.
type Schema struct {
	Collection string
	Fields     []Field

	byName map[string]Field
}

// Field returns the named field and whether the collection declares it.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Registry resolves collection names to schemas and applies them.
type Registry struct {
	schemas  map[string]*Schema
	validate *validator.Validate
}

// NewRegistry builds a registry from the given schemas.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{
		schemas:  make(map[string]*Schema, len(schemas)),
		validate: validator.New(),
	}
	for _, s := range schemas {
		s.byName = make(map[string]Field, len(s.Fields))
		for _, f := range s.Fields {
			s.byName[f.Name] = f
		}
		r.schemas[s.Collection] = s
	}
	return r
}

// Lookup returns the schema of collection, or domain.ErrUnknownCollection.
func (r *Registry) Lookup(collection string) (*Schema, error) {
	s, ok := r.schemas[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, collection)
	}
	return s, nil
}

// Create shapes a create payload: unknown keys are dropped, values are
// coerced to their field kind, required fields are checked, and defaults are
// filled for omitted optional fields. The returned record has no _id; the
// backend assigns it.
func (r *Registry) Create(collection string, payload domain.Record, now time.Time) (domain.Record, error) {
	s, err := r.Lookup(collection)
	if err != nil {
		return nil, err
	}

	out := make(domain.Record, len(s.Fields))
	var problems []string
	for _, f := range s.Fields {
		v, err := coerce(f, payload[f.Name])
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if v == nil {
			switch {
			case f.Required:
				problems = append(problems, f.Name+" is required")
			case f.Default != nil:
				out[f.Name] = f.Default(now)
			}
			continue
		}
		if msg := r.check(f, v); msg != "" {
			problems = append(problems, msg)
			continue
		}
		out[f.Name] = v
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return out, nil
}

// Patch shapes a partial update: only keys present in patch survive, unknown
// keys and the immutable _id/createdAt are dropped, and required fields may
// not be cleared.
func (r *Registry) Patch(collection string, patch domain.Record) (domain.Record, error) {
	s, err := r.Lookup(collection)
	if err != nil {
		return nil, err
	}

	out := make(domain.Record, len(patch))
	var problems []string
	for _, f := range s.Fields {
		raw, present := patch[f.Name]
		if !present || f.Name == domain.FieldCreatedAt {
			continue
		}
		v, err := coerce(f, raw)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if v == nil {
			if f.Required {
				problems = append(problems, f.Name+" cannot be cleared")
				continue
			}
			out[f.Name] = nil
			continue
		}
		if msg := r.check(f, v); msg != "" {
			problems = append(problems, msg)
			continue
		}
		out[f.Name] = v
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(problems, "; "))
	}
	return out, nil
}

// check applies the required-string and validator rules to a coerced value.
// It returns a human-readable problem, or "" when the value is acceptable.
func (r *Registry) check(f Field, v any) string {
	if s, ok := v.(string); ok && f.Required && strings.TrimSpace(s) == "" {
		return f.Name + " is required"
	}
	if f.Rule == "" {
		return ""
	}
	if err := r.validate.Var(v, f.Rule); err != nil {
		return f.Name + " " + describeRule(f.Rule)
	}
	return ""
}

func describeRule(rule string) string {
	if values, ok := strings.CutPrefix(rule, "oneof="); ok {
		return "must be one of: " + strings.Join(strings.Fields(values), ", ")
	}
	return "violates rule " + rule
}

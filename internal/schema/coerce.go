package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/trip-manager/internal/domain"
)

// coerce converts a raw payload value to the field's kind, the way a
// document mapper casts request input. It returns nil for absent values,
// including the empty string on non-string fields.
func coerce(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Kind {
	case Number:
		return coerceNumber(f.Name, v)
	case Bool:
		return coerceBool(f.Name, v)
	case Date:
		return coerceDate(f.Name, v)
	default:
		return coerceString(f.Name, v)
	}
}

func coerceString(name string, v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	if s, ok := domain.Canonical(v); ok {
		return s, nil
	}
	return nil, fmt.Errorf("%s must be a string", name)
}

func coerceNumber(name string, v any) (any, error) {
	switch x := v.(type) {
	case string:
		t := strings.TrimSpace(x)
		if t == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", name)
		}
		return f, nil
	case bool:
		return nil, fmt.Errorf("%s must be a number", name)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", name)
		}
		return f, nil
	}
	s, ok := domain.Canonical(v)
	if !ok {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return f, nil
}

func coerceBool(name string, v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.TrimSpace(x) {
		case "":
			return nil, nil
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, fmt.Errorf("%s must be a boolean", name)
}

func coerceDate(name string, v any) (any, error) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return nil, nil
		}
		if _, err := ParseDate(x); err != nil {
			return nil, fmt.Errorf("%s must be a date", name)
		}
		return x, nil
	case time.Time:
		return x.UTC().Format(TimeLayout), nil
	}
	return nil, fmt.Errorf("%s must be a date string", name)
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseDate reads the date forms clients send: full ISO timestamps, the
// datetime-local form without zone, and plain dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

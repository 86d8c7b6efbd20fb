package domain_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-manager/internal/domain"
)

func TestLooseEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b any
		want bool
	}{
		{"same strings", "abc", "abc", true},
		{"different strings", "abc", "abd", false},
		{"string matches number", "5", float64(5), true},
		{"number matches string", int64(5), "5", true},
		{"padded numeric string", " 5 ", 5, true},
		{"decimal string", "120.5", 120.5, true},
		{"non-numeric string vs number", "five", 5, false},
		{"empty string never equals zero", "", 0, false},
		{"int vs float", 3, float64(3), true},
		{"bool vs string", true, "true", true},
		{"bool false vs string", false, "false", true},
		{"bool vs number", true, 1, true},
		{"bool mismatch", true, false, false},
		{"json number", json.Number("42"), "42", true},
		{"nil vs nil", nil, nil, true},
		{"nil vs empty string", nil, "", false},
		{"string vs nil", "x", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.LooseEqual(tc.a, tc.b))
			assert.Equal(t, tc.want, domain.LooseEqual(tc.b, tc.a), "LooseEqual must be symmetric")
		})
	}
}

func TestRecord_Matches(t *testing.T) {
	rec := domain.Record{"_id": "a1", "tripId": "42", "completed": false}

	assert.True(t, rec.Matches(nil), "empty filter matches everything")
	assert.True(t, rec.Matches(map[string]any{"tripId": 42}))
	assert.True(t, rec.Matches(map[string]any{"tripId": "42", "completed": "false"}))
	assert.False(t, rec.Matches(map[string]any{"tripId": "43"}))
	assert.False(t, rec.Matches(map[string]any{"missing": "x"}))
}

func TestVariants(t *testing.T) {
	assert.ElementsMatch(t, []any{"5", float64(5)}, domain.Variants("5"))
	assert.Contains(t, domain.Variants(float64(5)), "5")
	assert.Contains(t, domain.Variants(true), "true")
	assert.Equal(t, []any{"abc"}, domain.Variants("abc"))
	assert.Equal(t, []any{nil}, domain.Variants(nil))

	// Every variant must itself loosely equal the input.
	for _, in := range []any{"5", "1", "true", " 0 ", float64(1), 0, true, false, "abc", 2.5} {
		for _, v := range domain.Variants(in) {
			assert.True(t, domain.LooseEqual(in, v), "%#v vs %#v", in, v)
		}
	}
	assert.Contains(t, domain.Variants(float64(1)), true)
	assert.Contains(t, domain.Variants("1"), true)
	assert.NotContains(t, domain.Variants("true"), "1")
}

func TestCanonical(t *testing.T) {
	for in, want := range map[any]string{
		"x":          "x",
		float64(120): "120",
		120.5:        "120.5",
		int64(7):     "7",
		true:         "true",
	} {
		got, ok := domain.Canonical(in)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := domain.Canonical(nil)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	got, err := domain.Normalize(domain.Record{"budget": 3000, "tags": []string{"a"}})

	require.NoError(t, err)
	assert.Equal(t, float64(3000), got["budget"])
	assert.Equal(t, []any{"a"}, got["tags"])
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	orig := domain.Record{"_id": "1", "title": "Japan"}
	c := orig.Clone()
	c["title"] = "Korea"

	assert.Equal(t, "Japan", orig["title"])
	assert.Equal(t, "1", c.ID())
}

func TestCascadeError(t *testing.T) {
	cause := errors.New("socket closed")
	err := &domain.CascadeError{
		TripID:    "t1",
		Succeeded: []string{"trips", "todos"},
		Failed:    map[string]error{"stays": cause, "expenses": cause},
	}

	assert.ErrorIs(t, err, domain.ErrCascade)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, []string{"expenses", "stays"}, err.FailedCollections())
	assert.Contains(t, err.Error(), "trip t1")
}

func TestPaginationParams(t *testing.T) {
	page, limit := 2, 500
	p := domain.NewPaginationParams(&page, &limit)

	assert.Equal(t, 100, p.Limit, "limit is capped")
	assert.Equal(t, 100, p.Offset())

	start, end := domain.NewPaginationParams(&page, nil).Window(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = domain.NewPaginationParams(nil, nil).Window(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestPaginationParams_HugePageIsEmptyWindow(t *testing.T) {
	page, limit := math.MaxInt, 20
	p := domain.NewPaginationParams(&page, &limit)

	assert.Equal(t, math.MaxInt, p.Offset(), "offset saturates instead of wrapping")

	start, end := p.Window(25)
	assert.Equal(t, 25, start)
	assert.Equal(t, 25, end)

	start, end = domain.PaginationParams{Page: 2, Limit: math.MaxInt}.Window(5)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)
}

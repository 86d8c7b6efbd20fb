package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/trip-manager/internal/repo"
)

func TestWhereClause(t *testing.T) {
	where, args := whereClause("expenses", repo.Filter{"tripId": 42, "_id": "abc", "notes": nil})

	assert.Equal(t,
		"collection = $1 AND id = ANY($2::text[]) AND body ->> ($3::text) IS NULL AND body ->> ($4::text) = ANY($5::text[])",
		where)
	assert.Equal(t, []any{"expenses", []string{"abc"}, "notes", "tripId", []string{"42"}}, args)
}

func TestWhereClause_NilID(t *testing.T) {
	where, args := whereClause("trips", repo.Filter{"_id": nil})
	assert.Equal(t, "collection = $1 AND FALSE", where)
	assert.Equal(t, []any{"trips"}, args)
}

func TestTexts(t *testing.T) {
	assert.Equal(t, []string{"true", "1"}, texts(true))
	assert.Equal(t, []string{"120"}, texts("120"))
	assert.Equal(t, []string{"120"}, texts(120))
	assert.Equal(t, []string{}, texts(map[string]any{"a": 1}))
}

package repo

import (
	"sort"
	"strings"

	"github.com/pkordes/trip-manager/internal/domain"
)

// SortRecords orders recs in place by fields, keeping the original order of
// ties. Missing values sort first; numbers compare numerically, anything else
// by its canonical string form.
func SortRecords(recs []domain.Record, fields []SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(recs, func(i, j int) bool {
		for _, f := range fields {
			c := compareValues(recs[i][f.Field], recs[j][f.Field])
			if c == 0 {
				continue
			}
			if f.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, _ := domain.Canonical(a)
	bs, _ := domain.Canonical(b)
	return strings.Compare(as, bs)
}

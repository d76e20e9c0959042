package rowset

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// sortRows orders rows by the definition's sort columns. The sort is stable,
// so rows that tie on every sort column keep their population order.
func sortRows(def *Definition, rows []Row) {
	if len(def.SortColumns) == 0 {
		return
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		for _, c := range def.SortColumns {
			if n := compareValues(a.values[c.index], b.values[c.index]); n != 0 {
				return n
			}
		}
		return 0
	})
}

// compareValues orders nil first, strings case-insensitively and other
// values naturally.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(x), strings.ToLower(y))
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

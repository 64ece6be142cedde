package query

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
)

// maxOrderByDrain bounds how many items order_by/norder_by/count will pull
// from an upstream iterator before concluding it's unbounded and bailing
// out, per spec's "refuses infinite inputs."
const maxOrderByDrain = 1_000_000

// ErrUnbounded is returned by Count/OrderBy/NOrderBy when the upstream
// iterator produces more than maxOrderByDrain items without exhausting,
// which the query layer treats as an infinite producer rather than a
// merely large one.
var ErrUnbounded = errors.New("query: iterator did not terminate within the bounded-drain limit")

// Limit returns an iterator that yields at most n values from it.
func (it *Iterator[T]) Limit(n int) *Iterator[T] {
	seen := 0
	return New(func() (T, bool) {
		if seen >= n {
			var zero T
			return zero, false
		}
		v, ok := it.Next()
		if ok {
			seen++
		}
		return v, ok
	})
}

// Grep returns an iterator over only the values from it that pred
// accepts.
func (it *Iterator[T]) Grep(pred func(T) bool) *Iterator[T] {
	return New(func() (T, bool) {
		return it.NextMatching(pred)
	})
}

// Map transforms every value from it with fn, lazily.
func Map[T, U any](it *Iterator[T], fn func(T) U) *Iterator[U] {
	return New(func() (U, bool) {
		v, ok := it.Next()
		if !ok {
			var zero U
			return zero, false
		}
		return fn(v), true
	})
}

// ToArray drains it into a slice.
func (it *Iterator[T]) ToArray() []T {
	var out []T
	for {
		v, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Each drains it, calling fn on every value.
func (it *Iterator[T]) Each(fn func(T)) {
	for {
		v, ok := it.Next()
		if !ok {
			return
		}
		fn(v)
	}
}

// Count drains it to count its values, then restores them so the
// iterator can still be consumed normally afterward.
func (it *Iterator[T]) Count() (int, error) {
	items, err := drainBounded(it)
	if err != nil {
		return 0, err
	}
	it.UngetAll(items)
	return len(items), nil
}

func drainBounded[T any](it *Iterator[T]) ([]T, error) {
	items := make([]T, 0, 64)
	for {
		v, ok := it.Next()
		if !ok {
			return items, nil
		}
		items = append(items, v)
		if len(items) > maxOrderByDrain {
			return nil, ErrUnbounded
		}
	}
}

// OrderOptions configures OrderBy's comparison of extracted string keys.
type OrderOptions struct {
	Ascending bool
	// CaseSensitive, when false (the default), folds both keys to lower
	// case before comparing.
	CaseSensitive bool
	// Collator, when non-nil, does the comparison instead of a plain byte
	// comparison, giving locale-aware ordering (e.g. accented letters
	// sorting next to their unaccented counterparts).
	Collator *collate.Collator
}

// OrderBy drains it, sorts by the string key fn extracts from each value,
// and returns a fresh iterator over the sorted result. It errors rather
// than hang if it never terminates within the bounded-drain limit.
func OrderBy[T any](it *Iterator[T], key func(T) string, opts OrderOptions) (*Iterator[T], error) {
	items, err := drainBounded(it)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if !opts.CaseSensitive {
			a = strings.ToLower(a)
			b = strings.ToLower(b)
		}
		less := compareKeys(a, b, opts.Collator) < 0
		if !opts.Ascending {
			return !less
		}
		return less
	})
	return FromSlice(items), nil
}

func compareKeys(a, b string, c *collate.Collator) int {
	if c != nil {
		return c.CompareString(a, b)
	}
	return strings.Compare(a, b)
}

// NOrderBy is OrderBy's numeric counterpart: key extracts a float64 sort
// key instead of a string one.
func NOrderBy[T any](it *Iterator[T], key func(T) float64, ascending bool) (*Iterator[T], error) {
	items, err := drainBounded(it)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := key(items[i]), key(items[j])
		if !ascending {
			return a > b
		}
		return a < b
	})
	return FromSlice(items), nil
}

// parseFloat is a small helper predicate.go's numeric operators share;
// an unparseable operand never satisfies a numeric comparison.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Package query implements the composable, buffered iterator over the
// object tree: next/peek/unget, the limit/grep/map/order_by combinators,
// the three predicate surface forms, and the ids/dfs/bfs deep-traversal
// orders.
package query

// Iterator is a buffered pull iterator over a producer function: Next
// drains the front buffer before calling the producer; Peek previews the
// next value without consuming it; Unget/UngetAll push values back onto
// the front of the buffer, ahead of whatever the producer would yield
// next.
type Iterator[T any] struct {
	buf      []T
	producer func() (T, bool)
}

// New wraps a producer function in an Iterator.
func New[T any](producer func() (T, bool)) *Iterator[T] {
	return &Iterator[T]{producer: producer}
}

// FromSlice returns an iterator over a fixed, already-materialized slice.
func FromSlice[T any](items []T) *Iterator[T] {
	i := 0
	return New(func() (T, bool) {
		if i >= len(items) {
			var zero T
			return zero, false
		}
		v := items[i]
		i++
		return v, true
	})
}

// Empty returns an iterator that immediately reports exhaustion.
func Empty[T any]() *Iterator[T] {
	return New(func() (T, bool) {
		var zero T
		return zero, false
	})
}

// Next drains the buffer first, falling back to the producer once it's
// empty.
func (it *Iterator[T]) Next() (T, bool) {
	if len(it.buf) > 0 {
		v := it.buf[0]
		it.buf = it.buf[1:]
		return v, true
	}
	return it.producer()
}

// NextMatching advances past values the predicate rejects, returning the
// first one it accepts (or false if the iterator is exhausted first).
// Rejected values are not ungotten; they're gone, matching the way a
// search-forward "find" consumes what it skips over.
func (it *Iterator[T]) NextMatching(pred func(T) bool) (T, bool) {
	for {
		v, ok := it.Next()
		if !ok {
			var zero T
			return zero, false
		}
		if pred(v) {
			return v, true
		}
	}
}

// Peek returns the next value without consuming it.
func (it *Iterator[T]) Peek() (T, bool) {
	v, ok := it.Next()
	if !ok {
		return v, false
	}
	it.Unget(v)
	return v, true
}

// Unget pushes v back onto the front of the buffer.
func (it *Iterator[T]) Unget(v T) {
	it.buf = append([]T{v}, it.buf...)
}

// UngetAll pushes vs back onto the front of the buffer, preserving their
// order (vs[0] will be the next value Next returns).
func (it *Iterator[T]) UngetAll(vs []T) {
	if len(vs) == 0 {
		return
	}
	merged := make([]T, 0, len(vs)+len(it.buf))
	merged = append(merged, vs...)
	merged = append(merged, it.buf...)
	it.buf = merged
}

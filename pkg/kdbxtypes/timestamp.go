package kdbxtypes

import (
	"time"

	"github.com/kdbxkit/kdbx/internal/format"
)

// Timestamp wraps time.Time to give the times carried on groups, entries,
// and history items (created, last modified, last accessed, expiry, move)
// a single conversion point to and from the on-disk KDBX v4 tick encoding
// (XML body) and the legacy base64 packed format (v3 body), both of which
// live in the codec packages, not here.
type Timestamp struct {
	time.Time
}

// Now returns the current time truncated to whole seconds, matching the
// precision KDBX actually stores.
func Now() Timestamp {
	return Timestamp{time.Now().UTC().Truncate(time.Second)}
}

// FromTicks builds a Timestamp from a KDBX v4 tick count.
func FromTicks(ticks int64) Timestamp {
	return Timestamp{format.TicksToTime(ticks)}
}

// Ticks returns the KDBX v4 tick encoding of t.
func (t Timestamp) Ticks() int64 {
	return format.TimeToTicks(t.Time)
}

// IsZero reports whether the timestamp was never set.
func (t Timestamp) IsZero() bool {
	return t.Time.IsZero()
}

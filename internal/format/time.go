package format

import "time"

// KDBX v4 stores timestamps as the number of seconds since 0001-01-01
// 00:00:00 UTC, the .NET DateTime epoch, packed as a little-endian int64.
// kdbxEpochOffset is the number of seconds between that epoch and the Unix
// epoch, so conversion is a single addition/subtraction rather than a
// calendar computation.
const kdbxEpochOffset = 62135596800

// TicksToTime converts a KDBX v4 timestamp (seconds since 0001-01-01 UTC)
// to time.Time.
func TicksToTime(ticks int64) time.Time {
	return time.Unix(ticks-kdbxEpochOffset, 0).UTC()
}

// TimeToTicks converts a time.Time to a KDBX v4 timestamp.
func TimeToTicks(t time.Time) int64 {
	return t.UTC().Unix() + kdbxEpochOffset
}

package format

import "testing"

func TestTicksRoundTrip(t *testing.T) {
	ticks := int64(63852134400) // 2024-05-24T08:00:00Z
	tm := TicksToTime(ticks)
	got := TimeToTicks(tm)
	if got != ticks {
		t.Fatalf("round trip mismatch: got %d want %d", got, ticks)
	}
}

func TestTicksEpoch(t *testing.T) {
	tm := TicksToTime(0)
	if tm.Year() != 1 || tm.Month() != 1 || tm.Day() != 1 {
		t.Fatalf("expected 0001-01-01, got %v", tm)
	}
}

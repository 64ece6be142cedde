package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewTimesSetsAllToNow(t *testing.T) {
	tm := NewTimes()
	require.False(t, tm.CreationTime.IsZero())
	require.Equal(t, tm.CreationTime.Time, tm.LastModificationTime.Time)
	require.Equal(t, tm.CreationTime.Time, tm.LastAccessTime.Time)
	require.True(t, tm.ExpiryTime.IsZero())
	require.False(t, tm.Expires)
}

func TestTouchUpdatesModAndAccessNotCreation(t *testing.T) {
	tm := NewTimes()
	created := tm.CreationTime
	time.Sleep(time.Millisecond)
	tm.Touch()
	require.Equal(t, created, tm.CreationTime)
	require.True(t, tm.LastModificationTime.Time.Equal(tm.LastAccessTime.Time))
}

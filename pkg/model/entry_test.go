package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEntryDefaults(t *testing.T) {
	db := New()
	e := NewEntry(db)
	require.True(t, e.QualityCheck)
	require.Equal(t, KindEntry, e.Kind())
	require.False(t, e.UUID().IsNil())
}

func TestStringValueAutovivifiesStandardFields(t *testing.T) {
	db := New()
	e := NewEntry(db)

	v, ok := e.StringValue(FieldPassword)
	require.True(t, ok)
	require.Empty(t, v)

	ps, ok := e.String(FieldPassword)
	require.True(t, ok)
	require.True(t, ps.Protect, "Password should be protected by the default memory-protection policy")

	_, ok = e.StringValue("NotAStandardField")
	require.False(t, ok)
}

func TestSetStringAndConvenienceGetters(t *testing.T) {
	db := New()
	e := NewEntry(db)
	e.SetString(FieldTitle, "My Login", false)
	e.SetString(FieldUserName, "alice", false)
	e.SetString(FieldPassword, "hunter2", true)

	require.Equal(t, "My Login", e.Title())
	require.Equal(t, "alice", e.UserName())
	require.Equal(t, "hunter2", e.Password())
}

func TestEntryBinary(t *testing.T) {
	db := New()
	e := NewEntry(db)
	e.SetBinary("file.txt", []byte("data"), false)

	b, ok := e.Binary("file.txt")
	require.True(t, ok)
	require.Equal(t, "data", string(b))
}

func TestEntryCommitSnapshotsHistoryAndPrunes(t *testing.T) {
	db := New()
	db.Meta.HistoryMaxItems = 2
	e := NewEntry(db)
	e.SetString(FieldTitle, "v1", false)

	for i := 0; i < 5; i++ {
		e.Commit()
	}
	require.LessOrEqual(t, len(e.History), 2)
}

func TestPruneHistoryRespectsNegativeAsNoLimit(t *testing.T) {
	db := New()
	e := NewEntry(db)
	for i := 0; i < 5; i++ {
		e.AddHistoricalEntry(e.cloneForHistory())
	}
	e.PruneHistory(-1, -1, -1)
	require.Len(t, e.History, 5)
}

func TestEntryCloneWithReferencePassword(t *testing.T) {
	db := New()
	e := NewEntry(db)
	e.SetString(FieldTitle, "Original", false)
	e.SetString(FieldPassword, "s3cr3t", true)
	original := e.UUID()

	clone := e.Clone(CloneOptions{NewUUID: true, ReferencePassword: true})
	require.NotEqual(t, original, clone.UUID())
	require.Contains(t, clone.Password(), original.String())
	require.Contains(t, clone.Password(), "{REF:P@I:")
}

func TestEntryCloneRelabel(t *testing.T) {
	db := New()
	e := NewEntry(db)
	e.SetString(FieldTitle, "Original", false)

	clone := e.Clone(CloneOptions{Relabel: " - Copy"})
	require.Equal(t, "Original - Copy", clone.Title())
	require.Equal(t, "Original", e.Title())
}

func TestEntryRemoveGoesThroughDatabase(t *testing.T) {
	db := New()
	e := NewEntry(db)
	db.Root.AddEntry(e)
	require.Len(t, db.Root.Entries, 1)

	e.Remove()
	require.Len(t, db.Root.Entries, 0)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

func TestRemoveEntryRecordsDeletedObjectWithoutRecycleBin(t *testing.T) {
	db := New()
	e := NewEntry(db)
	db.Root.AddEntry(e)
	id := e.UUID()

	db.RemoveEntry(e)
	require.Len(t, db.Root.Entries, 0)
	_, deleted := db.Meta.DeletedObjects[id]
	require.True(t, deleted)
}

func TestRemoveEntryMovesToRecycleBinWhenEnabled(t *testing.T) {
	db := New()
	db.Meta.RecycleBinEnabled = true
	e := NewEntry(db)
	db.Root.AddEntry(e)

	db.RemoveEntry(e)
	require.Len(t, db.Root.Entries, 0)

	bin := db.recycleBin()
	require.Len(t, bin.Entries, 1)
	require.Equal(t, e.UUID(), bin.Entries[0].UUID())
}

func TestRemoveEntryAlreadyInRecycleBinHardDeletes(t *testing.T) {
	db := New()
	db.Meta.RecycleBinEnabled = true
	bin := db.recycleBin()
	e := NewEntry(db)
	bin.AddEntry(e)

	db.RemoveEntry(e)
	require.Len(t, bin.Entries, 0)
	_, deleted := db.Meta.DeletedObjects[e.UUID()]
	require.True(t, deleted)
}

func TestFindByUUID(t *testing.T) {
	db := New()
	e := NewEntry(db)
	db.Root.AddEntry(e)

	obj, ok := db.FindByUUID(e.UUID())
	require.True(t, ok)
	require.Equal(t, KindEntry, obj.Kind())

	_, ok = db.FindByUUID(kdbxtypes.MustNewUUID())
	require.False(t, ok)
}

func TestChangeEntryUUIDRewritesFieldReferences(t *testing.T) {
	db := New()
	target := NewEntry(db)
	target.SetString(FieldPassword, "secret", true)
	db.Root.AddEntry(target)
	oldID := target.UUID()

	referrer := NewEntry(db)
	referrer.SetString(FieldPassword, refToken("P", oldID), false)
	db.Root.AddEntry(referrer)

	newID := kdbxtypes.MustNewUUID()
	db.ChangeEntryUUID(target, newID)

	require.Equal(t, newID, target.UUID())
	require.Contains(t, referrer.Password(), newID.String())
	require.NotContains(t, referrer.Password(), oldID.String())
}

func TestChangeGroupUUIDRewritesRecycleBinPointer(t *testing.T) {
	db := New()
	db.Meta.RecycleBinEnabled = true
	bin := db.recycleBin()
	newID := kdbxtypes.MustNewUUID()

	db.ChangeGroupUUID(bin, newID)
	require.Equal(t, newID, db.Meta.RecycleBinUUID)
	require.True(t, bin.IsRecycleBin())
}

func TestMinimumVersionDefaultsToV31(t *testing.T) {
	db := New()
	db.KDFParameters = nil
	require.Equal(t, kdbxtypes.Version3_1, db.MinimumVersion())
}

func TestMinimumVersionBumpsToV41OnTags(t *testing.T) {
	db := New()
	e := NewEntry(db)
	e.tags = []string{"work"}
	db.Root.AddEntry(e)
	require.Equal(t, kdbxtypes.Version4_1, db.MinimumVersion())
}

func TestLockUnlockRoundTrip(t *testing.T) {
	db := New()
	e := NewEntry(db)
	e.SetString(FieldPassword, "hunter2", true)
	e.SetString(FieldTitle, "Plain", false)
	db.Root.AddEntry(e)

	require.NoError(t, db.Lock())
	require.True(t, db.Locked)
	v, _ := e.Strings.Get(FieldPassword)
	require.False(t, v.HasValue)
	require.NotEmpty(t, v.CipherText)

	plain, _ := e.Strings.Get(FieldTitle)
	require.True(t, plain.HasValue)

	require.NoError(t, db.Unlock())
	require.False(t, db.Locked)
	v, _ = e.Strings.Get(FieldPassword)
	require.True(t, v.HasValue)
	require.Equal(t, "hunter2", v.Value)
}

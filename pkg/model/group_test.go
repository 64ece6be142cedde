package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGroupDefaults(t *testing.T) {
	db := New()
	g := NewGroup(db, "Work")
	require.Equal(t, "Work", g.Name)
	require.True(t, g.IsExpanded)
	require.Equal(t, KindGroup, g.Kind())
}

func TestGroupAddEntrySetsParentAndDB(t *testing.T) {
	db := New()
	g := NewGroup(db, "Work")
	e := NewEntry(db)
	g.AddEntry(e)

	require.Same(t, g, e.Parent())
	require.Same(t, db, e.Database())
}

func TestGroupPathExcludesRoot(t *testing.T) {
	db := New()
	work := NewGroup(db, "Work")
	db.Root.AddGroup(work)
	sub := NewGroup(db, "Projects")
	work.AddGroup(sub)

	require.Equal(t, "Work.Projects", sub.Path())
	require.Equal(t, "", db.Root.Path())
}

func TestGroupDepth(t *testing.T) {
	db := New()
	work := NewGroup(db, "Work")
	db.Root.AddGroup(work)
	require.Equal(t, 0, db.Root.Depth())
	require.Equal(t, 1, work.Depth())
}

func TestEffectiveEnableAutoTypeInherits(t *testing.T) {
	db := New()
	no := false
	db.Root.EnableAutoType = &no
	child := NewGroup(db, "Child")
	db.Root.AddGroup(child)

	require.False(t, child.EffectiveEnableAutoType())

	yes := true
	child.EnableAutoType = &yes
	require.True(t, child.EffectiveEnableAutoType())
}

func TestEffectiveEnableAutoTypeDefaultsTrue(t *testing.T) {
	db := New()
	g := NewGroup(db, "Orphan")
	require.True(t, g.EffectiveEnableAutoType())
}

func TestIsRootAndIsRecycleBin(t *testing.T) {
	db := New()
	require.True(t, db.Root.IsRoot())

	bin := db.recycleBin()
	require.True(t, bin.IsRecycleBin())
	require.False(t, db.Root.IsRecycleBin())
}

func TestGroupObjectsOrdersGroupsThenEntries(t *testing.T) {
	db := New()
	g := NewGroup(db, "Parent")
	db.Root.AddGroup(g)
	sub := NewGroup(db, "Sub")
	g.AddGroup(sub)
	e := NewEntry(db)
	g.AddEntry(e)

	objs := g.Objects()
	require.Len(t, objs, 2)
	require.Equal(t, KindGroup, objs[0].Kind())
	require.Equal(t, KindEntry, objs[1].Kind())
}

func TestGroupCloneDeepCopiesSubtree(t *testing.T) {
	db := New()
	g := NewGroup(db, "Parent")
	e := NewEntry(db)
	e.SetString(FieldTitle, "Entry1", false)
	g.AddEntry(e)

	clone := g.Clone(DefaultCloneOptions())
	require.NotEqual(t, g.UUID(), clone.UUID())
	require.Len(t, clone.Entries, 1)
	require.NotEqual(t, e.UUID(), clone.Entries[0].UUID())
	require.Equal(t, "Entry1", clone.Entries[0].Title())
}

package txn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/pkg/model"
)

func TestEntryTxCommitAppliesChanges(t *testing.T) {
	db := model.New()
	e := model.NewEntry(db)
	e.SetString(model.FieldTitle, "before", false)
	db.Root.AddEntry(e)

	tx, err := BeginEntry(e)
	require.NoError(t, err)
	tx.Work().SetString(model.FieldTitle, "after", false)

	require.Equal(t, "before", e.Title())
	require.NoError(t, tx.Commit())
	require.Equal(t, "after", e.Title())
	require.Len(t, e.History, 1)
	require.Equal(t, "before", e.History[0].Title())
}

func TestEntryTxRollbackDiscardsChanges(t *testing.T) {
	db := model.New()
	e := model.NewEntry(db)
	e.SetString(model.FieldTitle, "before", false)
	db.Root.AddEntry(e)

	tx, err := BeginEntry(e)
	require.NoError(t, err)
	tx.Work().SetString(model.FieldTitle, "after", false)

	require.NoError(t, tx.Rollback())
	require.Equal(t, "before", e.Title())
	require.Empty(t, e.History)
}

func TestEntryTxNestedIsError(t *testing.T) {
	db := model.New()
	e := model.NewEntry(db)
	db.Root.AddEntry(e)

	tx, err := BeginEntry(e)
	require.NoError(t, err)

	_, err = BeginEntry(e)
	require.ErrorIs(t, err, ErrAlreadyOpen)

	require.NoError(t, tx.Commit())

	tx2, err := BeginEntry(e)
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback())
}

func TestEntryTxDoubleResolveIsError(t *testing.T) {
	db := model.New()
	e := model.NewEntry(db)
	db.Root.AddEntry(e)

	tx, err := BeginEntry(e)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.ErrorIs(t, tx.Commit(), ErrClosed)
	require.ErrorIs(t, tx.Rollback(), ErrClosed)
}

func TestGroupTxCommitAppliesChanges(t *testing.T) {
	db := model.New()
	g := model.NewGroup(db, "before")
	db.Root.AddGroup(g)

	tx, err := BeginGroup(g)
	require.NoError(t, err)
	tx.Work().Name = "after"

	require.NoError(t, tx.Commit())
	require.Equal(t, "after", g.Name)
}

func TestGroupTxDoesNotTouchChildren(t *testing.T) {
	db := model.New()
	g := model.NewGroup(db, "parent")
	db.Root.AddGroup(g)
	child := model.NewEntry(db)
	child.SetString(model.FieldTitle, "child entry", false)
	g.AddEntry(child)

	tx, err := BeginGroup(g)
	require.NoError(t, err)
	tx.Work().Name = "renamed"
	require.NoError(t, tx.Commit())

	require.Equal(t, "renamed", g.Name)
	require.Len(t, g.Entries, 1)
	require.Equal(t, "child entry", g.Entries[0].Title())
}

func TestGroupTxNestedIsError(t *testing.T) {
	db := model.New()
	g := model.NewGroup(db, "g")
	db.Root.AddGroup(g)

	tx, err := BeginGroup(g)
	require.NoError(t, err)
	_, err = BeginGroup(g)
	require.ErrorIs(t, err, ErrAlreadyOpen)
	require.NoError(t, tx.Rollback())

	tx2, err := BeginGroup(g)
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())
}

// Package txn implements begin_work/commit/rollback transactions over
// model.Entry and model.Group: begin_work captures a deep clone for the
// caller to mutate freely, commit applies the mutated fields back onto the
// live object (and runs its normal commit bookkeeping), and rollback
// simply discards the clone, leaving the original untouched.
//
// Only one transaction may be open against a given object at a time;
// starting a second one before the first resolves is an error.
package txn

import (
	"errors"
	"sync"

	"github.com/kdbxkit/kdbx/pkg/model"
)

// ErrAlreadyOpen is returned by Begin{Entry,Group} when a transaction is
// already in progress against the same object.
var ErrAlreadyOpen = errors.New("txn: transaction already open for this object")

// ErrClosed is returned by Commit/Rollback on a transaction that was
// already committed or rolled back.
var ErrClosed = errors.New("txn: transaction already closed")

var (
	activeMu sync.Mutex
	active   = map[string]bool{}
)

func markActive(id string) error {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active[id] {
		return ErrAlreadyOpen
	}
	active[id] = true
	return nil
}

func clearActive(id string) {
	activeMu.Lock()
	defer activeMu.Unlock()
	delete(active, id)
}

// EntryTx is an open transaction against one Entry.
type EntryTx struct {
	original *model.Entry
	work     *model.Entry
	done     bool
}

// BeginEntry opens a transaction against e, returning a detached working
// copy (EntryTx.Work) the caller mutates freely; e itself is untouched
// until Commit.
func BeginEntry(e *model.Entry) (*EntryTx, error) {
	if err := markActive(e.ID()); err != nil {
		return nil, err
	}
	work := e.Clone(model.CloneOptions{IncludeHistory: true})
	return &EntryTx{original: e, work: work}, nil
}

// Work returns the working copy to mutate.
func (t *EntryTx) Work() *model.Entry { return t.work }

// Commit applies every field of the working copy back onto the original
// entry. The original's own Commit bookkeeping (history snapshot of its
// pre-transaction state, LastModificationTime/LastAccessTime touch) runs
// first, so History captures what the entry looked like before this
// transaction, not the mid-transaction working copy.
func (t *EntryTx) Commit() error {
	if t.done {
		return ErrClosed
	}
	defer t.finish()

	orig := t.original
	work := t.work
	orig.Commit()

	orig.IconID = work.IconID
	orig.ForegroundColor = work.ForegroundColor
	orig.BackgroundColor = work.BackgroundColor
	orig.OverrideURL = work.OverrideURL
	orig.QualityCheck = work.QualityCheck
	orig.AutoType = work.AutoType
	orig.PreviousParentGroup = work.PreviousParentGroup
	orig.HasPreviousParent = work.HasPreviousParent
	orig.Strings = work.Strings
	orig.Binaries = work.Binaries
	orig.SetTags(work.TagList())
	if id, ok := work.CustomIcon(); ok {
		orig.SetCustomIcon(id)
	} else {
		orig.ClearCustomIcon()
	}
	return nil
}

// Rollback discards the working copy; the original entry is never
// touched.
func (t *EntryTx) Rollback() error {
	if t.done {
		return ErrClosed
	}
	t.finish()
	return nil
}

func (t *EntryTx) finish() {
	t.done = true
	clearActive(t.original.ID())
}

// GroupTx is an open transaction against one Group's own fields (not its
// child Groups/Entries, which are independent objects with their own
// transactions).
type GroupTx struct {
	original *model.Group
	work     *model.Group
	done     bool
}

// BeginGroup opens a transaction against g, returning a detached working
// copy (GroupTx.Work) the caller mutates freely.
func BeginGroup(g *model.Group) (*GroupTx, error) {
	if err := markActive(g.ID()); err != nil {
		return nil, err
	}
	work := g.Clone(model.CloneOptions{})
	return &GroupTx{original: g, work: work}, nil
}

// Work returns the working copy to mutate.
func (t *GroupTx) Work() *model.Group { return t.work }

// Commit applies the working copy's own fields back onto the original
// group (child groups/entries are untouched; they're not part of this
// transaction's target). The original's Commit bookkeeping runs first.
func (t *GroupTx) Commit() error {
	if t.done {
		return ErrClosed
	}
	defer t.finish()

	orig := t.original
	work := t.work
	orig.Commit()

	orig.Name = work.Name
	orig.Notes = work.Notes
	orig.IsExpanded = work.IsExpanded
	orig.DefaultAutoTypeSequence = work.DefaultAutoTypeSequence
	orig.EnableAutoType = work.EnableAutoType
	orig.EnableSearching = work.EnableSearching
	orig.LastTopVisibleEntry = work.LastTopVisibleEntry
	orig.HasLastTopVisibleEntry = work.HasLastTopVisibleEntry
	orig.PreviousParentGroup = work.PreviousParentGroup
	orig.HasPreviousParent = work.HasPreviousParent
	orig.ChildOrderEntriesFirst = work.ChildOrderEntriesFirst
	orig.SetTags(work.TagList())
	if id, ok := work.CustomIcon(); ok {
		orig.SetCustomIcon(id)
	} else {
		orig.ClearCustomIcon()
	}
	return nil
}

// Rollback discards the working copy; the original group is never
// touched.
func (t *GroupTx) Rollback() error {
	if t.done {
		return ErrClosed
	}
	t.finish()
	return nil
}

func (t *GroupTx) finish() {
	t.done = true
	clearActive(t.original.ID())
}

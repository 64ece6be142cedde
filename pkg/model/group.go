package model

import (
	"strings"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// Group is an internal tree node: a UUID-identified container of child
// groups and entries.
type Group struct {
	objectBase

	Name                    string
	Notes                   string
	IsExpanded              bool
	DefaultAutoTypeSequence string
	EnableAutoType          *bool // tri-state; nil inherits from parent
	EnableSearching         *bool
	LastTopVisibleEntry     kdbxtypes.UUID
	HasLastTopVisibleEntry  bool
	PreviousParentGroup     kdbxtypes.UUID
	HasPreviousParent       bool
	Times                   Times

	// ChildOrderEntriesFirst records whether this group's on-disk XML
	// listed Entry elements before Group elements, so the inner-stream walk
	// order (and thus protected-string decoding) matches what produced the
	// file. Saves always normalize to groups-then-entries.
	ChildOrderEntriesFirst bool

	Groups  []*Group
	Entries []*Entry
}

// NewGroup returns a new, empty group with a fresh UUID.
func NewGroup(db *Database, name string) *Group {
	return &Group{
		objectBase: newObjectBase(db),
		Name:       name,
		IsExpanded: true,
		Times:      NewTimes(),
	}
}

func (g *Group) Kind() ObjectKind { return KindGroup }

// Remove detaches the group (and its subtree) from its parent via the
// owning database.
func (g *Group) Remove() {
	if g.db != nil {
		g.db.RemoveGroup(g)
	}
}

// AddEntry appends entry as a child, setting its parent pointer.
func (g *Group) AddEntry(e *Entry) {
	e.parent = g
	e.db = g.db
	g.Entries = append(g.Entries, e)
}

// AddGroup appends child as a subgroup, setting its parent pointer.
func (g *Group) AddGroup(child *Group) {
	child.parent = g
	child.db = g.db
	g.Groups = append(g.Groups, child)
}

// RemoveEntry detaches entry from this group's child list without
// recycle-bin semantics (use Entry.Remove / Database.RemoveEntry for the
// full policy).
func (g *Group) RemoveEntry(e *Entry) {
	for i, c := range g.Entries {
		if c == e {
			g.Entries = append(g.Entries[:i], g.Entries[i+1:]...)
			e.parent = nil
			return
		}
	}
}

// RemoveGroup detaches child from this group's child list.
func (g *Group) RemoveGroup(child *Group) {
	for i, c := range g.Groups {
		if c == child {
			g.Groups = append(g.Groups[:i], g.Groups[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// AddObject appends a Group or Entry polymorphically.
func (g *Group) AddObject(obj Object) {
	switch v := obj.(type) {
	case *Group:
		g.AddGroup(v)
	case *Entry:
		g.AddEntry(v)
	}
}

// RemoveObject detaches a Group or Entry polymorphically.
func (g *Group) RemoveObject(obj Object) {
	switch v := obj.(type) {
	case *Group:
		g.RemoveGroup(v)
	case *Entry:
		g.RemoveEntry(v)
	}
}

// Objects returns this group's direct children, groups first then
// entries, per spec.md §4.10.
func (g *Group) Objects() []Object {
	out := make([]Object, 0, len(g.Groups)+len(g.Entries))
	for _, c := range g.Groups {
		out = append(out, c)
	}
	for _, e := range g.Entries {
		out = append(out, e)
	}
	return out
}

// EffectiveEnableAutoType walks to the root looking for the first
// non-nil EnableAutoType, defaulting to true.
func (g *Group) EffectiveEnableAutoType() bool {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.EnableAutoType != nil {
			return *cur.EnableAutoType
		}
	}
	return true
}

// EffectiveEnableSearching is EffectiveEnableAutoType's counterpart for
// EnableSearching.
func (g *Group) EffectiveEnableSearching() bool {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.EnableSearching != nil {
			return *cur.EnableSearching
		}
	}
	return true
}

// EffectiveDefaultAutoTypeSequence walks to the root for the first
// non-empty DefaultAutoTypeSequence.
func (g *Group) EffectiveDefaultAutoTypeSequence() string {
	for cur := g; cur != nil; cur = cur.parent {
		if cur.DefaultAutoTypeSequence != "" {
			return cur.DefaultAutoTypeSequence
		}
	}
	return ""
}

// Path returns the dot-joined chain of group names from depth 1 down,
// excluding the root.
func (g *Group) Path() string {
	var names []string
	for cur := g; cur != nil && cur.parent != nil; cur = cur.parent {
		names = append([]string{cur.Name}, names...)
	}
	return strings.Join(names, ".")
}

// Depth returns the number of ancestors (root is depth 0).
func (g *Group) Depth() int {
	d := 0
	for cur := g.parent; cur != nil; cur = cur.parent {
		d++
	}
	return d
}

// Size returns a coarse byte estimate for this group's own fields (name,
// notes, custom data); it does not recurse into children.
func (g *Group) Size() int64 {
	n := int64(len(g.Name) + len(g.Notes))
	for _, k := range g.CustomData().Keys() {
		v, _ := g.CustomData().Get(k)
		n += int64(len(k) + len(v.Value))
	}
	return n
}

// IsRoot reports whether g is its database's root group.
func (g *Group) IsRoot() bool { return g.db != nil && g.db.Root == g }

// IsRecycleBin reports whether g is the database's designated recycle bin.
func (g *Group) IsRecycleBin() bool {
	return g.db != nil && g.db.Meta.HasRecycleBinUUID && g.db.Meta.RecycleBinUUID == g.uuid
}

// IsEntryTemplates reports whether g is the entry-templates group.
func (g *Group) IsEntryTemplates() bool {
	return g.db != nil && g.db.Meta.HasEntryTemplatesGroup && g.db.Meta.EntryTemplatesGroup == g.uuid
}

// IsLastSelected reports whether g is the last-selected group.
func (g *Group) IsLastSelected() bool {
	return g.db != nil && g.db.Meta.HasLastSelectedGroup && g.db.Meta.LastSelectedGroup == g.uuid
}

// IsLastTopVisible reports whether g is the last-top-visible group.
func (g *Group) IsLastTopVisible() bool {
	return g.db != nil && g.db.Meta.HasLastTopVisibleGroup && g.db.Meta.LastTopVisibleGroup == g.uuid
}

// Commit updates LastModificationTime/LastAccessTime.
func (g *Group) Commit() {
	g.Times.Touch()
}

// Clone returns a deep copy of g and, per opts, its children. The copy is
// detached (nil parent) until the caller attaches it with AddGroup.
func (g *Group) Clone(opts CloneOptions) *Group {
	clone := &Group{
		objectBase:              g.objectBase,
		Name:                     g.Name,
		Notes:                    g.Notes,
		IsExpanded:               g.IsExpanded,
		DefaultAutoTypeSequence:  g.DefaultAutoTypeSequence,
		LastTopVisibleEntry:      g.LastTopVisibleEntry,
		HasLastTopVisibleEntry:   g.HasLastTopVisibleEntry,
		PreviousParentGroup:      g.PreviousParentGroup,
		HasPreviousParent:        g.HasPreviousParent,
		Times:                    g.Times,
		ChildOrderEntriesFirst:   g.ChildOrderEntriesFirst,
	}
	if g.EnableAutoType != nil {
		v := *g.EnableAutoType
		clone.EnableAutoType = &v
	}
	if g.EnableSearching != nil {
		v := *g.EnableSearching
		clone.EnableSearching = &v
	}
	clone.customData = g.CustomData().Clone()
	clone.parent = nil
	if opts.NewUUID {
		clone.uuid = kdbxtypes.MustNewUUID()
	}
	if opts.IncludeEntries {
		for _, e := range g.Entries {
			clone.AddEntry(e.Clone(opts))
		}
	}
	if opts.IncludeGroups {
		for _, c := range g.Groups {
			clone.AddGroup(c.Clone(opts))
		}
	}
	return clone
}

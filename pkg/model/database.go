package model

import (
	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/internal/safe"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// MemoryProtection is the per-database default protect policy for the five
// standard string fields; only Password is protected by default.
type MemoryProtection struct {
	ProtectTitle    bool
	ProtectUserName bool
	ProtectPassword bool
	ProtectURL      bool
	ProtectNotes    bool
}

// DefaultMemoryProtection matches spec.md §3: only Password protected.
func DefaultMemoryProtection() MemoryProtection {
	return MemoryProtection{ProtectPassword: true}
}

func (m MemoryProtection) protectFor(field string) bool {
	switch field {
	case FieldTitle:
		return m.ProtectTitle
	case FieldUserName:
		return m.ProtectUserName
	case FieldPassword:
		return m.ProtectPassword
	case FieldURL:
		return m.ProtectURL
	case FieldNotes:
		return m.ProtectNotes
	}
	return false
}

// CustomIcon is one entry of the database's custom-icon pool.
type CustomIcon struct {
	UUID                 kdbxtypes.UUID
	Data                 []byte
	Name                 string
	HasName              bool
	LastModificationTime kdbxtypes.Timestamp
	HasModificationTime  bool
}

// Meta holds the database-wide metadata named in spec.md §3.
type Meta struct {
	Generator string

	DatabaseName               string
	DatabaseNameChanged         kdbxtypes.Timestamp
	DatabaseDescription         string
	DatabaseDescriptionChanged  kdbxtypes.Timestamp
	DefaultUserName             string
	DefaultUserNameChanged      kdbxtypes.Timestamp
	Color                       string

	MasterKeyChanged     kdbxtypes.Timestamp
	MasterKeyChangeRec   int64
	MasterKeyChangeForce int64

	MemoryProtection MemoryProtection
	CustomIcons      []CustomIcon

	RecycleBinEnabled   bool
	HasRecycleBinUUID   bool
	RecycleBinUUID      kdbxtypes.UUID
	RecycleBinChanged   kdbxtypes.Timestamp

	HasEntryTemplatesGroup     bool
	EntryTemplatesGroup        kdbxtypes.UUID
	EntryTemplatesGroupChanged kdbxtypes.Timestamp

	HistoryMaxItems int
	HistoryMaxSize  int64

	HasLastSelectedGroup   bool
	LastSelectedGroup      kdbxtypes.UUID
	HasLastTopVisibleGroup bool
	LastTopVisibleGroup    kdbxtypes.UUID

	SettingsChanged kdbxtypes.Timestamp

	CustomData *CustomData

	DeletedObjects map[kdbxtypes.UUID]kdbxtypes.Timestamp
}

// DefaultMeta returns metadata with the documented defaults: 10 max
// history items, 6 MiB max history size, Password protected.
func DefaultMeta() Meta {
	return Meta{
		Generator:        "kdbxkit",
		MemoryProtection: DefaultMemoryProtection(),
		HistoryMaxItems:  10,
		HistoryMaxSize:   6 * 1024 * 1024,
		CustomData:       NewCustomData(),
		DeletedObjects:   make(map[kdbxtypes.UUID]kdbxtypes.Timestamp),
	}
}

// Database is the root handle: outer-header state, metadata, the object
// tree, and the Safe holding protected-string ciphertext while locked.
type Database struct {
	Version          kdbxtypes.FileVersion
	CipherID         kdbxtypes.UUID
	Compressed       bool
	KDFParameters    *format.VariantMap
	PublicCustomData *format.VariantMap

	Meta Meta
	Root *Group

	Safe   *safe.Safe
	Locked bool
}

// New returns an empty database: a fresh Safe, default metadata, and an
// autovivified "Root" group.
func New() *Database {
	s, err := safe.New()
	if err != nil {
		panic(err)
	}
	db := &Database{
		Version:    kdbxtypes.Version4_1,
		CipherID:   kdbxtypes.CipherChaCha20,
		Compressed: true,
		Meta:       DefaultMeta(),
		Safe:       s,
	}
	db.Root = NewGroup(db, "Root")
	return db
}

// AllEntries returns every current entry in the tree (history excluded),
// groups-then-entries document order per group, respecting each group's
// ChildOrderEntriesFirst flag.
func (db *Database) AllEntries() []*Entry {
	var out []*Entry
	db.WalkDocumentOrder(func(e *Entry, historyIndex int) {
		if historyIndex < 0 {
			out = append(out, e)
		}
	})
	return out
}

// AllGroups returns every group in the tree, root first, pre-order.
func (db *Database) AllGroups() []*Group {
	var out []*Group
	db.WalkGroups(func(g *Group) {
		out = append(out, g)
	})
	return out
}

// WalkGroups visits every group in the tree in document order (honoring
// ChildOrderEntriesFirst only affects entry/subgroup interleaving, not
// group pre-order visitation here).
func (db *Database) WalkGroups(fn func(*Group)) {
	if db.Root == nil {
		return
	}
	var walk func(g *Group)
	walk = func(g *Group) {
		fn(g)
		for _, c := range g.Groups {
			walk(c)
		}
	}
	walk(db.Root)
}

// WalkDocumentOrder visits every current entry in the exact order its
// protected strings must be consumed from (or fed into) the inner stream:
// group-by-group, honoring each group's ChildOrderEntriesFirst, entries
// before their own history.
func (db *Database) WalkDocumentOrder(fn func(e *Entry, historyIndex int)) {
	if db.Root == nil {
		return
	}
	var walk func(g *Group)
	walkEntry := func(e *Entry) {
		fn(e, -1)
		for i := range e.History {
			fn(e.History[i], i)
		}
	}
	walk = func(g *Group) {
		if g.ChildOrderEntriesFirst {
			for _, e := range g.Entries {
				walkEntry(e)
			}
			for _, c := range g.Groups {
				walk(c)
			}
		} else {
			for _, c := range g.Groups {
				walk(c)
			}
			for _, e := range g.Entries {
				walkEntry(e)
			}
		}
	}
	walk(db.Root)
}

// FindByUUID returns the group or entry (current version only) with the
// given UUID.
func (db *Database) FindByUUID(id kdbxtypes.UUID) (Object, bool) {
	var found Object
	db.WalkGroups(func(g *Group) {
		if found != nil {
			return
		}
		if g.uuid == id {
			found = g
			return
		}
		for _, e := range g.Entries {
			if e.uuid == id {
				found = e
				return
			}
		}
	})
	return found, found != nil
}

func (db *Database) findEntry(id kdbxtypes.UUID) *Entry {
	obj, ok := db.FindByUUID(id)
	if !ok {
		return nil
	}
	e, ok := obj.(*Entry)
	if !ok {
		return nil
	}
	return e
}

func (db *Database) findEntryForRef(ref safe.StringRef) *Entry {
	e := db.findEntry(ref.EntryUUID)
	if e == nil {
		return nil
	}
	if ref.HistoryIndex < 0 {
		return e
	}
	if ref.HistoryIndex >= len(e.History) {
		return nil
	}
	return e.History[ref.HistoryIndex]
}

// recycleBin returns the recycle-bin group, autovivifying it as a new
// child of root (with searching/auto-type disabled) on first use.
func (db *Database) recycleBin() *Group {
	if db.Meta.HasRecycleBinUUID {
		if obj, ok := db.FindByUUID(db.Meta.RecycleBinUUID); ok {
			if g, ok := obj.(*Group); ok {
				return g
			}
		}
	}
	bin := NewGroup(db, "Recycle Bin")
	no := false
	bin.EnableSearching = &no
	bin.EnableAutoType = &no
	db.Root.AddGroup(bin)
	db.Meta.HasRecycleBinUUID = true
	db.Meta.RecycleBinUUID = bin.uuid
	db.Meta.RecycleBinChanged = kdbxtypes.Now()
	return bin
}

// RemoveEntry detaches e from its parent. If recycling is enabled and e
// isn't already inside the recycle bin, it's moved there; otherwise it's
// hard-detached and recorded in DeletedObjects.
func (db *Database) RemoveEntry(e *Entry) {
	if e.parent == nil {
		return
	}
	if db.Meta.RecycleBinEnabled && !e.parent.IsRecycleBin() {
		bin := db.recycleBin()
		e.parent.RemoveEntry(e)
		bin.AddEntry(e)
		return
	}
	e.parent.RemoveEntry(e)
	db.Meta.DeletedObjects[e.uuid] = kdbxtypes.Now()
}

// RemoveGroup detaches g (and its subtree) from its parent, with the same
// recycle-or-delete policy as RemoveEntry.
func (db *Database) RemoveGroup(g *Group) {
	if g.parent == nil {
		return
	}
	if db.Meta.RecycleBinEnabled && !g.parent.IsRecycleBin() && !g.IsRecycleBin() {
		bin := db.recycleBin()
		g.parent.RemoveGroup(g)
		bin.AddGroup(g)
		return
	}
	g.parent.RemoveGroup(g)
	db.Meta.DeletedObjects[g.uuid] = kdbxtypes.Now()
}

// ChangeEntryUUID assigns e a new UUID and rewrites every {REF:*@I:old}
// token in every other entry's strings to point at the new UUID.
func (db *Database) ChangeEntryUUID(e *Entry, newUUID kdbxtypes.UUID) {
	old := e.uuid
	e.uuid = newUUID
	for _, other := range db.AllEntries() {
		for _, k := range other.Strings.Keys() {
			v, _ := other.Strings.Get(k)
			if !v.HasValue {
				continue
			}
			rewritten := rewriteUUIDRefs(v.Value, old, newUUID)
			if rewritten != v.Value {
				v.Value = rewritten
				other.Strings.Set(k, v)
			}
		}
	}
}

// ChangeGroupUUID assigns g a new UUID and rewrites every pointer to the
// old UUID: recycle-bin, templates, last-selected, last-top-visible, and
// every previous_parent_group / last_top_visible_entry field.
func (db *Database) ChangeGroupUUID(g *Group, newUUID kdbxtypes.UUID) {
	old := g.uuid
	g.uuid = newUUID

	if db.Meta.HasRecycleBinUUID && db.Meta.RecycleBinUUID == old {
		db.Meta.RecycleBinUUID = newUUID
	}
	if db.Meta.HasEntryTemplatesGroup && db.Meta.EntryTemplatesGroup == old {
		db.Meta.EntryTemplatesGroup = newUUID
	}
	if db.Meta.HasLastSelectedGroup && db.Meta.LastSelectedGroup == old {
		db.Meta.LastSelectedGroup = newUUID
	}
	if db.Meta.HasLastTopVisibleGroup && db.Meta.LastTopVisibleGroup == old {
		db.Meta.LastTopVisibleGroup = newUUID
	}
	for _, other := range db.AllGroups() {
		if other.HasPreviousParent && other.PreviousParentGroup == old {
			other.PreviousParentGroup = newUUID
		}
		if other.HasLastTopVisibleEntry && other.LastTopVisibleEntry == old {
			other.LastTopVisibleEntry = newUUID
		}
	}
	for _, other := range db.AllEntries() {
		if other.HasPreviousParent && other.PreviousParentGroup == old {
			other.PreviousParentGroup = newUUID
		}
	}
}

// MinimumVersion computes the lowest file version this database's current
// state can be saved as, per spec.md §3.
func (db *Database) MinimumVersion() kdbxtypes.FileVersion {
	v := kdbxtypes.Version3_1

	kdfIsAESKDF := true
	if db.KDFParameters != nil {
		if id, ok := db.KDFParameters.GetBytes("$UUID"); ok {
			u, err := kdbxtypes.UUIDFromBytes(id)
			kdfIsAESKDF = err == nil && u == kdbxtypes.KDFAESKDF
		}
	}
	needsV4 := !kdfIsAESKDF || (db.PublicCustomData != nil && len(db.PublicCustomData.Entries()) > 0)
	if !needsV4 {
		for _, g := range db.AllGroups() {
			if g.CustomData().Len() > 0 {
				needsV4 = true
				break
			}
		}
	}
	if !needsV4 {
		for _, e := range db.AllEntries() {
			if e.CustomData().Len() > 0 {
				needsV4 = true
				break
			}
		}
	}
	if needsV4 && v.Less(kdbxtypes.Version4_0) {
		v = kdbxtypes.Version4_0
	}

	needsV41 := false
	for _, icon := range db.Meta.CustomIcons {
		if icon.HasName || icon.HasModificationTime {
			needsV41 = true
			break
		}
	}
	if !needsV41 {
		for _, g := range db.AllGroups() {
			if g.HasPreviousParent || len(g.tags) > 0 {
				needsV41 = true
				break
			}
		}
	}
	if !needsV41 {
		for _, e := range db.AllEntries() {
			if e.HasPreviousParent || len(e.tags) > 0 || !e.QualityCheck {
				needsV41 = true
				break
			}
		}
	}
	if !needsV41 {
		for _, g := range db.AllGroups() {
			for _, k := range g.CustomData().Keys() {
				item, _ := g.CustomData().Get(k)
				if item.HasModificationTime {
					needsV41 = true
					break
				}
			}
		}
	}
	if !needsV41 {
		for _, e := range db.AllEntries() {
			for _, k := range e.CustomData().Keys() {
				item, _ := e.CustomData().Get(k)
				if item.HasModificationTime {
					needsV41 = true
					break
				}
			}
		}
	}
	if needsV41 && v.Less(kdbxtypes.Version4_1) {
		v = kdbxtypes.Version4_1
	}
	return v
}

// Lock protects every current and historical protected string through the
// Safe, clearing their plaintext Value.
func (db *Database) Lock() error {
	if db.Locked {
		return nil
	}
	var firstErr error
	db.WalkDocumentOrder(func(e *Entry, historyIndex int) {
		if firstErr != nil {
			return
		}
		for _, k := range e.Strings.Keys() {
			v, _ := e.Strings.Get(k)
			if !v.Protect || !v.HasValue {
				continue
			}
			ref := safe.StringRef{EntryUUID: e.uuid, HistoryIndex: historyIndex, Field: k}
			ct, err := db.Safe.Protect(ref, []byte(v.Value))
			if err != nil {
				firstErr = err
				return
			}
			v.CipherText = ct
			v.Value = ""
			v.HasValue = false
			e.Strings.Set(k, v)
		}
	})
	if firstErr != nil {
		return firstErr
	}
	db.Locked = true
	return nil
}

// Unlock restores every protected string's plaintext from the Safe,
// atomically: either all succeed or none are modified.
func (db *Database) Unlock() error {
	if !db.Locked {
		return nil
	}
	err := db.Safe.Unlock(
		func(ref safe.StringRef) []byte {
			e := db.findEntryForRef(ref)
			if e == nil {
				return nil
			}
			v, _ := e.Strings.Get(ref.Field)
			return v.CipherText
		},
		func(ref safe.StringRef, plain []byte) {
			e := db.findEntryForRef(ref)
			if e == nil {
				return
			}
			v, _ := e.Strings.Get(ref.Field)
			v.Value = string(plain)
			v.HasValue = true
			e.Strings.Set(ref.Field, v)
		},
	)
	if err != nil {
		return err
	}
	db.Locked = false
	return nil
}

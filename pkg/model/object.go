package model

import "github.com/kdbxkit/kdbx/pkg/kdbxtypes"

// ObjectKind distinguishes the two concrete kinds in the Group/Entry sum
// type described in spec.md §9.
type ObjectKind int

const (
	KindGroup ObjectKind = iota
	KindEntry
)

// Object is the shared capability set both Group and Entry satisfy:
// identity, custom data, tree position, tagging, and removal. Polymorphic
// callers (the recycle bin, deleted-objects bookkeeping, generic `objects`
// iteration) work against this interface rather than switching on concrete
// type.
type Object interface {
	Kind() ObjectKind
	ID() string
	UUID() kdbxtypes.UUID
	SetUUID(kdbxtypes.UUID)
	Parent() *Group
	Database() *Database
	CustomData() *CustomData
	CustomDataValue(key string) (string, bool)
	TagList() []string
	CustomIcon() (kdbxtypes.UUID, bool)
	Lineage() []*Group
	Remove()
}

// objectBase holds the fields shared by Group and Entry; both embed it and
// get its methods promoted to satisfy most of Object, implementing only
// Kind/Remove themselves since those differ per concrete type.
type objectBase struct {
	uuid           kdbxtypes.UUID
	parent         *Group
	db             *Database
	customData     *CustomData
	tags           []string
	customIcon     kdbxtypes.UUID
	hasCustomIcon  bool
}

func newObjectBase(db *Database) objectBase {
	return objectBase{uuid: kdbxtypes.MustNewUUID(), db: db, customData: NewCustomData()}
}

func (o *objectBase) ID() string { return o.uuid.String() }

func (o *objectBase) UUID() kdbxtypes.UUID { return o.uuid }

// SetUUID is the low-level field set; it does not rewrite references. Use
// Database.ChangeEntryUUID / ChangeGroupUUID for the invariant-preserving
// version spec.md §3 requires.
func (o *objectBase) SetUUID(id kdbxtypes.UUID) { o.uuid = id }

func (o *objectBase) Parent() *Group { return o.parent }

func (o *objectBase) Database() *Database { return o.db }

func (o *objectBase) CustomData() *CustomData {
	if o.customData == nil {
		o.customData = NewCustomData()
	}
	return o.customData
}

func (o *objectBase) CustomDataValue(key string) (string, bool) {
	item, ok := o.CustomData().Get(key)
	if !ok {
		return "", false
	}
	return item.Value, true
}

func (o *objectBase) TagList() []string { return o.tags }

// SetTags replaces the tag list wholesale; used by the inner codec when
// building a database from a parsed Tags element (a comma/semicolon
// separated string split ahead of this call).
func (o *objectBase) SetTags(tags []string) { o.tags = tags }

// SetCustomIcon assigns a custom-icon UUID reference.
func (o *objectBase) SetCustomIcon(id kdbxtypes.UUID) {
	o.customIcon = id
	o.hasCustomIcon = true
}

// ClearCustomIcon removes any custom-icon reference.
func (o *objectBase) ClearCustomIcon() {
	o.customIcon = kdbxtypes.UUID{}
	o.hasCustomIcon = false
}

func (o *objectBase) CustomIcon() (kdbxtypes.UUID, bool) { return o.customIcon, o.hasCustomIcon }

// Lineage returns the chain of ancestor groups from immediate parent up to
// (and including) the root, excluding the object itself.
func (o *objectBase) Lineage() []*Group {
	var out []*Group
	for g := o.parent; g != nil; g = g.parent {
		out = append(out, g)
	}
	return out
}

// CloneOptions controls Entry.Clone (and Group.Clone). The zero value
// clones the current fields only: no history, no UUID change, no
// relabeling, no field-reference substitution.
type CloneOptions struct {
	IncludeEntries    bool
	IncludeGroups     bool
	IncludeHistory    bool
	NewUUID           bool
	Relabel           string // appended to Title if non-empty
	ReferencePassword bool   // replace Password with a {REF:P@I:...} token
	ReferenceUsername bool   // replace UserName with a {REF:U@I:...} token
}

// DefaultCloneOptions returns the options a straightforward duplicate
// ("paste as new entry") uses: new UUID, full history carried over, no
// relabeling or reference substitution.
func DefaultCloneOptions() CloneOptions {
	return CloneOptions{
		IncludeEntries: true,
		IncludeGroups:  true,
		IncludeHistory: true,
		NewUUID:        true,
	}
}

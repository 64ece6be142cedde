package model

import (
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// Standard string field keys, always conceptually present on every entry.
const (
	FieldTitle    = "Title"
	FieldUserName = "UserName"
	FieldPassword = "Password"
	FieldURL      = "URL"
	FieldNotes    = "Notes"
)

// AutoType is an entry's auto-type configuration: whether it's enabled, the
// default keystroke sequence, and per-window associations.
type AutoType struct {
	Enabled                 bool
	DataTransferObfuscation int32
	DefaultSequence         string
	Associations            []AutoTypeAssociation
}

// AutoTypeAssociation binds a window title match to a keystroke sequence.
type AutoTypeAssociation struct {
	Window             string
	KeystrokeSequence string
}

// Entry is a leaf object: a UUID-identified bag of string fields, binary
// attachments, and metadata, with an ordered list of prior versions of
// itself in History.
type Entry struct {
	objectBase

	IconID              int32
	ForegroundColor     string
	BackgroundColor     string
	OverrideURL         string
	QualityCheck        bool // v4.1 trigger when false
	AutoType            AutoType
	PreviousParentGroup kdbxtypes.UUID
	HasPreviousParent   bool

	Strings  *Strings
	Binaries *Binaries
	Times    Times

	History []*Entry

	// ChildOrderEntriesFirst is unused on Entry (group-only) but kept absent
	// here deliberately; see Group.ChildOrderEntriesFirst.
}

// NewEntry returns a new entry with a fresh UUID, empty strings/binaries,
// and QualityCheck defaulting true.
func NewEntry(db *Database) *Entry {
	return &Entry{
		objectBase:   newObjectBase(db),
		QualityCheck: true,
		Strings:      NewStrings(),
		Binaries:     NewBinaries(),
		Times:        NewTimes(),
	}
}

func (e *Entry) Kind() ObjectKind { return KindEntry }

// Remove detaches the entry from its parent group (if any) via the owning
// database, which applies recycle-bin-or-delete-record semantics.
func (e *Entry) Remove() {
	if e.db != nil {
		e.db.RemoveEntry(e)
	}
}

// String returns the raw protected string at key.
func (e *Entry) String(key string) (ProtectedString, bool) {
	return e.Strings.Get(key)
}

// StringValue returns the plaintext value at key, auto-vivifying the five
// standard fields with the database's memory-protection policy default if
// absent (an empty, unprotected-unless-policy-says-otherwise value).
func (e *Entry) StringValue(key string) (string, bool) {
	if v, ok := e.Strings.Get(key); ok {
		return v.Value, v.HasValue
	}
	if !isStandardField(key) {
		return "", false
	}
	protect := false
	if e.db != nil {
		protect = e.db.Meta.MemoryProtection.protectFor(key)
	}
	e.Strings.Set(key, ProtectedString{Value: "", HasValue: true, Protect: protect})
	return "", true
}

func isStandardField(key string) bool {
	switch key {
	case FieldTitle, FieldUserName, FieldPassword, FieldURL, FieldNotes:
		return true
	}
	return false
}

// SetString sets key's value and protect flag.
func (e *Entry) SetString(key, value string, protect bool) {
	e.Strings.Set(key, ProtectedString{Value: value, HasValue: true, Protect: protect})
}

// Title/UserName/Password/URL/Notes are StringValue convenience wrappers
// over the five standard fields.
func (e *Entry) Title() string    { v, _ := e.StringValue(FieldTitle); return v }
func (e *Entry) UserName() string { v, _ := e.StringValue(FieldUserName); return v }
func (e *Entry) Password() string { v, _ := e.StringValue(FieldPassword); return v }
func (e *Entry) URL() string      { v, _ := e.StringValue(FieldURL); return v }
func (e *Entry) Notes() string    { v, _ := e.StringValue(FieldNotes); return v }

// Binary dereferences a pool-indexed or embedded binary by key.
func (e *Entry) Binary(key string) ([]byte, bool) {
	b, ok := e.Binaries.Get(key)
	if !ok {
		return nil, false
	}
	return b.Value, true
}

// SetBinary attaches a binary under key.
func (e *Entry) SetBinary(key string, value []byte, protect bool) {
	e.Binaries.Set(key, BinaryRef{Value: value, Protect: protect})
}

// CurrentEntry returns the entry sharing this UUID in its parent's entry
// list (returns itself if it's already the current version, which is the
// only way model code ever holds an *Entry; History entries don't carry a
// parent and return nil).
func (e *Entry) CurrentEntry() *Entry {
	if e.parent == nil {
		return nil
	}
	for _, sibling := range e.parent.Entries {
		if sibling.uuid == e.uuid {
			return sibling
		}
	}
	return nil
}

// Size returns a coarse byte estimate: UTF-8 length of every string key and
// value, every binary's length, and every auto-type association's fields.
// Used for history size-cap decisions (spec.md §9 standardizes on UTF-8
// byte length).
func (e *Entry) Size() int64 {
	var n int64
	for _, k := range e.Strings.Keys() {
		v, _ := e.Strings.Get(k)
		n += int64(len(k)) + int64(len(v.Value))
	}
	for _, k := range e.Binaries.Keys() {
		v, _ := e.Binaries.Get(k)
		n += int64(len(k)) + int64(len(v.Value))
	}
	for _, a := range e.AutoType.Associations {
		n += int64(len(a.Window)) + int64(len(a.KeystrokeSequence))
	}
	n += int64(len(e.AutoType.DefaultSequence))
	return n
}

// AddHistoricalEntry appends a pre-mutation snapshot to the front of the
// history's logical timeline (end of the slice, oldest-first by
// convention matching on-disk order).
func (e *Entry) AddHistoricalEntry(snapshot *Entry) {
	snapshot.parent = nil
	snapshot.db = e.db
	e.History = append(e.History, snapshot)
}

// PruneHistory removes oldest-first entries until both caps hold. A
// negative cap means "no limit." maxAge is in the same units as
// kdbxtypes.Timestamp (evaluated against CreationTime).
func (e *Entry) PruneHistory(maxItems int, maxSize int64, maxAgeSeconds int64) {
	for maxItems >= 0 && len(e.History) > maxItems {
		e.History = e.History[1:]
	}
	if maxSize >= 0 {
		for totalHistorySize(e.History) > maxSize && len(e.History) > 0 {
			e.History = e.History[1:]
		}
	}
	if maxAgeSeconds >= 0 {
		cutoff := kdbxtypes.Now().Ticks() - maxAgeSeconds
		kept := e.History[:0]
		for _, h := range e.History {
			if h.Times.CreationTime.Ticks() >= cutoff {
				kept = append(kept, h)
			}
		}
		e.History = kept
	}
}

func totalHistorySize(history []*Entry) int64 {
	var total int64
	for _, h := range history {
		total += h.Size()
	}
	return total
}

// Commit updates LastModificationTime/LastAccessTime, snapshots the
// pre-commit state into History, and applies the database's history caps.
func (e *Entry) Commit() {
	if e.db == nil {
		e.Times.Touch()
		return
	}
	snapshot := e.cloneForHistory()
	e.Times.Touch()
	e.AddHistoricalEntry(snapshot)
	m := e.db.Meta
	e.PruneHistory(m.HistoryMaxItems, m.HistoryMaxSize, -1)
}

func (e *Entry) cloneForHistory() *Entry {
	clone := &Entry{
		objectBase:          e.objectBase,
		IconID:              e.IconID,
		ForegroundColor:     e.ForegroundColor,
		BackgroundColor:     e.BackgroundColor,
		OverrideURL:         e.OverrideURL,
		QualityCheck:        e.QualityCheck,
		AutoType:            e.AutoType,
		PreviousParentGroup: e.PreviousParentGroup,
		HasPreviousParent:   e.HasPreviousParent,
		Strings:             e.Strings.Clone(),
		Binaries:            e.Binaries.Clone(),
		Times:                e.Times,
	}
	clone.customData = e.CustomData().Clone()
	clone.parent = nil
	clone.History = nil
	return clone
}

// Clone returns a deep copy per opts. History/parent are excluded by
// default per spec.md §5; ReferencePassword/ReferenceUsername replace the
// copied value with a {REF:...@I:...} token pointing back at the original
// instead of duplicating the secret.
func (e *Entry) Clone(opts CloneOptions) *Entry {
	clone := e.cloneForHistory()
	if opts.NewUUID {
		clone.uuid = kdbxtypes.MustNewUUID()
	}
	if opts.IncludeHistory {
		for _, h := range e.History {
			clone.History = append(clone.History, h.cloneForHistory())
		}
	}
	if opts.Relabel != "" {
		clone.SetString(FieldTitle, clone.Title()+opts.Relabel, false)
	}
	if opts.ReferencePassword {
		clone.SetString(FieldPassword, refToken("P", e.uuid), e.passwordProtected())
	}
	if opts.ReferenceUsername {
		clone.SetString(FieldUserName, refToken("U", e.uuid), false)
	}
	return clone
}

func (e *Entry) passwordProtected() bool {
	v, _ := e.Strings.Get(FieldPassword)
	return v.Protect
}

func refToken(field string, id kdbxtypes.UUID) string {
	return "{REF:" + field + "@I:" + id.String() + "}"
}

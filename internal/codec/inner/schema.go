package inner

import "encoding/xml"

// The types below mirror the on-disk XML element tree as closely as
// plain struct tags allow. Typed conversion (Base64 UUIDs/bytes, tick
// timestamps, tri-state booleans, protected-string decryption) happens in
// convert.go, not here: these structs hold the raw textual form so one
// decode pass captures everything encoding/xml's reflection can give us,
// and docGroup's custom UnmarshalXML only has to special-case the one
// thing struct tags can't express (interleaved Group/Entry child order).

type docFile struct {
	XMLName xml.Name `xml:"KeePassFile"`
	Meta    docMeta  `xml:"Meta"`
	Root    docRoot  `xml:"Root"`
}

type docRoot struct {
	Group          docGroup          `xml:"Group"`
	DeletedObjects docDeletedObjects `xml:"DeletedObjects"`
}

type docDeletedObjects struct {
	Items []docDeletedObject `xml:"DeletedObject"`
}

type docDeletedObject struct {
	UUID         string `xml:"UUID"`
	DeletionTime string `xml:"DeletionTime"`
}

type docMeta struct {
	Generator                  string             `xml:"Generator"`
	DatabaseName               string             `xml:"DatabaseName"`
	DatabaseNameChanged         string             `xml:"DatabaseNameChanged"`
	DatabaseDescription         string             `xml:"DatabaseDescription"`
	DatabaseDescriptionChanged  string             `xml:"DatabaseDescriptionChanged"`
	DefaultUserName             string             `xml:"DefaultUserName"`
	DefaultUserNameChanged      string             `xml:"DefaultUserNameChanged"`
	Color                       string             `xml:"Color"`
	MasterKeyChanged            string             `xml:"MasterKeyChanged"`
	MasterKeyChangeRec          int64              `xml:"MasterKeyChangeRec"`
	MasterKeyChangeForce        int64              `xml:"MasterKeyChangeForce"`
	MemoryProtection            docMemoryProtection `xml:"MemoryProtection"`
	CustomIcons                 docCustomIcons      `xml:"CustomIcons"`
	RecycleBinEnabled           string             `xml:"RecycleBinEnabled"`
	RecycleBinUUID              string             `xml:"RecycleBinUUID"`
	RecycleBinChanged            string             `xml:"RecycleBinChanged"`
	EntryTemplatesGroup          string             `xml:"EntryTemplatesGroup"`
	EntryTemplatesGroupChanged   string             `xml:"EntryTemplatesGroupChanged"`
	HistoryMaxItems              int                `xml:"HistoryMaxItems"`
	HistoryMaxSize               int64              `xml:"HistoryMaxSize"`
	LastSelectedGroup            string             `xml:"LastSelectedGroup"`
	LastTopVisibleGroup          string             `xml:"LastTopVisibleGroup"`
	SettingsChanged               string             `xml:"SettingsChanged"`
	Binaries                     docMetaBinaries    `xml:"Binaries"`
	CustomData                   docCustomData      `xml:"CustomData"`
}

type docMemoryProtection struct {
	ProtectTitle    string `xml:"ProtectTitle"`
	ProtectUserName string `xml:"ProtectUserName"`
	ProtectPassword string `xml:"ProtectPassword"`
	ProtectURL      string `xml:"ProtectURL"`
	ProtectNotes    string `xml:"ProtectNotes"`
}

type docCustomIcons struct {
	Icons []docCustomIcon `xml:"Icon"`
}

type docCustomIcon struct {
	UUID                 string `xml:"UUID"`
	Data                 string `xml:"Data"`
	Name                 string `xml:"Name"`
	LastModificationTime string `xml:"LastModificationTime"`
}

// docMetaBinaries is the v3 Meta-level binary pool; v4 files carry binary
// data in the outer inner-header instead and leave this element absent.
type docMetaBinaries struct {
	Items []docMetaBinary `xml:"Binary"`
}

type docMetaBinary struct {
	ID         string `xml:"ID,attr"`
	Compressed string `xml:"Compressed,attr"`
	Text       string `xml:",chardata"`
}

type docCustomData struct {
	Items []docCustomDataItem `xml:"Item"`
}

type docCustomDataItem struct {
	Key                  string `xml:"Key"`
	Value                string `xml:"Value"`
	LastModificationTime string `xml:"LastModificationTime"`
}

type docTimes struct {
	CreationTime         string `xml:"CreationTime"`
	LastModificationTime string `xml:"LastModificationTime"`
	LastAccessTime       string `xml:"LastAccessTime"`
	ExpiryTime           string `xml:"ExpiryTime"`
	Expires              string `xml:"Expires"`
	UsageCount           string `xml:"UsageCount"`
	LocationChanged      string `xml:"LocationChanged"`
}

// docGroup mirrors model.Group. The xml tags on Groups and Entries only
// drive xml.Marshal; decoding through them would fill two separately
// ordered slices and discard whether a Group or an Entry element came
// first in document order, which is exactly the bit ChildOrderEntriesFirst
// exists to capture. UnmarshalXML below token-walks the element instead.
type docGroup struct {
	UUID                    string        `xml:"UUID"`
	Name                    string        `xml:"Name"`
	Notes                   string        `xml:"Notes"`
	IconID                  int32         `xml:"IconID"`
	Times                   docTimes      `xml:"Times"`
	IsExpanded              string        `xml:"IsExpanded"`
	DefaultAutoTypeSequence string        `xml:"DefaultAutoTypeSequence"`
	EnableAutoType          string        `xml:"EnableAutoType"`
	EnableSearching         string        `xml:"EnableSearching"`
	LastTopVisibleEntry     string        `xml:"LastTopVisibleEntry"`
	PreviousParentGroup     string        `xml:"PreviousParentGroup"`
	Tags                    string        `xml:"Tags"`
	CustomData              docCustomData `xml:"CustomData"`
	CustomIconUUID          string        `xml:"CustomIconUUID"`

	Groups                 []docGroup `xml:"Group"`
	Entries                []docEntry `xml:"Entry"`
	ChildOrderEntriesFirst bool       `xml:"-"`
}

// docGroupScalar holds every docGroup field encoding/xml can decode by
// plain struct tag; UnmarshalXML delegates to it for everything except
// the Group/Entry children.
type docGroupScalar struct {
	UUID                    string        `xml:"UUID"`
	Name                    string        `xml:"Name"`
	Notes                   string        `xml:"Notes"`
	IconID                  int32         `xml:"IconID"`
	Times                   docTimes      `xml:"Times"`
	IsExpanded              string        `xml:"IsExpanded"`
	DefaultAutoTypeSequence string        `xml:"DefaultAutoTypeSequence"`
	EnableAutoType          string        `xml:"EnableAutoType"`
	EnableSearching         string        `xml:"EnableSearching"`
	LastTopVisibleEntry     string        `xml:"LastTopVisibleEntry"`
	PreviousParentGroup     string        `xml:"PreviousParentGroup"`
	Tags                    string        `xml:"Tags"`
	CustomData              docCustomData `xml:"CustomData"`
	CustomIconUUID          string        `xml:"CustomIconUUID"`
}

// UnmarshalXML decodes a Group element by first capturing every scalar
// field via docGroupScalar, then token-walking the remainder to collect
// Group/Entry children in whatever order they actually appear, recording
// which kind came first.
func (g *docGroup) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var scalar docGroupScalar
	firstChildSeen := false

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Group":
				var child docGroup
				if err := d.DecodeElement(&child, &t); err != nil {
					return err
				}
				if !firstChildSeen {
					firstChildSeen = true
				}
				g.Groups = append(g.Groups, child)
			case "Entry":
				var child docEntry
				if err := d.DecodeElement(&child, &t); err != nil {
					return err
				}
				if !firstChildSeen {
					firstChildSeen = true
					g.ChildOrderEntriesFirst = true
				}
				g.Entries = append(g.Entries, child)
			default:
				if err := decodeScalarField(d, &scalar, t); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				g.UUID = scalar.UUID
				g.Name = scalar.Name
				g.Notes = scalar.Notes
				g.IconID = scalar.IconID
				g.Times = scalar.Times
				g.IsExpanded = scalar.IsExpanded
				g.DefaultAutoTypeSequence = scalar.DefaultAutoTypeSequence
				g.EnableAutoType = scalar.EnableAutoType
				g.EnableSearching = scalar.EnableSearching
				g.LastTopVisibleEntry = scalar.LastTopVisibleEntry
				g.PreviousParentGroup = scalar.PreviousParentGroup
				g.Tags = scalar.Tags
				g.CustomData = scalar.CustomData
				g.CustomIconUUID = scalar.CustomIconUUID
				return nil
			}
		}
	}
}

// decodeScalarField decodes one element of a Group into whichever
// docGroupScalar field its element name maps to, one child at a time.
func decodeScalarField(d *xml.Decoder, scalar *docGroupScalar, start xml.StartElement) error {
	// encoding/xml has no public "decode into one named field" entry
	// point, so switch on the element name and DecodeElement straight
	// into the matching field; unknown elements are skipped.
	switch start.Name.Local {
	case "UUID":
		return d.DecodeElement(&scalar.UUID, &start)
	case "Name":
		return d.DecodeElement(&scalar.Name, &start)
	case "Notes":
		return d.DecodeElement(&scalar.Notes, &start)
	case "IconID":
		return d.DecodeElement(&scalar.IconID, &start)
	case "Times":
		return d.DecodeElement(&scalar.Times, &start)
	case "IsExpanded":
		return d.DecodeElement(&scalar.IsExpanded, &start)
	case "DefaultAutoTypeSequence":
		return d.DecodeElement(&scalar.DefaultAutoTypeSequence, &start)
	case "EnableAutoType":
		return d.DecodeElement(&scalar.EnableAutoType, &start)
	case "EnableSearching":
		return d.DecodeElement(&scalar.EnableSearching, &start)
	case "LastTopVisibleEntry":
		return d.DecodeElement(&scalar.LastTopVisibleEntry, &start)
	case "PreviousParentGroup":
		return d.DecodeElement(&scalar.PreviousParentGroup, &start)
	case "Tags":
		return d.DecodeElement(&scalar.Tags, &start)
	case "CustomData":
		return d.DecodeElement(&scalar.CustomData, &start)
	case "CustomIconUUID":
		return d.DecodeElement(&scalar.CustomIconUUID, &start)
	default:
		return d.Skip()
	}
}

type docEntry struct {
	UUID                string          `xml:"UUID"`
	IconID              int32           `xml:"IconID"`
	ForegroundColor     string          `xml:"ForegroundColor"`
	BackgroundColor     string          `xml:"BackgroundColor"`
	OverrideURL         string          `xml:"OverrideURL"`
	Tags                string          `xml:"Tags"`
	Times               docTimes        `xml:"Times"`
	Strings             []docString     `xml:"String"`
	Binaries            []docBinaryRef  `xml:"Binary"`
	AutoType            docAutoType     `xml:"AutoType"`
	CustomData          docCustomData   `xml:"CustomData"`
	CustomIconUUID      string          `xml:"CustomIconUUID"`
	PreviousParentGroup string          `xml:"PreviousParentGroup"`
	QualityCheck        string          `xml:"QualityCheck"`
	History             docHistory      `xml:"History"`
}

// docHistory wraps History's Entry list. History entries never carry
// their own nested History (spec.md §4.9's "suppressed" nesting); the
// schema simply omits the field from the type decoded here.
type docHistory struct {
	Entries []docHistoryEntry `xml:"Entry"`
}

// docHistoryEntry is docEntry minus History, matching what's actually on
// disk for a historical snapshot.
type docHistoryEntry struct {
	UUID                string         `xml:"UUID"`
	IconID              int32          `xml:"IconID"`
	ForegroundColor     string         `xml:"ForegroundColor"`
	BackgroundColor     string         `xml:"BackgroundColor"`
	OverrideURL         string         `xml:"OverrideURL"`
	Tags                string         `xml:"Tags"`
	Times               docTimes       `xml:"Times"`
	Strings             []docString    `xml:"String"`
	Binaries            []docBinaryRef `xml:"Binary"`
	AutoType            docAutoType    `xml:"AutoType"`
	CustomData          docCustomData  `xml:"CustomData"`
	CustomIconUUID      string         `xml:"CustomIconUUID"`
	PreviousParentGroup string         `xml:"PreviousParentGroup"`
	QualityCheck        string         `xml:"QualityCheck"`
}

type docString struct {
	Key   string   `xml:"Key"`
	Value docValue `xml:"Value"`
}

type docValue struct {
	Protected string `xml:"Protected,attr"`
	Text      string `xml:",chardata"`
}

type docBinaryRef struct {
	Key   string        `xml:"Key"`
	Value docBinaryValue `xml:"Value"`
}

type docBinaryValue struct {
	Ref        string `xml:"Ref,attr"`
	Compressed string `xml:"Compressed,attr"`
	Text       string `xml:",chardata"`
}

type docAutoType struct {
	Enabled                 string                   `xml:"Enabled"`
	DataTransferObfuscation int32                    `xml:"DataTransferObfuscation"`
	DefaultSequence         string                   `xml:"DefaultSequence"`
	Associations            []docAutoTypeAssociation `xml:"Association"`
}

type docAutoTypeAssociation struct {
	Window            string `xml:"Window"`
	KeystrokeSequence string `xml:"KeystrokeSequence"`
}

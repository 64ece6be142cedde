package inner

import (
	"bytes"
	"encoding/base64"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kdbxkit/kdbx/internal/crypto/cipher"
	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/internal/safe"
	"github.com/kdbxkit/kdbx/internal/stream"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
	"github.com/kdbxkit/kdbx/pkg/model"
)

// boolOf parses an XML Bool element's text ("True"/"False"); anything
// else (including an absent element, decoded as "") is false.
func boolOf(s string) bool { return strings.EqualFold(s, "True") }

func textOfBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// triBoolOf parses a tri-state Bool element: "" and the literal "null"
// both mean unset (nil); anything else is True/False.
func triBoolOf(s string) *bool {
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	v := boolOf(s)
	return &v
}

func textOfTriBool(b *bool) string {
	if b == nil {
		return "null"
	}
	return textOfBool(*b)
}

func decodeUUID(s string) kdbxtypes.UUID {
	if s == "" {
		return kdbxtypes.UUID{}
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return kdbxtypes.UUID{}
	}
	u, err := kdbxtypes.UUIDFromBytes(raw)
	if err != nil {
		return kdbxtypes.UUID{}
	}
	return u
}

func encodeUUID(u kdbxtypes.UUID) string {
	return base64.StdEncoding.EncodeToString(u.Bytes())
}

// decodeTime parses a Times sub-element: v4 files base64-encode an
// 8-byte little-endian tick count, v3 files use an ISO-8601 string.
func decodeTime(s string, version kdbxtypes.FileVersion) kdbxtypes.Timestamp {
	if s == "" {
		return kdbxtypes.Timestamp{}
	}
	if version.Major >= 4 {
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil || len(raw) < 8 {
			return kdbxtypes.Timestamp{}
		}
		return kdbxtypes.FromTicks(int64(format.ReadU64(raw, 0)))
	}
	t, err := time.Parse("2006-01-02T15:04:05Z", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return kdbxtypes.Timestamp{}
		}
	}
	return kdbxtypes.Timestamp{Time: t.UTC()}
}

func encodeTime(t kdbxtypes.Timestamp, version kdbxtypes.FileVersion) string {
	if t.IsZero() {
		t = kdbxtypes.Now()
	}
	if version.Major >= 4 {
		raw := make([]byte, 8)
		format.PutU64(raw, 0, uint64(t.Ticks()))
		return base64.StdEncoding.EncodeToString(raw)
	}
	return t.Time.UTC().Format("2006-01-02T15:04:05Z")
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func gunzip(data []byte) ([]byte, error) {
	r, err := stream.NewGzipReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := stream.NewGzipWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decoder carries the per-load state needed to convert the parsed XML
// tree into a *model.Database: the file version (for time encoding), the
// inner-stream cipher advancing in document order, and the resolved
// binary pool.
type decoder struct {
	version  kdbxtypes.FileVersion
	stream   cipher.StreamCipher
	v4Pool   []PoolBinary
	v3Pool   map[string]docMetaBinary
}

func (dec *decoder) convertMeta(src *docMeta, db *model.Database) error {
	m := &db.Meta
	m.Generator = src.Generator
	m.DatabaseName = src.DatabaseName
	m.DatabaseNameChanged = decodeTime(src.DatabaseNameChanged, dec.version)
	m.DatabaseDescription = src.DatabaseDescription
	m.DatabaseDescriptionChanged = decodeTime(src.DatabaseDescriptionChanged, dec.version)
	m.DefaultUserName = src.DefaultUserName
	m.DefaultUserNameChanged = decodeTime(src.DefaultUserNameChanged, dec.version)
	m.Color = src.Color
	m.MasterKeyChanged = decodeTime(src.MasterKeyChanged, dec.version)
	m.MasterKeyChangeRec = src.MasterKeyChangeRec
	m.MasterKeyChangeForce = src.MasterKeyChangeForce
	m.MemoryProtection = model.MemoryProtection{
		ProtectTitle:    boolOf(src.MemoryProtection.ProtectTitle),
		ProtectUserName: boolOf(src.MemoryProtection.ProtectUserName),
		ProtectPassword: boolOf(src.MemoryProtection.ProtectPassword),
		ProtectURL:      boolOf(src.MemoryProtection.ProtectURL),
		ProtectNotes:    boolOf(src.MemoryProtection.ProtectNotes),
	}
	for _, ic := range src.CustomIcons.Icons {
		data, err := base64.StdEncoding.DecodeString(ic.Data)
		if err != nil {
			data = nil
		}
		m.CustomIcons = append(m.CustomIcons, model.CustomIcon{
			UUID:                 decodeUUID(ic.UUID),
			Data:                 data,
			Name:                 ic.Name,
			HasName:              ic.Name != "",
			LastModificationTime: decodeTime(ic.LastModificationTime, dec.version),
			HasModificationTime:  ic.LastModificationTime != "",
		})
	}
	m.RecycleBinEnabled = boolOf(src.RecycleBinEnabled)
	if src.RecycleBinUUID != "" {
		m.RecycleBinUUID = decodeUUID(src.RecycleBinUUID)
		m.HasRecycleBinUUID = !m.RecycleBinUUID.IsNil()
	}
	m.RecycleBinChanged = decodeTime(src.RecycleBinChanged, dec.version)
	if src.EntryTemplatesGroup != "" {
		m.EntryTemplatesGroup = decodeUUID(src.EntryTemplatesGroup)
		m.HasEntryTemplatesGroup = !m.EntryTemplatesGroup.IsNil()
	}
	m.EntryTemplatesGroupChanged = decodeTime(src.EntryTemplatesGroupChanged, dec.version)
	if src.HistoryMaxItems != 0 {
		m.HistoryMaxItems = src.HistoryMaxItems
	}
	if src.HistoryMaxSize != 0 {
		m.HistoryMaxSize = src.HistoryMaxSize
	}
	if src.LastSelectedGroup != "" {
		m.LastSelectedGroup = decodeUUID(src.LastSelectedGroup)
		m.HasLastSelectedGroup = !m.LastSelectedGroup.IsNil()
	}
	if src.LastTopVisibleGroup != "" {
		m.LastTopVisibleGroup = decodeUUID(src.LastTopVisibleGroup)
		m.HasLastTopVisibleGroup = !m.LastTopVisibleGroup.IsNil()
	}
	m.SettingsChanged = decodeTime(src.SettingsChanged, dec.version)
	m.CustomData = model.NewCustomData()
	dec.convertCustomData(&src.CustomData, m.CustomData)

	dec.v3Pool = make(map[string]docMetaBinary, len(src.Binaries.Items))
	for _, b := range src.Binaries.Items {
		dec.v3Pool[b.ID] = b
	}
	return nil
}

func (dec *decoder) convertCustomData(src *docCustomData, out *model.CustomData) {
	for _, item := range src.Items {
		out.Set(item.Key, model.CustomDataItem{
			Value:                 item.Value,
			LastModificationTime:  decodeTime(item.LastModificationTime, dec.version),
			HasModificationTime:   item.LastModificationTime != "",
		})
	}
}

func (dec *decoder) convertTimes(src *docTimes) model.Times {
	return model.Times{
		CreationTime:         decodeTime(src.CreationTime, dec.version),
		LastModificationTime: decodeTime(src.LastModificationTime, dec.version),
		LastAccessTime:       decodeTime(src.LastAccessTime, dec.version),
		ExpiryTime:           decodeTime(src.ExpiryTime, dec.version),
		Expires:              boolOf(src.Expires),
		UsageCount:           parseInt64(src.UsageCount),
		LocationChanged:      decodeTime(src.LocationChanged, dec.version),
	}
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func (dec *decoder) convertGroup(src *docGroup, db *model.Database) *model.Group {
	g := model.NewGroup(db, src.Name)
	g.SetUUID(decodeUUID(src.UUID))
	g.Notes = src.Notes
	g.IconID = src.IconID
	g.Times = dec.convertTimes(&src.Times)
	g.IsExpanded = boolOf(src.IsExpanded)
	g.DefaultAutoTypeSequence = src.DefaultAutoTypeSequence
	g.EnableAutoType = triBoolOf(src.EnableAutoType)
	g.EnableSearching = triBoolOf(src.EnableSearching)
	if src.LastTopVisibleEntry != "" {
		g.LastTopVisibleEntry = decodeUUID(src.LastTopVisibleEntry)
		g.HasLastTopVisibleEntry = !g.LastTopVisibleEntry.IsNil()
	}
	if src.PreviousParentGroup != "" {
		g.PreviousParentGroup = decodeUUID(src.PreviousParentGroup)
		g.HasPreviousParent = !g.PreviousParentGroup.IsNil()
	}
	g.SetTags(splitTags(src.Tags))
	dec.convertCustomData(&src.CustomData, g.CustomData())
	if src.CustomIconUUID != "" {
		if id := decodeUUID(src.CustomIconUUID); !id.IsNil() {
			g.SetCustomIcon(id)
		}
	}
	g.ChildOrderEntriesFirst = src.ChildOrderEntriesFirst

	convertEntries := func() {
		for i := range src.Entries {
			g.AddEntry(dec.convertEntry(&src.Entries[i], db))
		}
	}
	convertGroups := func() {
		for i := range src.Groups {
			g.AddGroup(dec.convertGroup(&src.Groups[i], db))
		}
	}
	if src.ChildOrderEntriesFirst {
		convertEntries()
		convertGroups()
	} else {
		convertGroups()
		convertEntries()
	}
	return g
}

func (dec *decoder) convertEntry(src *docEntry, db *model.Database) *model.Entry {
	e := model.NewEntry(db)
	dec.fillEntryCommon(e, src.UUID, src.IconID, src.ForegroundColor, src.BackgroundColor,
		src.OverrideURL, src.Tags, &src.Times, src.Strings, src.Binaries, &src.AutoType,
		&src.CustomData, src.CustomIconUUID, src.PreviousParentGroup, src.QualityCheck)
	for i := range src.History.Entries {
		e.History = append(e.History, dec.convertHistoryEntry(&src.History.Entries[i], db))
	}
	return e
}

func (dec *decoder) convertHistoryEntry(src *docHistoryEntry, db *model.Database) *model.Entry {
	e := model.NewEntry(db)
	dec.fillEntryCommon(e, src.UUID, src.IconID, src.ForegroundColor, src.BackgroundColor,
		src.OverrideURL, src.Tags, &src.Times, src.Strings, src.Binaries, &src.AutoType,
		&src.CustomData, src.CustomIconUUID, src.PreviousParentGroup, src.QualityCheck)
	return e
}

func (dec *decoder) fillEntryCommon(
	e *model.Entry, uuid string, iconID int32, fg, bg, overrideURL, tags string,
	times *docTimes, strs []docString, bins []docBinaryRef, at *docAutoType,
	customData *docCustomData, customIcon, prevParent, qualityCheck string,
) {
	e.SetUUID(decodeUUID(uuid))
	e.IconID = iconID
	e.ForegroundColor = fg
	e.BackgroundColor = bg
	e.OverrideURL = overrideURL
	e.SetTags(splitTags(tags))
	e.Times = dec.convertTimes(times)
	if qualityCheck == "" {
		e.QualityCheck = true
	} else {
		e.QualityCheck = boolOf(qualityCheck)
	}
	if customIcon != "" {
		if id := decodeUUID(customIcon); !id.IsNil() {
			e.SetCustomIcon(id)
		}
	}
	if prevParent != "" {
		e.PreviousParentGroup = decodeUUID(prevParent)
		e.HasPreviousParent = !e.PreviousParentGroup.IsNil()
	}
	dec.convertCustomData(customData, e.CustomData())

	e.AutoType = model.AutoType{
		Enabled:                 boolOf(at.Enabled),
		DataTransferObfuscation: at.DataTransferObfuscation,
		DefaultSequence:         at.DefaultSequence,
	}
	for _, a := range at.Associations {
		e.AutoType.Associations = append(e.AutoType.Associations, model.AutoTypeAssociation{
			Window:            a.Window,
			KeystrokeSequence: a.KeystrokeSequence,
		})
	}

	for _, s := range strs {
		protect := strings.EqualFold(s.Value.Protected, "True")
		value := s.Value.Text
		if protect && dec.stream != nil {
			raw, err := base64.StdEncoding.DecodeString(value)
			if err == nil {
				if plain, err := dec.stream.Decrypt(raw); err == nil {
					value = string(plain)
				}
			}
		} else if !protect {
			// Unprotected values are stored as plain UTF-8 text, not Base64.
		}
		e.Strings.Set(s.Key, model.ProtectedString{Value: value, HasValue: true, Protect: protect})
	}

	for _, b := range bins {
		data, protect, err := dec.resolveBinary(b.Value.Ref, b.Value.Compressed, b.Value.Text)
		if err != nil {
			continue
		}
		e.Binaries.Set(b.Key, model.BinaryRef{Value: data, Protect: protect})
	}
}

// resolveBinary dereferences one entry Binary element: v4 files carry a
// Ref index into the inner-header pool, v3 files either embed Base64
// directly or reference the Meta-level Binaries pool by ID.
func (dec *decoder) resolveBinary(ref, compressed, embedded string) ([]byte, bool, error) {
	if ref != "" {
		if dec.version.Major >= 4 {
			idx, err := strconv.Atoi(ref)
			if err != nil || idx < 0 || idx >= len(dec.v4Pool) {
				return nil, false, kdbxtypes.ErrFormatXML
			}
			pb := dec.v4Pool[idx]
			return pb.Data, pb.Protected, nil
		}
		meta, ok := dec.v3Pool[ref]
		if !ok {
			return nil, false, kdbxtypes.ErrFormatXML
		}
		raw, err := base64.StdEncoding.DecodeString(meta.Text)
		if err != nil {
			return nil, false, kdbxtypes.ErrFormatXML.WithCause(err)
		}
		if strings.EqualFold(meta.Compressed, "True") {
			raw, err = gunzip(raw)
			if err != nil {
				return nil, false, err
			}
		}
		return raw, false, nil
	}
	if embedded == "" {
		return nil, false, nil
	}
	raw, err := base64.StdEncoding.DecodeString(embedded)
	if err != nil {
		return nil, false, kdbxtypes.ErrFormatXML.WithCause(err)
	}
	if strings.EqualFold(compressed, "True") {
		raw, err = gunzip(raw)
		if err != nil {
			return nil, false, err
		}
	}
	return raw, false, nil
}

func (dec *decoder) convertDeletedObjects(src *docDeletedObjects, db *model.Database) {
	for _, d := range src.Items {
		db.Meta.DeletedObjects[decodeUUID(d.UUID)] = decodeTime(d.DeletionTime, dec.version)
	}
}

// encoder is decoder's mirror for Save: it walks a *model.Database
// groups-then-entries at every level (see encodeGroup), the order the
// written XML lists them in, encrypting protected strings through the
// inner-stream cipher as it goes and, for v4 files,
// accumulating the binary pool that document.go writes into the inner
// header.
type encoder struct {
	version kdbxtypes.FileVersion
	stream  cipher.StreamCipher
	v4Pool  []PoolBinary
	v4Index map[string]int
	db      *model.Database
}

func newEncoder(version kdbxtypes.FileVersion, s cipher.StreamCipher) *encoder {
	return &encoder{version: version, stream: s, v4Index: make(map[string]int)}
}

func (enc *encoder) encodeMeta(m *model.Meta) docMeta {
	out := docMeta{
		Generator:                  m.Generator,
		DatabaseName:               m.DatabaseName,
		DatabaseNameChanged:        encodeTime(m.DatabaseNameChanged, enc.version),
		DatabaseDescription:        m.DatabaseDescription,
		DatabaseDescriptionChanged: encodeTime(m.DatabaseDescriptionChanged, enc.version),
		DefaultUserName:            m.DefaultUserName,
		DefaultUserNameChanged:     encodeTime(m.DefaultUserNameChanged, enc.version),
		Color:                      m.Color,
		MasterKeyChanged:           encodeTime(m.MasterKeyChanged, enc.version),
		MasterKeyChangeRec:         m.MasterKeyChangeRec,
		MasterKeyChangeForce:       m.MasterKeyChangeForce,
		MemoryProtection: docMemoryProtection{
			ProtectTitle:    textOfBool(m.MemoryProtection.ProtectTitle),
			ProtectUserName: textOfBool(m.MemoryProtection.ProtectUserName),
			ProtectPassword: textOfBool(m.MemoryProtection.ProtectPassword),
			ProtectURL:      textOfBool(m.MemoryProtection.ProtectURL),
			ProtectNotes:    textOfBool(m.MemoryProtection.ProtectNotes),
		},
		RecycleBinEnabled:          textOfBool(m.RecycleBinEnabled),
		RecycleBinChanged:          encodeTime(m.RecycleBinChanged, enc.version),
		EntryTemplatesGroupChanged: encodeTime(m.EntryTemplatesGroupChanged, enc.version),
		HistoryMaxItems:            m.HistoryMaxItems,
		HistoryMaxSize:             m.HistoryMaxSize,
		SettingsChanged:            encodeTime(m.SettingsChanged, enc.version),
	}
	if m.HasRecycleBinUUID {
		out.RecycleBinUUID = encodeUUID(m.RecycleBinUUID)
	}
	if m.HasEntryTemplatesGroup {
		out.EntryTemplatesGroup = encodeUUID(m.EntryTemplatesGroup)
	}
	if m.HasLastSelectedGroup {
		out.LastSelectedGroup = encodeUUID(m.LastSelectedGroup)
	}
	if m.HasLastTopVisibleGroup {
		out.LastTopVisibleGroup = encodeUUID(m.LastTopVisibleGroup)
	}
	for _, ic := range m.CustomIcons {
		out.CustomIcons.Icons = append(out.CustomIcons.Icons, docCustomIcon{
			UUID:                 encodeUUID(ic.UUID),
			Data:                 base64.StdEncoding.EncodeToString(ic.Data),
			Name:                 ic.Name,
			LastModificationTime: encodeTime(ic.LastModificationTime, enc.version),
		})
	}
	out.CustomData = enc.encodeCustomData(m.CustomData)
	return out
}

func (enc *encoder) encodeCustomData(src *model.CustomData) docCustomData {
	var out docCustomData
	for _, k := range src.Keys() {
		item, _ := src.Get(k)
		out.Items = append(out.Items, docCustomDataItem{
			Key:                  k,
			Value:                item.Value,
			LastModificationTime: encodeTime(item.LastModificationTime, enc.version),
		})
	}
	return out
}

func (enc *encoder) encodeTimes(t model.Times) docTimes {
	return docTimes{
		CreationTime:         encodeTime(t.CreationTime, enc.version),
		LastModificationTime: encodeTime(t.LastModificationTime, enc.version),
		LastAccessTime:       encodeTime(t.LastAccessTime, enc.version),
		ExpiryTime:           encodeTime(t.ExpiryTime, enc.version),
		Expires:              textOfBool(t.Expires),
		UsageCount:           strconv.FormatInt(t.UsageCount, 10),
		LocationChanged:      encodeTime(t.LocationChanged, enc.version),
	}
}

// encodeGroup converts g into its XML form. Writes always normalize to
// groups-then-entries order: docGroup's own field declaration order (Groups
// before Entries) drives that directly through the default xml.Marshal
// behavior, so ChildOrderEntriesFirst is not honored on the way out.
func (enc *encoder) encodeGroup(g *model.Group) docGroup {
	out := docGroup{
		UUID:                    encodeUUID(g.UUID()),
		Name:                    g.Name,
		Notes:                   g.Notes,
		IconID:                  g.IconID,
		Times:                   enc.encodeTimes(g.Times),
		IsExpanded:              textOfBool(g.IsExpanded),
		DefaultAutoTypeSequence: g.DefaultAutoTypeSequence,
		EnableAutoType:          textOfTriBool(g.EnableAutoType),
		EnableSearching:         textOfTriBool(g.EnableSearching),
		Tags:                    joinTags(g.TagList()),
		CustomData:              enc.encodeCustomData(g.CustomData()),
	}
	if g.HasLastTopVisibleEntry {
		out.LastTopVisibleEntry = encodeUUID(g.LastTopVisibleEntry)
	}
	if g.HasPreviousParent {
		out.PreviousParentGroup = encodeUUID(g.PreviousParentGroup)
	}
	if id, ok := g.CustomIcon(); ok {
		out.CustomIconUUID = encodeUUID(id)
	}
	for _, c := range g.Groups {
		out.Groups = append(out.Groups, enc.encodeGroup(c))
	}
	for _, e := range g.Entries {
		out.Entries = append(out.Entries, enc.encodeEntry(e, -1))
	}
	return out
}

// encodeEntry converts e. historyIndex is -1 for a current entry, or e's
// position within its owner's History slice for a snapshot; it is only
// used to rebuild the safe.StringRef a locked protected string was filed
// under.
func (enc *encoder) encodeEntry(e *model.Entry, historyIndex int) docEntry {
	out := docEntry{
		UUID:            encodeUUID(e.UUID()),
		IconID:          e.IconID,
		ForegroundColor: e.ForegroundColor,
		BackgroundColor: e.BackgroundColor,
		OverrideURL:     e.OverrideURL,
		Tags:            joinTags(e.TagList()),
		Times:           enc.encodeTimes(e.Times),
		Strings:         enc.encodeStrings(e, historyIndex),
		Binaries:        enc.encodeBinaries(e.Binaries),
		CustomData:      enc.encodeCustomData(e.CustomData()),
		QualityCheck:    textOfBool(e.QualityCheck),
		AutoType: docAutoType{
			Enabled:                 textOfBool(e.AutoType.Enabled),
			DataTransferObfuscation: e.AutoType.DataTransferObfuscation,
			DefaultSequence:         e.AutoType.DefaultSequence,
		},
	}
	for _, a := range e.AutoType.Associations {
		out.AutoType.Associations = append(out.AutoType.Associations, docAutoTypeAssociation{
			Window:            a.Window,
			KeystrokeSequence: a.KeystrokeSequence,
		})
	}
	if e.HasPreviousParent {
		out.PreviousParentGroup = encodeUUID(e.PreviousParentGroup)
	}
	if id, ok := e.CustomIcon(); ok {
		out.CustomIconUUID = encodeUUID(id)
	}
	for i, h := range e.History {
		out.History.Entries = append(out.History.Entries, enc.encodeHistoryEntry(h, i))
	}
	return out
}

func (enc *encoder) encodeHistoryEntry(e *model.Entry, historyIndex int) docHistoryEntry {
	full := enc.encodeEntry(e, historyIndex)
	return docHistoryEntry{
		UUID:                full.UUID,
		IconID:              full.IconID,
		ForegroundColor:     full.ForegroundColor,
		BackgroundColor:     full.BackgroundColor,
		OverrideURL:         full.OverrideURL,
		Tags:                full.Tags,
		Times:               full.Times,
		Strings:             full.Strings,
		Binaries:            full.Binaries,
		AutoType:            full.AutoType,
		CustomData:          full.CustomData,
		CustomIconUUID:      full.CustomIconUUID,
		PreviousParentGroup: full.PreviousParentGroup,
		QualityCheck:        full.QualityCheck,
	}
}

// encodeStrings serializes e's strings. A protected value that's been
// locked into the Safe carries no plaintext (HasValue false); its
// ciphertext is fetched back via Safe.Peek (non-destructive, unlike
// Unlock) before being re-encrypted under this save's inner stream.
func (enc *encoder) encodeStrings(e *model.Entry, historyIndex int) []docString {
	var out []docString
	for _, k := range e.Strings.Keys() {
		v, _ := e.Strings.Get(k)
		plain := v.Value
		if v.Protect && !v.HasValue && enc.db != nil && enc.db.Locked {
			ref := safe.StringRef{EntryUUID: e.UUID(), HistoryIndex: historyIndex, Field: k}
			if pt, err := enc.db.Safe.Peek(ref, v.CipherText); err == nil {
				plain = string(pt)
			}
		}
		value := plain
		if v.Protect && enc.stream != nil {
			ct, err := enc.stream.Encrypt([]byte(plain))
			if err == nil {
				value = base64.StdEncoding.EncodeToString(ct)
			}
		}
		out = append(out, docString{
			Key:   k,
			Value: docValue{Protected: textOfBool(v.Protect), Text: value},
		})
	}
	return out
}

// encodeBinaries converts an entry's attachments to Binary elements. v4
// files pool every binary into the inner header and reference it by
// integer index (deduplicated by content+protect identity); v3 files have
// no inner-header pool, so each binary is embedded as gzip-compressed
// Base64 directly in the element.
func (enc *encoder) encodeBinaries(bins *model.Binaries) []docBinaryRef {
	var out []docBinaryRef
	for _, k := range bins.Keys() {
		v, _ := bins.Get(k)
		if enc.version.Major >= 4 {
			out = append(out, docBinaryRef{Key: k, Value: docBinaryValue{Ref: enc.poolBinary(v)}})
			continue
		}
		raw, err := gzipBytes(v.Value)
		if err != nil {
			raw = v.Value
			out = append(out, docBinaryRef{Key: k, Value: docBinaryValue{
				Text: base64.StdEncoding.EncodeToString(raw),
			}})
			continue
		}
		out = append(out, docBinaryRef{Key: k, Value: docBinaryValue{
			Compressed: textOfBool(true),
			Text:       base64.StdEncoding.EncodeToString(raw),
		}})
	}
	return out
}

// poolBinary returns the v4 inner-header Ref index for v, deduplicated by
// content identity so identical attachments across entries share a slot.
func (enc *encoder) poolBinary(v model.BinaryRef) string {
	key := string(v.Value) + "\x00" + textOfBool(v.Protect)
	if idx, ok := enc.v4Index[key]; ok {
		return strconv.Itoa(idx)
	}
	idx := len(enc.v4Pool)
	enc.v4Pool = append(enc.v4Pool, PoolBinary{Protected: v.Protect, Data: v.Value})
	enc.v4Index[key] = idx
	return strconv.Itoa(idx)
}

func (enc *encoder) encodeDeletedObjects(db *model.Database) docDeletedObjects {
	var out docDeletedObjects
	for id, t := range db.Meta.DeletedObjects {
		out.Items = append(out.Items, docDeletedObject{
			UUID:         encodeUUID(id),
			DeletionTime: encodeTime(t, enc.version),
		})
	}
	return out
}

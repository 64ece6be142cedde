package format

import "fmt"

// VariantType is the one-byte type tag preceding each variant map entry.
type VariantType byte

const (
	VTUInt32    VariantType = 0x04
	VTUInt64    VariantType = 0x05
	VTBool      VariantType = 0x08
	VTInt32     VariantType = 0x0C
	VTInt64     VariantType = 0x0D
	VTString    VariantType = 0x18
	VTByteArray VariantType = 0x42
)

// VariantMapVersion is the only major version this codec accepts; the
// minor byte is ignored on read and written as 0.
const VariantMapVersion uint16 = 0x0100

// VariantEntry is one key/value pair of a variant map. Unknown types are
// preserved with their raw bytes so an unrecognized entry round-trips
// byte-for-byte even though this library can't interpret it.
type VariantEntry struct {
	Key     string
	Type    VariantType
	Raw     []byte
	Unknown bool
}

// VariantMap is an ordered key/value container, the v4 on-disk format used
// for KDF parameters and public custom data. Order is preserved because
// some producers are sensitive to field order when computing header
// hashes over re-encoded bytes.
type VariantMap struct {
	entries []VariantEntry
	index   map[string]int
}

// NewVariantMap returns an empty map ready for Set calls.
func NewVariantMap() *VariantMap {
	return &VariantMap{index: make(map[string]int)}
}

func (m *VariantMap) set(key string, typ VariantType, raw []byte) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i] = VariantEntry{Key: key, Type: typ, Raw: raw}
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, VariantEntry{Key: key, Type: typ, Raw: raw})
}

func (m *VariantMap) get(key string) (VariantEntry, bool) {
	if m == nil || m.index == nil {
		return VariantEntry{}, false
	}
	i, ok := m.index[key]
	if !ok {
		return VariantEntry{}, false
	}
	return m.entries[i], true
}

// Keys returns the entry keys in on-disk order.
func (m *VariantMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

// Entries returns a copy of the underlying entries in on-disk order,
// including unknown ones, for callers that need to preserve opaque data.
func (m *VariantMap) Entries() []VariantEntry {
	if m == nil {
		return nil
	}
	out := make([]VariantEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *VariantMap) SetUint32(key string, v uint32) {
	b := make([]byte, 4)
	PutU32(b, 0, v)
	m.set(key, VTUInt32, b)
}

func (m *VariantMap) SetUint64(key string, v uint64) {
	b := make([]byte, 8)
	PutU64(b, 0, v)
	m.set(key, VTUInt64, b)
}

func (m *VariantMap) SetInt32(key string, v int32) {
	b := make([]byte, 4)
	PutI32(b, 0, v)
	m.set(key, VTInt32, b)
}

func (m *VariantMap) SetInt64(key string, v int64) {
	b := make([]byte, 8)
	PutU64(b, 0, uint64(v))
	m.set(key, VTInt64, b)
}

func (m *VariantMap) SetBool(key string, v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	m.set(key, VTBool, []byte{b})
}

func (m *VariantMap) SetString(key, v string) {
	m.set(key, VTString, []byte(v))
}

func (m *VariantMap) SetBytes(key string, v []byte) {
	raw := make([]byte, len(v))
	copy(raw, v)
	m.set(key, VTByteArray, raw)
}

func (m *VariantMap) GetUint32(key string) (uint32, bool) {
	e, ok := m.get(key)
	if !ok || e.Type != VTUInt32 || len(e.Raw) != 4 {
		return 0, false
	}
	return ReadU32(e.Raw, 0), true
}

func (m *VariantMap) GetUint64(key string) (uint64, bool) {
	e, ok := m.get(key)
	if !ok || e.Type != VTUInt64 || len(e.Raw) != 8 {
		return 0, false
	}
	return ReadU64(e.Raw, 0), true
}

func (m *VariantMap) GetInt32(key string) (int32, bool) {
	e, ok := m.get(key)
	if !ok || e.Type != VTInt32 || len(e.Raw) != 4 {
		return 0, false
	}
	return ReadI32(e.Raw, 0), true
}

func (m *VariantMap) GetInt64(key string) (int64, bool) {
	e, ok := m.get(key)
	if !ok || e.Type != VTInt64 || len(e.Raw) != 8 {
		return 0, false
	}
	return int64(ReadU64(e.Raw, 0)), true
}

func (m *VariantMap) GetBool(key string) (bool, bool) {
	e, ok := m.get(key)
	if !ok || e.Type != VTBool || len(e.Raw) != 1 {
		return false, false
	}
	return e.Raw[0] != 0, true
}

func (m *VariantMap) GetString(key string) (string, bool) {
	e, ok := m.get(key)
	if !ok || e.Type != VTString {
		return "", false
	}
	return string(e.Raw), true
}

func (m *VariantMap) GetBytes(key string) ([]byte, bool) {
	e, ok := m.get(key)
	if !ok || e.Type != VTByteArray {
		return nil, false
	}
	out := make([]byte, len(e.Raw))
	copy(out, e.Raw)
	return out, true
}

// DecodeVariantMap parses the on-disk variant map format: a u16le version
// (major byte must be 1), then records of {u8 type, u32le key_len, bytes
// key, u32le value_len, bytes value} until a type-0 terminator. Entries
// whose type tag isn't one of the known VT* constants are preserved as
// Unknown so the caller can round-trip them and emit a warning.
func DecodeVariantMap(b []byte) (*VariantMap, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("variant map: truncated version field")
	}
	version := ReadU16(b, 0)
	if version>>8 != VariantMapVersion>>8 {
		return nil, fmt.Errorf("variant map: unsupported version 0x%04x", version)
	}
	m := NewVariantMap()
	off := 2
	for {
		if off >= len(b) {
			return nil, fmt.Errorf("variant map: missing terminator")
		}
		typ := VariantType(b[off])
		off++
		if typ == VariantType(HeaderFieldEnd) {
			return m, nil
		}
		if off+4 > len(b) {
			return nil, fmt.Errorf("variant map: truncated key length")
		}
		keyLen := int(ReadU32(b, off))
		off += 4
		if keyLen < 0 || off+keyLen > len(b) {
			return nil, fmt.Errorf("variant map: truncated key")
		}
		key := string(b[off : off+keyLen])
		off += keyLen

		if off+4 > len(b) {
			return nil, fmt.Errorf("variant map: truncated value length")
		}
		valLen := int(ReadU32(b, off))
		off += 4
		if valLen < 0 || off+valLen > len(b) {
			return nil, fmt.Errorf("variant map: truncated value")
		}
		val := make([]byte, valLen)
		copy(val, b[off:off+valLen])
		off += valLen

		switch typ {
		case VTUInt32, VTUInt64, VTBool, VTInt32, VTInt64, VTString, VTByteArray:
			m.set(key, typ, val)
		default:
			m.index[key] = len(m.entries)
			m.entries = append(m.entries, VariantEntry{Key: key, Type: typ, Raw: val, Unknown: true})
		}
	}
}

// EncodeVariantMap serializes m to the on-disk variant map format.
func EncodeVariantMap(m *VariantMap) []byte {
	var out []byte
	hdr := make([]byte, 2)
	PutU16(hdr, 0, VariantMapVersion)
	out = append(out, hdr...)

	for _, e := range m.Entries() {
		out = append(out, byte(e.Type))
		lenBuf := make([]byte, 4)
		PutU32(lenBuf, 0, uint32(len(e.Key)))
		out = append(out, lenBuf...)
		out = append(out, e.Key...)
		PutU32(lenBuf, 0, uint32(len(e.Raw)))
		out = append(out, lenBuf...)
		out = append(out, e.Raw...)
	}
	out = append(out, byte(HeaderFieldEnd))
	return out
}

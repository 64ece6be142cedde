// Package inner implements the KDBX inner codec: the XML body that sits
// inside the outer encryption envelope, the v4 inner-header/binary-pool
// preamble that precedes it, and the protected-string inner-stream cipher
// that keeps Password-class fields encrypted within that XML.
//
// internal/codec/outer hands this package an opaque, already-decrypted
// byte slice (LoadResult.Body); this package is what turns that slice into
// (or back from) a *model.Database.
package inner

import (
	"fmt"

	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// innerFieldType is the one-byte type tag of a v4 inner-header record,
// distinct from (and numbered independently of) the outer header's
// FieldType.
type innerFieldType byte

const (
	innerFieldEnd       innerFieldType = 0
	innerFieldStreamID  innerFieldType = 1
	innerFieldStreamKey innerFieldType = 2
	innerFieldBinary    innerFieldType = 3
)

// BinaryFlagProtected marks a v4 inner-header binary-pool entry as
// memory-protected (the same bit meaning as the XML-level Binaries
// element's Protected attribute in v3).
const BinaryFlagProtected byte = 0x01

// PoolBinary is one entry of the v4 binary pool, indexed by position: the
// first entry parsed is pool index 0, referenced from XML by a Ref
// attribute equal to that index.
type PoolBinary struct {
	Protected bool
	Data      []byte
}

// Header is the parsed v4 inner-header preamble: which inner-stream cipher
// protects the XML body's strings, its key, and the binary pool.
type Header struct {
	StreamID  uint32
	StreamKey []byte
	Binaries  []PoolBinary
}

// ParseHeader reads a v4 inner-header preamble off the front of body,
// returning the parsed Header and the remaining bytes (the XML document).
// v3 bodies never carry one of these; callers only invoke ParseHeader for
// version.Major >= 4.
func ParseHeader(body []byte) (*Header, []byte, error) {
	h := &Header{}
	pos := 0
	for {
		if pos+5 > len(body) {
			return nil, nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("inner header: truncated field record"))
		}
		typ := innerFieldType(body[pos])
		size := int(format.ReadU32(body, pos+1))
		pos += 5
		if pos+size > len(body) {
			return nil, nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("inner header: field size %d exceeds remaining body", size))
		}
		value := body[pos : pos+size]
		pos += size

		switch typ {
		case innerFieldEnd:
			return h, body[pos:], nil
		case innerFieldStreamID:
			if size != 4 {
				return nil, nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("inner header: stream id must be 4 bytes, got %d", size))
			}
			h.StreamID = format.ReadU32(value, 0)
		case innerFieldStreamKey:
			h.StreamKey = append([]byte(nil), value...)
		case innerFieldBinary:
			if size < 1 {
				return nil, nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("inner header: binary entry missing flags byte"))
			}
			h.Binaries = append(h.Binaries, PoolBinary{
				Protected: value[0]&BinaryFlagProtected != 0,
				Data:      append([]byte(nil), value[1:]...),
			})
		default:
			// Unknown inner-header field types are skipped, matching the
			// outer header's forward-compatibility stance.
		}
	}
}

// WriteHeader serializes h followed by the terminating end-of-header
// record; the caller appends the XML body immediately after the returned
// bytes.
func WriteHeader(h *Header) []byte {
	var out []byte
	appendField := func(typ innerFieldType, value []byte) {
		rec := make([]byte, 5+len(value))
		rec[0] = byte(typ)
		format.PutU32(rec, 1, uint32(len(value)))
		copy(rec[5:], value)
		out = append(out, rec...)
	}

	streamID := make([]byte, 4)
	format.PutU32(streamID, 0, h.StreamID)
	appendField(innerFieldStreamID, streamID)
	appendField(innerFieldStreamKey, h.StreamKey)
	for _, b := range h.Binaries {
		flags := byte(0)
		if b.Protected {
			flags = BinaryFlagProtected
		}
		appendField(innerFieldBinary, append([]byte{flags}, b.Data...))
	}
	appendField(innerFieldEnd, nil)
	return out
}

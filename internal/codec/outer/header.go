// Package outer implements the outer codec (C8): the magic signature,
// the outer header record sequence (fixed-width v3, variant-map-bearing
// v4), and the body envelope that composes the crypto registry, key
// schedule, and stream layers into a load/save pipeline producing (or
// consuming) the inner XML body.
package outer

import (
	"fmt"

	"github.com/kdbxkit/kdbx/internal/format"
)

// FieldType is the one-byte outer header record type tag (v3 u16le
// length, v4 u32le length). The v4 inner header numbers its records with
// its own type, see internal/codec/inner.
type FieldType uint8

const (
	FieldEnd                FieldType = 0
	FieldComment             FieldType = 1 // unrecognized by this library; skipped on read and never written
	FieldCipherID            FieldType = 2
	FieldCompression         FieldType = 3
	FieldMasterSeed          FieldType = 4
	FieldTransformSeed       FieldType = 5
	FieldTransformRounds     FieldType = 6
	FieldEncryptionIV        FieldType = 7
	FieldInnerRandomStreamKey FieldType = 8
	FieldStreamStartBytes    FieldType = 9
	FieldInnerRandomStreamID FieldType = 10
	FieldKDFParameters       FieldType = 11
	FieldPublicCustomData    FieldType = 12
)

// field is one raw, undecoded header record.
type field struct {
	typ   FieldType
	value []byte
}

// readFields parses a header record sequence (outer v3/v4 or inner v4)
// given the per-record length-field width, returning the records in
// on-disk order and the number of bytes consumed including the
// terminator.
func readFields(data []byte, lenSize int) ([]field, int, error) {
	var fields []field
	off := 0
	for {
		if off >= len(data) {
			return nil, 0, fmt.Errorf("header: truncated, missing terminator")
		}
		typ := FieldType(data[off])
		off++
		if typ == FieldEnd {
			// The terminator itself still carries a (usually empty)
			// length + value per the real KDBX format.
			if off+lenSize > len(data) {
				return nil, 0, fmt.Errorf("header: truncated terminator")
			}
			length := readLen(data, off, lenSize)
			off += lenSize + length
			return fields, off, nil
		}
		if off+lenSize > len(data) {
			return nil, 0, fmt.Errorf("header: truncated length field")
		}
		length := readLen(data, off, lenSize)
		off += lenSize
		if length < 0 || off+length > len(data) {
			return nil, 0, fmt.Errorf("header: truncated value for field %d", typ)
		}
		fields = append(fields, field{typ: typ, value: append([]byte(nil), data[off:off+length]...)})
		off += length
	}
}

func readLen(data []byte, off, lenSize int) int {
	if lenSize == 2 {
		return int(format.ReadU16(data, off))
	}
	return int(format.ReadU32(data, off))
}

// writeFields serializes fields in order, followed by the type-0
// terminator, using the given length-field width.
func writeFields(fields []field, lenSize int) []byte {
	var out []byte
	for _, f := range fields {
		out = append(out, byte(f.typ))
		out = appendLen(out, len(f.value), lenSize)
		out = append(out, f.value...)
	}
	out = append(out, byte(FieldEnd))
	out = appendLen(out, 0, lenSize)
	return out
}

func appendLen(out []byte, n, lenSize int) []byte {
	buf := make([]byte, lenSize)
	if lenSize == 2 {
		format.PutU16(buf, 0, uint16(n))
	} else {
		format.PutU32(buf, 0, uint32(n))
	}
	return append(out, buf...)
}

func findField(fields []field, typ FieldType) ([]byte, bool) {
	for _, f := range fields {
		if f.typ == typ {
			return f.value, true
		}
	}
	return nil, false
}

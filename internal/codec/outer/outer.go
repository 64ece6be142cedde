package outer

import (
	"fmt"

	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// Header holds the parsed outer header, with fields that only apply to
// one version left at their zero value for the other.
type Header struct {
	Version kdbxtypes.FileVersion

	CipherID     kdbxtypes.UUID
	Compressed   bool
	MasterSeed   []byte // 32 bytes

	EncryptionIV []byte

	// v3 only.
	TransformSeed        []byte // 32 bytes
	TransformRounds      uint64
	InnerStreamKey       []byte
	StreamStartBytes     []byte // 32 bytes
	InnerStreamID        uint32

	// v4 only.
	KDFParameters    *format.VariantMap
	PublicCustomData *format.VariantMap

	// Raw is the exact header bytes as read (magic excluded), needed to
	// recompute the header SHA-256/HMAC that authenticate it.
	Raw []byte
}

// CompressionNone / CompressionGzip are the values of the on-disk
// compression flag field.
const (
	CompressionNone uint32 = 0
	CompressionGzip uint32 = 1
)

// ParseMagic reads and validates the three-u32 magic: signature1,
// signature2, and the packed version. A KDB (pre-KDBX) signature2 is
// rejected outright; signature2 == KDBX v1 is accepted and mapped to v3
// with a warning left to the caller (ParseMagic itself is pure).
func ParseMagic(data []byte) (version kdbxtypes.FileVersion, isLegacyV1 bool, consumed int, err error) {
	if len(data) < 12 {
		return kdbxtypes.FileVersion{}, false, 0, kdbxtypes.ErrFormatSignature.WithCause(fmt.Errorf("truncated magic"))
	}
	sig1 := format.ReadU32(data, 0)
	sig2 := format.ReadU32(data, 4)
	verField := format.ReadU32(data, 8)

	if sig1 != format.Signature1 {
		return kdbxtypes.FileVersion{}, false, 0, kdbxtypes.ErrFormatSignature
	}
	major, minor := format.SplitVersion(verField)

	switch sig2 {
	case format.Signature2:
		return kdbxtypes.FileVersion{Major: major, Minor: minor}, false, 12, nil
	case format.Signature2V1:
		// Pre-3.1 "v1" file; map to v3.1 semantics per spec with a
		// caller-issued warning.
		return kdbxtypes.Version3_1, true, 12, nil
	default:
		return kdbxtypes.FileVersion{}, false, 0, kdbxtypes.ErrFormatSignature
	}
}

// WriteMagic serializes the three-u32 magic for version.
func WriteMagic(version kdbxtypes.FileVersion) []byte {
	out := make([]byte, 12)
	format.PutU32(out, 0, format.Signature1)
	format.PutU32(out, 4, format.Signature2)
	format.PutU32(out, 8, format.Version(version.Major, version.Minor))
	return out
}

func fieldLenSize(version kdbxtypes.FileVersion) int {
	if version.Major >= 4 {
		return 4
	}
	return 2
}

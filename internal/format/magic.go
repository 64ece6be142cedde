package format

// Magic signature and version constants for the outer file header. See
// the outer codec package for how these combine with the header record
// sequence.
const (
	Signature1 uint32 = 0x9AA2D903
	Signature2KDB uint32 = 0xB54BFB65 // legacy pre-KDBX "KDB" format, read-rejected
	Signature2V1  uint32 = 0xB54BFB66 // KDBX v1, read as v3.1
	Signature2    uint32 = 0xB54BFB67 // KDBX v2/v3/v4

	// HeaderFieldEnd terminates both the outer and inner header record
	// sequences.
	HeaderFieldEnd uint8 = 0
)

// Version packs a major/minor pair the way it is stored on disk: major in
// the high 16 bits, minor in the low 16 bits, each little-endian within
// the 32-bit field.
func Version(major, minor uint16) uint32 {
	return uint32(major)<<16 | uint32(minor)
}

// SplitVersion unpacks a disk version field into major/minor.
func SplitVersion(v uint32) (major, minor uint16) {
	return uint16(v >> 16), uint16(v)
}

package kdbxtypes

import (
	"context"
	"time"
)

// KeyMaterial bundles the inputs that compose a database's master key:
// an optional password, an optional key-file payload, and optional
// challenge-response providers. At least one must be set or Open fails
// with ErrKeyMissing.
type KeyMaterial struct {
	Password string
	HasPassword bool

	KeyFile []byte // raw bytes of the key file, as read from disk by the caller

	// ChallengeResponse, when set, is called once per component key during
	// composite-key assembly with the current master seed and must return
	// the response bytes or an error. Ctx is the context passed to Open.
	ChallengeResponse func(ctx context.Context, seed []byte) ([]byte, error)
}

// OpenOptions configures kdbx.Open / kdbx.OpenBytes.
type OpenOptions struct {
	Key KeyMaterial

	// ChallengeTimeout is the duration Timeout reports; zero means the
	// default of 10 seconds. The load path does not apply it: a
	// ChallengeResponse callback runs under the context passed to Open,
	// and any error it returns fails the load with ErrKeyTimeout.
	ChallengeTimeout time.Duration

	// NoParallelKDF forces the single-threaded AES-KDF path even when
	// rounds would otherwise qualify for the parallel two-half transform.
	// Mirrors the KDBX "no-fork" environment tunable for callers who want
	// to set it programmatically instead.
	NoParallelKDF bool

	// StrictWarnings escalates every recorded Warning to a hard error
	// instead of returning it via the WarnReport.
	StrictWarnings bool
}

// DefaultChallengeTimeout is used when OpenOptions.ChallengeTimeout is zero.
const DefaultChallengeTimeout = 10 * time.Second

// Timeout returns the effective challenge-response timeout.
func (o OpenOptions) Timeout() time.Duration {
	if o.ChallengeTimeout <= 0 {
		return DefaultChallengeTimeout
	}
	return o.ChallengeTimeout
}

// FileVersion identifies the on-disk KDBX major/minor version.
type FileVersion struct {
	Major uint16
	Minor uint16
}

// Known file versions.
var (
	Version3_1 = FileVersion{Major: 3, Minor: 1}
	Version4_0 = FileVersion{Major: 4, Minor: 0}
	Version4_1 = FileVersion{Major: 4, Minor: 1}
)

// Less reports whether v is an earlier version than other.
func (v FileVersion) Less(other FileVersion) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// SaveOptions configures kdbx.Save / kdbx.SaveBytes.
type SaveOptions struct {
	// LockVersion, when HasLockVersion is set, forces the save to use this
	// exact file version instead of the database's own Version. Saving a
	// database whose MinimumVersion exceeds LockVersion is an error.
	LockVersion FileVersion
	HasLockVersion bool

	// Compress is not read by kdbx.SaveBytes, which takes the compression
	// flag from model.Database.Compressed.
	Compress bool

	// HMACBlockSize is the v4 HMAC-block framing chunk size in bytes that
	// BlockSize reports; zero means the default of 1 MiB. kdbx.SaveBytes
	// does not read it: v4 saves always frame in DefaultHMACBlockSize
	// chunks.
	HMACBlockSize int
}

// DefaultHMACBlockSize is used when SaveOptions.HMACBlockSize is zero.
const DefaultHMACBlockSize = 1 << 20

// BlockSize returns the effective HMAC-block chunk size.
func (o SaveOptions) BlockSize() int {
	if o.HMACBlockSize <= 0 {
		return DefaultHMACBlockSize
	}
	return o.HMACBlockSize
}

package kdbxtypes

// ErrKind classifies errors so callers can branch on intent rather than
// parsing message text. The kinds mirror the taxonomy a KDBX implementation
// needs: one per layer of the serialization pipeline plus the crypto and
// key-material failure modes.
type ErrKind int

const (
	ErrKindIO              ErrKind = iota // underlying stream/file error
	ErrKindFormatSignature                // unknown magic
	ErrKindFormatVersion                  // unsupported major version
	ErrKindFormatHeader                   // unknown or malformed outer/inner header
	ErrKindFormatXML                      // inner XML body failed to parse
	ErrKindFormatVariantMap                // malformed variant map
	ErrKindCryptoCipherUnsupported         // cipher UUID not registered (or blacklisted)
	ErrKindCryptoKDFUnsupported            // KDF UUID not registered (or blacklisted)
	ErrKindKeyMissing                      // no key material supplied
	ErrKindKeyInvalid                      // stream-start/HMAC mismatch: wrong key
	ErrKindKeyTimeout                      // challenge-response callback timed out
	ErrKindIntegrityHash                   // v3 hash-block mismatch
	ErrKindIntegrityHMAC                   // v4 HMAC-block mismatch
	ErrKindDecompress                      // gzip decompression failed
	ErrKindCompress                        // gzip compression failed
	ErrKindInvariant                       // programming error / broken invariant
	ErrKindCancelled                       // caller-supplied context was cancelled
)

// String returns a short, stable name for the kind, suitable for logs.
func (k ErrKind) String() string {
	switch k {
	case ErrKindIO:
		return "io"
	case ErrKindFormatSignature:
		return "format.signature"
	case ErrKindFormatVersion:
		return "format.version"
	case ErrKindFormatHeader:
		return "format.header"
	case ErrKindFormatXML:
		return "format.xml"
	case ErrKindFormatVariantMap:
		return "format.variant_map"
	case ErrKindCryptoCipherUnsupported:
		return "crypto.cipher.unsupported"
	case ErrKindCryptoKDFUnsupported:
		return "crypto.kdf.unsupported"
	case ErrKindKeyMissing:
		return "key.missing"
	case ErrKindKeyInvalid:
		return "key.invalid"
	case ErrKindKeyTimeout:
		return "key.timeout"
	case ErrKindIntegrityHash:
		return "integrity.hash"
	case ErrKindIntegrityHMAC:
		return "integrity.hmac"
	case ErrKindDecompress:
		return "decompress"
	case ErrKindCompress:
		return "compress"
	case ErrKindInvariant:
		return "invariant"
	case ErrKindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause. It implements
// Unwrap so it composes with errors.Is/errors.As/fmt's %w, while still
// exposing a stable Kind for programmatic branching.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, kdbxtypes.ErrKeyInvalid) style sentinel checks
// by comparing Kind rather than identity, so a wrapped error with the same
// Kind and a different cause still matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause returns a copy of the sentinel wrapping err as its cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Msg: e.Msg, Err: err}
}

// Sentinels, one per ErrKind, for errors.Is comparisons and for wrapping
// with WithCause when a specific cause is available.
var (
	ErrIO                      = &Error{Kind: ErrKindIO, Msg: "i/o error"}
	ErrFormatSignature         = &Error{Kind: ErrKindFormatSignature, Msg: "unrecognized kdbx signature"}
	ErrFormatVersion           = &Error{Kind: ErrKindFormatVersion, Msg: "unsupported kdbx major version"}
	ErrFormatHeader            = &Error{Kind: ErrKindFormatHeader, Msg: "malformed header"}
	ErrFormatXML               = &Error{Kind: ErrKindFormatXML, Msg: "malformed xml body"}
	ErrFormatVariantMap        = &Error{Kind: ErrKindFormatVariantMap, Msg: "malformed variant map"}
	ErrCryptoCipherUnsupported = &Error{Kind: ErrKindCryptoCipherUnsupported, Msg: "unsupported cipher"}
	ErrCryptoKDFUnsupported    = &Error{Kind: ErrKindCryptoKDFUnsupported, Msg: "unsupported kdf"}
	ErrKeyMissing              = &Error{Kind: ErrKindKeyMissing, Msg: "no key material supplied"}
	ErrKeyInvalid              = &Error{Kind: ErrKindKeyInvalid, Msg: "wrong master key"}
	ErrKeyTimeout              = &Error{Kind: ErrKindKeyTimeout, Msg: "challenge-response key timed out"}
	ErrIntegrityHash           = &Error{Kind: ErrKindIntegrityHash, Msg: "hash-block integrity check failed"}
	ErrIntegrityHMAC           = &Error{Kind: ErrKindIntegrityHMAC, Msg: "hmac-block integrity check failed"}
	ErrDecompress              = &Error{Kind: ErrKindDecompress, Msg: "decompression failed"}
	ErrCompress                = &Error{Kind: ErrKindCompress, Msg: "compression failed"}
	ErrInvariant               = &Error{Kind: ErrKindInvariant, Msg: "internal invariant violated"}
	ErrCancelled               = &Error{Kind: ErrKindCancelled, Msg: "operation cancelled"}
)

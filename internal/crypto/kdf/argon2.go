package kdf

import (
	"context"

	"golang.org/x/crypto/argon2"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// Argon2Variant selects between the two Argon2 password-hashing variants
// KDBX recognizes. Argon2i is not offered by the format.
type Argon2Variant int

const (
	Argon2D Argon2Variant = iota
	Argon2ID
)

// Argon2KDF implements the Argon2d/Argon2id KDF. Output length equals
// len(Salt), matching spec behavior. Secret and AssociatedData are kept on
// the struct for parameter-table completeness; golang.org/x/crypto/argon2's
// exported Key/IDKey don't accept them, and real KDBX files essentially
// never set either, so they are currently unused by Transform.
type Argon2KDF struct {
	Variant         Argon2Variant
	Salt            []byte
	Parallelism     uint8
	MemoryKiB       uint32
	Iterations      uint32
	Version         byte // must be 0x13 or 0 (unset); anything else is rejected, not clamped
	Secret          []byte
	AssociatedData  []byte
}

const argon2Version = 0x13

func (k *Argon2KDF) Transform(ctx context.Context, compositeKey []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, kdbxtypes.ErrCancelled.WithCause(err)
	}
	if k.Version != 0 && k.Version != argon2Version {
		return nil, kdbxtypes.ErrCryptoKDFUnsupported.WithCause(unsupportedVersionError{version: k.Version})
	}
	if k.Parallelism == 0 || k.MemoryKiB == 0 || k.Iterations == 0 {
		return nil, kdbxtypes.ErrCryptoKDFUnsupported.WithCause(outOfRangeParamError{})
	}
	outLen := uint32(len(k.Salt))
	if outLen == 0 {
		outLen = 32
	}

	var out []byte
	switch k.Variant {
	case Argon2D:
		out = argon2.Key(compositeKey, k.Salt, k.Iterations, k.MemoryKiB, k.Parallelism, outLen)
	case Argon2ID:
		out = argon2.IDKey(compositeKey, k.Salt, k.Iterations, k.MemoryKiB, k.Parallelism, outLen)
	default:
		return nil, kdbxtypes.ErrCryptoKDFUnsupported.WithCause(unsupportedVariantError{})
	}

	if err := ctx.Err(); err != nil {
		return nil, kdbxtypes.ErrCancelled.WithCause(err)
	}
	return out, nil
}

type unsupportedVersionError struct{ version byte }

func (e unsupportedVersionError) Error() string {
	return "argon2: unsupported version byte"
}

type outOfRangeParamError struct{}

func (outOfRangeParamError) Error() string { return "argon2: parallelism, memory, and iterations must be non-zero" }

type unsupportedVariantError struct{}

func (unsupportedVariantError) Error() string { return "argon2: unknown variant" }

package registry

import (
	"fmt"
	"os"

	"github.com/kdbxkit/kdbx/internal/crypto/cipher"
	"github.com/kdbxkit/kdbx/internal/crypto/kdf"
	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// NewDefault returns a Registry pre-populated with every cipher and KDF
// this library implements, under their standard UUIDs.
func NewDefault() *Registry {
	r := New()

	r.RegisterCipher(kdbxtypes.CipherAES128CBC, 16, 16, true, func(key, iv []byte, decrypt bool) (cipher.BulkCipher, error) {
		return cipher.NewAES128CBC(key, iv, decrypt)
	})
	r.RegisterCipher(kdbxtypes.CipherAES256CBC, 32, 16, false, func(key, iv []byte, decrypt bool) (cipher.BulkCipher, error) {
		return cipher.NewAES256CBC(key, iv, decrypt)
	})
	r.RegisterCipher(kdbxtypes.CipherTwofishCBC, 32, 16, false, func(key, iv []byte, decrypt bool) (cipher.BulkCipher, error) {
		return cipher.NewTwofishCBC(key, iv, decrypt)
	})
	r.RegisterCipher(kdbxtypes.CipherSerpentCBC, 32, 16, false, func(key, iv []byte, decrypt bool) (cipher.BulkCipher, error) {
		return cipher.NewSerpentCBC(key, iv, decrypt)
	})
	r.RegisterCipher(kdbxtypes.CipherChaCha20, 32, 12, false, func(key, iv []byte, decrypt bool) (cipher.BulkCipher, error) {
		return cipher.NewChaCha20Outer(key, iv)
	})

	r.RegisterKDF(kdbxtypes.KDFAESKDF, aesKDFConstructor(false))
	r.RegisterKDF(kdbxtypes.KDFAESKDFChallenge, aesKDFConstructor(false))
	r.RegisterKDF(kdbxtypes.KDFArgon2d, argon2Constructor(kdf.Argon2D))
	r.RegisterKDF(kdbxtypes.KDFArgon2id, argon2Constructor(kdf.Argon2ID))

	return r
}

func aesKDFConstructor(noParallel bool) KDFConstructor {
	return func(params *format.VariantMap) (kdf.KDF, error) {
		seed, ok := params.GetBytes("S")
		if !ok || len(seed) != 32 {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("aes-kdf: missing or malformed seed (S)"))
		}
		rounds, ok := params.GetUint64("R")
		if !ok {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("aes-kdf: missing rounds (R)"))
		}
		return &kdf.AESKDF{Seed: seed, Rounds: rounds, NoParallel: noParallel || os.Getenv(NoForkEnvVar) != ""}, nil
	}
}

func argon2Constructor(variant kdf.Argon2Variant) KDFConstructor {
	return func(params *format.VariantMap) (kdf.KDF, error) {
		salt, ok := params.GetBytes("S")
		if !ok {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("argon2: missing salt (S)"))
		}
		parallelism, ok := params.GetUint32("P")
		if !ok {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("argon2: missing parallelism (P)"))
		}
		memBytes, ok := params.GetUint64("M")
		if !ok {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("argon2: missing memory (M)"))
		}
		iterations, ok := params.GetUint64("I")
		if !ok {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("argon2: missing iterations (I)"))
		}
		version, _ := params.GetUint32("V")
		secret, _ := params.GetBytes("K")
		assoc, _ := params.GetBytes("A")

		return &kdf.Argon2KDF{
			Variant:        variant,
			Salt:           salt,
			Parallelism:    uint8(parallelism),
			MemoryKiB:      uint32(memBytes / 1024),
			Iterations:     uint32(iterations),
			Version:        byte(version),
			Secret:         secret,
			AssociatedData: assoc,
		}, nil
	}
}

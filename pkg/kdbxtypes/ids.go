package kdbxtypes

// Well-known cipher and KDF UUIDs recognized by the crypto registry
// (internal/crypto/registry). Values match the constants used across the
// KDBX ecosystem so files produced by other implementations resolve to the
// same algorithm here.
var (
	CipherAES128CBC   = mustHexUUID("61ab05a1946441c38d743a563df8dd35") // legacy, read-only
	CipherAES256CBC   = mustHexUUID("31c1f2e6bf714350be5805216afc5aff")
	CipherTwofishCBC  = mustHexUUID("ad68f29f576f4bb9a36ad47af965346c")
	CipherSerpentCBC  = mustHexUUID("098563ffddf74f9886198079f6db897a")
	CipherChaCha20    = mustHexUUID("d6038a2b8b6f4cb5a524339a31dbb59a")
	CipherSalsa20Outer = mustHexUUID("716e1c8aee174bdc93aea977b882833a") // not used as an outer cipher in practice, retained for completeness
)

var (
	KDFAESKDF           = mustHexUUID("c9d9f39a628a4460bf740d08c18a4fea")
	KDFAESKDFChallenge  = mustHexUUID("7c02bb8279a74ac0927d114a00648238") // challenge-response AES-KDF variant
	KDFArgon2d          = mustHexUUID("ef636ddf8c29444b91f7a9a403e30a0c")
	KDFArgon2id         = mustHexUUID("9e298b1956db4773b23dfc3ec6f0a1e6")
)

// Inner-stream cipher IDs, a small integer space distinct from the UUID
// space used for outer ciphers and KDFs.
const (
	InnerStreamNone    uint32 = 0
	InnerStreamArcFour uint32 = 1 // legacy, unsupported
	InnerStreamSalsa20 uint32 = 2
	InnerStreamChaCha20 uint32 = 3
)

func mustHexUUID(hexStr string) UUID {
	u, err := UUIDFromHex(hexStr)
	if err != nil {
		panic(err)
	}
	return u
}

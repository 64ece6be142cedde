package outer

import (
	"context"
	"crypto/sha256"

	"github.com/kdbxkit/kdbx/internal/crypto/kdf"
	"github.com/kdbxkit/kdbx/internal/key"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// components builds the ordered key.Component list from caller-supplied
// key material. At least one of password, key file or challenge-response
// must be present or the database has no key at all (ErrKeyMissing).
func components(k kdbxtypes.KeyMaterial) ([]key.Component, error) {
	var out []key.Component
	if k.HasPassword {
		out = append(out, key.Password{Text: k.Password})
	}
	if len(k.KeyFile) > 0 {
		raw, err := key.FromFile(k.KeyFile)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	if k.ChallengeResponse != nil {
		out = append(out, key.ChallengeResponse{Respond: k.ChallengeResponse})
	}
	if len(out) == 0 {
		return nil, kdbxtypes.ErrKeyMissing
	}
	return out, nil
}

// deriveFinalKey runs the full key schedule: composite raw key, KDF
// transform, and the SHA-256 combination with the master seed that
// produces the cipher's encryption key. It returns the transformed key
// too, since v4 needs it (not the composite key) to derive the HMAC seed.
func deriveFinalKey(ctx context.Context, k kdbxtypes.KeyMaterial, masterSeed []byte, transform kdf.KDF) (cipherKey, transformedKey []byte, err error) {
	comps, err := components(k)
	if err != nil {
		return nil, nil, err
	}
	composite, err := key.Composite(ctx, comps, masterSeed)
	if err != nil {
		return nil, nil, err
	}
	transformed, err := transform.Transform(ctx, composite)
	if err != nil {
		return nil, nil, err
	}
	h := sha256.New()
	h.Write(masterSeed)
	h.Write(transformed)
	return h.Sum(nil), transformed, nil
}

// Package key computes the composite raw key from password, key-file, and
// challenge-response component keys.
package key

import (
	"context"
	"crypto/sha256"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// Component is one contributor to a composite master key.
type Component interface {
	// RawKey returns this component's contribution before composition.
	// Challenge-response components instead implement ChallengeComponent
	// and are excluded from this call.
	RawKey() []byte
}

// ChallengeComponent is a Component whose raw key depends on a
// challenge (the master seed) resolved at composite-key time, typically
// via hardware.
type ChallengeComponent interface {
	Challenge(ctx context.Context, challenge []byte) ([]byte, error)
}

// Password is a Component computed as SHA-256 of the UTF-8 password text.
type Password struct {
	Text string
}

func (p Password) RawKey() []byte {
	sum := sha256.Sum256([]byte(p.Text))
	return sum[:]
}

// Raw is a Component that is already exactly the bytes to contribute,
// used for key-file-derived components (see filekey.go).
type Raw struct {
	Bytes []byte
}

func (r Raw) RawKey() []byte { return r.Bytes }

// ChallengeResponse is a Component whose contribution comes from an
// external callback given the master seed as challenge.
type ChallengeResponse struct {
	Respond func(ctx context.Context, challenge []byte) ([]byte, error)
}

func (c ChallengeResponse) Challenge(ctx context.Context, challenge []byte) ([]byte, error) {
	return c.Respond(ctx, challenge)
}

// RawKey satisfies Component; Composite never calls it for a
// ChallengeComponent.
func (c ChallengeResponse) RawKey() []byte { return nil }

// Composite computes the combined master raw key from an ordered list of
// components per spec §4.5: basic (non-challenge) raw keys are
// concatenated in order; if any challenge-response components are
// present, each is invoked with challenge and their responses are
// SHA-256-hashed together into one "challenge digest" appended after the
// basic keys; the whole concatenation is then SHA-256'd once more.
func Composite(ctx context.Context, components []Component, challenge []byte) ([]byte, error) {
	var basic []byte
	var challengeResponses [][]byte

	for _, c := range components {
		if cr, ok := c.(ChallengeComponent); ok {
			resp, err := cr.Challenge(ctx, challenge)
			if err != nil {
				return nil, kdbxtypes.ErrKeyTimeout.WithCause(err)
			}
			challengeResponses = append(challengeResponses, resp)
			continue
		}
		basic = append(basic, c.RawKey()...)
	}

	if len(components) == 0 {
		return nil, kdbxtypes.ErrKeyMissing
	}

	if len(challengeResponses) == 0 {
		sum := sha256.Sum256(basic)
		return sum[:], nil
	}

	h := sha256.New()
	for _, r := range challengeResponses {
		h.Write(r)
	}
	challengeDigest := h.Sum(nil)

	final := sha256.New()
	final.Write(basic)
	final.Write(challengeDigest)
	sum := final.Sum(nil)
	return sum, nil
}

package kdf

import (
	"context"
	"crypto/aes"
	"crypto/sha256"
	"sync"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// AESKDF is the legacy KDF: split the composite key into two 16-byte
// halves, AES-ECB-encrypt each half with Seed as key for Rounds
// iterations, concatenate, and SHA-256 the result. The two halves are
// independent, so when Rounds is large the transform runs them in
// parallel goroutines unless NoParallel is set.
type AESKDF struct {
	Seed       []byte // 32 bytes
	Rounds     uint64
	NoParallel bool
}

// parallelThreshold matches the spec's "MUST provide a parallel path for
// R >= 100000" requirement.
const parallelThreshold = 100000

func (k *AESKDF) Transform(ctx context.Context, compositeKey []byte) ([]byte, error) {
	if len(compositeKey) != 32 {
		return nil, kdbxtypes.ErrInvariant.WithCause(errShortCompositeKey)
	}
	if err := ctx.Err(); err != nil {
		return nil, kdbxtypes.ErrCancelled.WithCause(err)
	}

	left := append([]byte(nil), compositeKey[:16]...)
	right := append([]byte(nil), compositeKey[16:]...)

	parallel := !k.NoParallel && k.Rounds >= parallelThreshold
	if parallel {
		var wg sync.WaitGroup
		var leftErr, rightErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			leftErr = transformHalf(left, k.Seed, k.Rounds, ctx)
		}()
		go func() {
			defer wg.Done()
			rightErr = transformHalf(right, k.Seed, k.Rounds, ctx)
		}()
		wg.Wait()
		if leftErr != nil {
			return nil, leftErr
		}
		if rightErr != nil {
			return nil, rightErr
		}
	} else {
		if err := transformHalf(left, k.Seed, k.Rounds, ctx); err != nil {
			return nil, err
		}
		if err := transformHalf(right, k.Seed, k.Rounds, ctx); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, kdbxtypes.ErrCancelled.WithCause(err)
	}

	sum := sha256.Sum256(append(left, right...))
	return sum[:], nil
}

// transformHalf runs AES-ECB (single-block repeated encryption) on half
// in place for rounds iterations, checking ctx periodically so a
// cancellation doesn't have to wait for the full round count.
func transformHalf(half, seed []byte, rounds uint64, ctx context.Context) error {
	block, err := aes.NewCipher(seed)
	if err != nil {
		return kdbxtypes.ErrInvariant.WithCause(err)
	}
	const checkEvery = 1 << 16
	for i := uint64(0); i < rounds; i++ {
		block.Encrypt(half, half)
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return kdbxtypes.ErrCancelled.WithCause(err)
			}
		}
	}
	return nil
}

var errShortCompositeKey = shortKeyError{}

type shortKeyError struct{}

func (shortKeyError) Error() string { return "aes-kdf: composite key must be 32 bytes" }

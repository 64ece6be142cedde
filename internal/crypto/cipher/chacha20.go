package cipher

import (
	"crypto/sha512"

	"golang.org/x/crypto/chacha20"
)

// chacha20Stream wraps golang.org/x/crypto/chacha20, which already
// maintains its own block counter across XORKeyStream calls, so
// Keystream/Dup only need to seek that counter rather than recompute from
// the start.
type chacha20Stream struct {
	xorStream
	key   [32]byte
	nonce [chacha20.NonceSize]byte
	c     *chacha20.Cipher
}

// NewChaCha20Outer constructs the outer ChaCha20 cipher from the raw
// encryption key and the header IV: the first 12 bytes of the IV are the
// nonce.
func NewChaCha20Outer(key, iv []byte) (BulkCipher, error) {
	if len(iv) < chacha20.NonceSize {
		return nil, ErrShortBlock
	}
	return newChaCha20(key, iv[:chacha20.NonceSize])
}

// NewChaCha20InnerStream derives the inner-stream ChaCha20 key and nonce
// from the KDBX inner-stream key per spec: SHA-512 of the key, first 32
// bytes as the ChaCha20 key, next 12 bytes as the nonce, counter 0.
func NewChaCha20InnerStream(innerKey []byte) (StreamCipher, error) {
	h := sha512.Sum512(innerKey)
	c, err := newChaCha20(h[:32], h[32:44])
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newChaCha20(key, nonce []byte) (*chacha20Stream, error) {
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, err
	}
	s := &chacha20Stream{c: c}
	copy(s.key[:], key)
	copy(s.nonce[:], nonce)
	s.xorStream.next = s.keystream
	return s, nil
}

func (s *chacha20Stream) keystream(n int) ([]byte, error) {
	in := make([]byte, n)
	out := make([]byte, n)
	s.c.XORKeyStream(out, in)
	return out, nil
}

func (s *chacha20Stream) Keystream(n int) ([]byte, error) { return s.keystream(n) }

func (s *chacha20Stream) Dup(offset uint64) (StreamCipher, error) {
	c, err := chacha20.NewUnauthenticatedCipher(s.key[:], s.nonce[:])
	if err != nil {
		return nil, err
	}
	c.SetCounter(uint32(offset / 64))
	dup := &chacha20Stream{c: c, key: s.key, nonce: s.nonce}
	dup.xorStream.next = dup.keystream
	if rem := offset % 64; rem != 0 {
		if _, err := dup.keystream(int(rem)); err != nil {
			return nil, err
		}
	}
	return dup, nil
}

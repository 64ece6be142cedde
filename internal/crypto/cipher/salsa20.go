package cipher

import (
	"crypto/sha256"

	"golang.org/x/crypto/salsa20/salsa"
)

// salsa20InnerIV is the fixed IV the KDBX format uses for the inner
// Salsa20 stream, independent of any per-database seed.
var salsa20InnerIV = [8]byte{0xE8, 0x30, 0x09, 0x4B, 0x97, 0x20, 0x5D, 0x2A}

// salsa20Stream implements StreamCipher over golang.org/x/crypto/salsa20's
// single-shot XORKeyStream, which always starts its internal counter at 0.
// Rather than hand-roll the block/counter arithmetic that function hides,
// Keystream(n) and Dup(offset) both regenerate keystream from byte 0 and
// return the requested tail; Safe values are small, so the recomputation
// cost is immaterial next to the code it avoids duplicating.
type salsa20Stream struct {
	xorStream
	key   [32]byte
	nonce [8]byte
	pos   uint64
}

// NewSalsa20InnerStream derives the inner-stream Salsa20 key from the
// KDBX inner-stream key per spec: SHA-256 of the key as the Salsa20 key,
// fixed IV, counter 0.
func NewSalsa20InnerStream(innerKey []byte) (StreamCipher, error) {
	key := sha256.Sum256(innerKey)
	s := &salsa20Stream{key: key, nonce: salsa20InnerIV}
	s.xorStream.next = s.keystream
	return s, nil
}

func (s *salsa20Stream) keystreamFrom(offset uint64, n int) []byte {
	total := int(offset) + n
	in := make([]byte, total)
	out := make([]byte, total)
	var counter [16]byte // nonce in bytes 0-7, block counter (0) in bytes 8-15
	copy(counter[:8], s.nonce[:])
	salsa.XORKeyStream(out, in, &counter, &s.key)
	return out[offset:]
}

func (s *salsa20Stream) keystream(n int) ([]byte, error) {
	ks := s.keystreamFrom(s.pos, n)
	s.pos += uint64(n)
	return ks, nil
}

func (s *salsa20Stream) Keystream(n int) ([]byte, error) { return s.keystream(n) }

func (s *salsa20Stream) Dup(offset uint64) (StreamCipher, error) {
	dup := &salsa20Stream{key: s.key, nonce: s.nonce, pos: offset}
	dup.xorStream.next = dup.keystream
	return dup, nil
}

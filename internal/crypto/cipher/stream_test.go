package cipher

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChaCha20InnerStreamRoundTrip(t *testing.T) {
	key := []byte("an inner stream key of any length")
	enc, err := NewChaCha20InnerStream(key)
	require.NoError(t, err)
	dec, err := NewChaCha20InnerStream(key)
	require.NoError(t, err)

	plaintext := []byte("protected password value")
	ct, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	pt, err := dec.Decrypt(ct)
	require.NoError(t, err)
	require.True(t, bytes.Equal(plaintext, pt))
}

func TestChaCha20DupMatchesSequentialOffset(t *testing.T) {
	key := []byte("another inner stream key")
	s, err := NewChaCha20InnerStream(key)
	require.NoError(t, err)

	// Consume 100 bytes sequentially to advance the cipher's counter.
	_, err = s.Keystream(100)
	require.NoError(t, err)
	next, err := s.Keystream(16)
	require.NoError(t, err)

	dup, err := s.Dup(100)
	require.NoError(t, err)
	fromDup, err := dup.Keystream(16)
	require.NoError(t, err)

	require.True(t, bytes.Equal(next, fromDup))
}

func TestSalsa20InnerStreamRoundTrip(t *testing.T) {
	key := []byte("salsa inner stream key")
	enc, err := NewSalsa20InnerStream(key)
	require.NoError(t, err)
	dec, err := NewSalsa20InnerStream(key)
	require.NoError(t, err)

	plaintext := []byte("another protected value")
	ct, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	pt, err := dec.Decrypt(ct)
	require.NoError(t, err)
	require.True(t, bytes.Equal(plaintext, pt))
}

func TestSalsa20DupMatchesOffset(t *testing.T) {
	key := []byte("salsa dup key")
	s, err := NewSalsa20InnerStream(key)
	require.NoError(t, err)
	_, err = s.Keystream(50)
	require.NoError(t, err)
	next, err := s.Keystream(8)
	require.NoError(t, err)

	dup, err := s.Dup(50)
	require.NoError(t, err)
	fromDup, err := dup.Keystream(8)
	require.NoError(t, err)

	require.True(t, bytes.Equal(next, fromDup))
}

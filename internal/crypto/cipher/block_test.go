package cipher

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAES256CBCRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	_, err := rand.Read(key)
	require.NoError(t, err)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	plaintext := []byte("the quick brown fox jumps over the lazy dog, more than one block")

	enc, err := NewAES256CBC(key, iv, false)
	require.NoError(t, err)
	var ciphertext []byte
	part, err := enc.Encrypt(plaintext[:10])
	require.NoError(t, err)
	ciphertext = append(ciphertext, part...)
	part, err = enc.Encrypt(plaintext[10:])
	require.NoError(t, err)
	ciphertext = append(ciphertext, part...)
	tail, err := enc.Finish()
	require.NoError(t, err)
	ciphertext = append(ciphertext, tail...)
	require.Equal(t, 0, len(ciphertext)%16)

	dec, err := NewAES256CBC(key, iv, true)
	require.NoError(t, err)
	var recovered []byte
	part, err = dec.Decrypt(ciphertext[:16])
	require.NoError(t, err)
	recovered = append(recovered, part...)
	part, err = dec.Decrypt(ciphertext[16:])
	require.NoError(t, err)
	recovered = append(recovered, part...)
	tail, err = dec.Finish()
	require.NoError(t, err)
	recovered = append(recovered, tail...)

	require.True(t, bytes.Equal(plaintext, recovered))
}

func TestAES256CBCBadPaddingDetected(t *testing.T) {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	enc, err := NewAES256CBC(key, iv, false)
	require.NoError(t, err)
	ct, err := enc.Encrypt([]byte("0123456789abcdef"))
	require.NoError(t, err)
	tail, err := enc.Finish()
	require.NoError(t, err)
	ct = append(ct, tail...)

	// Corrupt the last ciphertext block so the decrypted padding is wrong.
	ct[len(ct)-1] ^= 0xFF

	dec, err := NewAES256CBC(key, iv, true)
	require.NoError(t, err)
	_, err = dec.Decrypt(ct)
	require.NoError(t, err)
	_, err = dec.Finish()
	require.Error(t, err)
}

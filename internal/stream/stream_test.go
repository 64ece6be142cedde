package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/internal/crypto/cipher"
)

func TestHashBlockRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewHashBlockWriter(&buf, 8) // tiny block size to force multiple blocks
	payload := []byte("the quick brown fox jumps over the lazy dog")
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewHashBlockReader(&buf)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestHashBlockDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	w := NewHashBlockWriter(&buf, 16)
	_, err := w.Write([]byte("some plaintext long enough to span blocks, twice over"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	corrupted := buf.Bytes()
	corrupted[50] ^= 0xFF

	r := NewHashBlockReader(bytes.NewReader(corrupted))
	_, err = io.ReadAll(r)
	require.Error(t, err)
}

func TestHMACBlockRoundTrip(t *testing.T) {
	seed := HMACKeySeed(bytes.Repeat([]byte{0x01}, 32), bytes.Repeat([]byte{0x02}, 32))
	var buf bytes.Buffer
	w := NewHMACBlockWriter(&buf, seed, 10)
	payload := []byte("another payload that spans several ten-byte blocks for testing")
	_, err := w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewHMACBlockReader(&buf, seed)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestHMACBlockWrongSeedFails(t *testing.T) {
	seed := HMACKeySeed(bytes.Repeat([]byte{0x01}, 32), bytes.Repeat([]byte{0x02}, 32))
	wrongSeed := HMACKeySeed(bytes.Repeat([]byte{0x09}, 32), bytes.Repeat([]byte{0x02}, 32))
	var buf bytes.Buffer
	w := NewHMACBlockWriter(&buf, seed, 32)
	_, err := w.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r := NewHMACBlockReader(&buf, wrongSeed)
	_, err = io.ReadAll(r)
	require.Error(t, err)
}

func TestGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewGzipWriter(&buf)
	_, err := w.Write([]byte("compress me please, compress me please, compress me please"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewGzipReader(&buf)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "compress me please, compress me please, compress me please", string(got))
}

func TestCipherLayerRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x03}, 32)
	iv := bytes.Repeat([]byte{0x04}, 16)

	var buf bytes.Buffer
	enc, err := cipher.NewAES256CBC(key, iv, false)
	require.NoError(t, err)
	w := NewCipherWriter(&buf, enc)
	_, err = w.Write([]byte("plaintext flowing through the cipher layer"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	dec, err := cipher.NewAES256CBC(key, iv, true)
	require.NoError(t, err)
	r := NewCipherReader(&buf, dec)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "plaintext flowing through the cipher layer", string(got))
}

func TestComposedCipherAndGzipAndHashBlock(t *testing.T) {
	key := bytes.Repeat([]byte{0x05}, 32)
	iv := bytes.Repeat([]byte{0x06}, 16)
	plaintextBody := []byte("xml body goes here, pretend this is much longer and structured")

	var gz bytes.Buffer
	gw := NewGzipWriter(&gz)
	_, err := gw.Write(plaintextBody)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var hashed bytes.Buffer
	hw := NewHashBlockWriter(&hashed, 32)
	_, err = hw.Write(gz.Bytes())
	require.NoError(t, err)
	require.NoError(t, hw.Close())

	enc, err := cipher.NewAES256CBC(key, iv, false)
	require.NoError(t, err)
	var ciphertext bytes.Buffer
	cw := NewCipherWriter(&ciphertext, enc)
	_, err = cw.Write(hashed.Bytes())
	require.NoError(t, err)
	require.NoError(t, cw.Close())

	dec, err := cipher.NewAES256CBC(key, iv, true)
	require.NoError(t, err)
	cr := NewCipherReader(&ciphertext, dec)
	hr := NewHashBlockReader(cr)
	gr, err := NewGzipReader(hr)
	require.NoError(t, err)
	got, err := io.ReadAll(gr)
	require.NoError(t, err)
	require.Equal(t, plaintextBody, got)
}

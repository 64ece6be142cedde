package key

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromFileBinary32Bytes(t *testing.T) {
	data := bytes.Repeat([]byte{0x5A}, 32)
	raw, err := FromFile(data)
	require.NoError(t, err)
	require.Equal(t, data, raw.Bytes)
}

func TestFromFileHex64Chars(t *testing.T) {
	want := bytes.Repeat([]byte{0x11}, 32)
	data := []byte(strings.ToUpper(hex.EncodeToString(want)))
	raw, err := FromFile(data)
	require.NoError(t, err)
	require.Equal(t, want, raw.Bytes)
}

func TestFromFileHashedFallback(t *testing.T) {
	data := []byte("some arbitrary file contents that are not 32 or 64 bytes long")
	want := sha256.Sum256(data)
	raw, err := FromFile(data)
	require.NoError(t, err)
	require.Equal(t, want[:], raw.Bytes)
}

func TestFromFileXMLVersion1(t *testing.T) {
	payload := bytes.Repeat([]byte{0x33}, 32)
	doc := `<?xml version="1.0"?><KeyFile><Meta><Version>1.00</Version></Meta><Key><Data>` +
		base64.StdEncoding.EncodeToString(payload) + `</Data></Key></KeyFile>`
	raw, err := FromFile([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, payload, raw.Bytes)
}

func TestFromFileXMLVersion2(t *testing.T) {
	payload := bytes.Repeat([]byte{0x44}, 32)
	sum := sha256.Sum256(payload)
	hashAttr := hex.EncodeToString(sum[:4])
	doc := `<?xml version="1.0"?><KeyFile><Meta><Version>2.0</Version></Meta><Key><Data Hash="` +
		hashAttr + `">` + hex.EncodeToString(payload) + `</Data></Key></KeyFile>`
	raw, err := FromFile([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, payload, raw.Bytes)
}

func TestFromFileXMLVersion2BadHashRejected(t *testing.T) {
	payload := bytes.Repeat([]byte{0x55}, 32)
	doc := `<?xml version="1.0"?><KeyFile><Meta><Version>2.0</Version></Meta><Key><Data Hash="deadbeef">` +
		hex.EncodeToString(payload) + `</Data></Key></KeyFile>`
	_, err := FromFile([]byte(doc))
	require.Error(t, err)
}

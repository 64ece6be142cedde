package outer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kdbxkit/kdbx/internal/crypto/registry"
	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

func testOpts(password string) kdbxtypes.OpenOptions {
	return kdbxtypes.OpenOptions{
		Key:           kdbxtypes.KeyMaterial{Password: password, HasPassword: true},
		NoParallelKDF: true,
	}
}

func TestV3RoundTrip(t *testing.T) {
	reg := registry.NewDefault()
	h := &Header{
		Version:         kdbxtypes.Version3_1,
		CipherID:        kdbxtypes.CipherAES256CBC,
		Compressed:      true,
		TransformRounds: 2, // cheap for the test
	}
	body := []byte("<KeePassFile><Meta/><Root/></KeePassFile>")

	out, err := SaveV3(context.Background(), h, body, testOpts("correct horse"), reg)
	require.NoError(t, err)

	loaded, err := LoadV3(context.Background(), out, testOpts("correct horse"), reg)
	require.NoError(t, err)
	require.Equal(t, body, loaded.Body)
	require.Equal(t, kdbxtypes.CipherAES256CBC, loaded.Header.CipherID)
}

func TestV3RoundTripUncompressed(t *testing.T) {
	reg := registry.NewDefault()
	h := &Header{
		Version:         kdbxtypes.Version3_1,
		CipherID:        kdbxtypes.CipherTwofishCBC,
		Compressed:      false,
		TransformRounds: 2,
	}
	body := []byte("<KeePassFile>plain body, no gzip</KeePassFile>")

	out, err := SaveV3(context.Background(), h, body, testOpts("hunter2"), reg)
	require.NoError(t, err)

	loaded, err := LoadV3(context.Background(), out, testOpts("hunter2"), reg)
	require.NoError(t, err)
	require.Equal(t, body, loaded.Body)
}

func TestV3WrongPasswordFails(t *testing.T) {
	reg := registry.NewDefault()
	h := &Header{
		Version:         kdbxtypes.Version3_1,
		CipherID:        kdbxtypes.CipherAES256CBC,
		Compressed:      true,
		TransformRounds: 2,
	}
	out, err := SaveV3(context.Background(), h, []byte("<KeePassFile/>"), testOpts("right"), reg)
	require.NoError(t, err)

	_, err = LoadV3(context.Background(), out, testOpts("wrong"), reg)
	require.Error(t, err)
	require.ErrorIs(t, err, kdbxtypes.ErrKeyInvalid)
}

func TestV4RoundTripAESKDF(t *testing.T) {
	reg := registry.NewDefault()
	params := format.NewVariantMap()
	params.SetBytes(kdfUUIDKey, kdbxtypes.KDFAESKDF.Bytes())
	params.SetBytes("S", make([]byte, 32))
	params.SetUint64("R", 2)

	h := &Header{
		Version:       kdbxtypes.Version4_0,
		CipherID:      kdbxtypes.CipherChaCha20,
		Compressed:    true,
		KDFParameters: params,
	}
	body := []byte("inner-header-bytes-then<KeePassFile><Meta/><Root/></KeePassFile>")

	out, err := SaveV4(context.Background(), h, body, testOpts("correct horse"), reg)
	require.NoError(t, err)

	loaded, err := LoadV4(context.Background(), out, testOpts("correct horse"), reg)
	require.NoError(t, err)
	require.Equal(t, body, loaded.Body)
}

func TestV4RoundTripArgon2idExplicitParams(t *testing.T) {
	reg := registry.NewDefault()
	h := &Header{
		Version:    kdbxtypes.Version4_1,
		CipherID:   kdbxtypes.CipherAES256CBC,
		Compressed: false,
	}
	// Use cheap Argon2 params for the test instead of SaveV4's expensive default.
	params := format.NewVariantMap()
	params.SetBytes(kdfUUIDKey, kdbxtypes.KDFArgon2id.Bytes())
	params.SetBytes("S", make([]byte, 16))
	params.SetUint32("P", 1)
	params.SetUint64("M", 8*1024)
	params.SetUint64("I", 1)
	params.SetUint32("V", 0x13)
	h.KDFParameters = params

	body := []byte("<KeePassFile>argon2 body</KeePassFile>")
	out, err := SaveV4(context.Background(), h, body, testOpts("swordfish"), reg)
	require.NoError(t, err)

	loaded, err := LoadV4(context.Background(), out, testOpts("swordfish"), reg)
	require.NoError(t, err)
	require.Equal(t, body, loaded.Body)
}

func TestV4TamperedCiphertextFailsHMAC(t *testing.T) {
	reg := registry.NewDefault()
	params := format.NewVariantMap()
	params.SetBytes(kdfUUIDKey, kdbxtypes.KDFAESKDF.Bytes())
	params.SetBytes("S", make([]byte, 32))
	params.SetUint64("R", 2)
	h := &Header{Version: kdbxtypes.Version4_0, CipherID: kdbxtypes.CipherChaCha20, KDFParameters: params}

	out, err := SaveV4(context.Background(), h, []byte("<KeePassFile/>"), testOpts("pw"), reg)
	require.NoError(t, err)
	out[len(out)-1] ^= 0xFF

	_, err = LoadV4(context.Background(), out, testOpts("pw"), reg)
	require.Error(t, err)
}

func TestParseMagicRejectsBadSignature(t *testing.T) {
	_, _, _, err := ParseMagic([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, kdbxtypes.ErrFormatSignature)
}

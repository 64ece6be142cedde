package outer

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/kdbxkit/kdbx/internal/crypto/registry"
	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/internal/stream"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// kdfUUIDKey is the well-known variant-map key carrying the KDF's own UUID
// inside the KDFParameters field.
const kdfUUIDKey = "$UUID"

// LoadV4 runs the full v4 read pipeline: parse header, verify the header
// SHA-256 and HMAC, resolve and run the KDF from KDFParameters, derive the
// HMAC block seed from the transformed key, decrypt, and decompress. The
// returned Body still carries v4 inner headers ahead of the XML payload;
// splitting that is internal/codec/inner's job.
func LoadV4(ctx context.Context, data []byte, opts kdbxtypes.OpenOptions, reg *registry.Registry) (*LoadResult, error) {
	version, _, magicLen, err := ParseMagic(data)
	if err != nil {
		return nil, err
	}
	fields, consumed, err := readFields(data[magicLen:], fieldLenSize(version))
	if err != nil {
		return nil, kdbxtypes.ErrFormatHeader.WithCause(err)
	}
	headerEnd := magicLen + consumed
	headerBytes := data[:headerEnd]
	h := &Header{Version: version, Raw: append([]byte(nil), headerBytes...)}

	if v, ok := findField(fields, FieldCipherID); ok {
		id, err := kdbxtypes.UUIDFromBytes(v)
		if err != nil {
			return nil, kdbxtypes.ErrFormatHeader.WithCause(err)
		}
		h.CipherID = id
	} else {
		return nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("missing cipher id"))
	}
	if v, ok := findField(fields, FieldCompression); ok && len(v) == 4 {
		h.Compressed = format.ReadU32(v, 0) == CompressionGzip
	}
	if v, ok := findField(fields, FieldMasterSeed); ok {
		h.MasterSeed = v
	} else {
		return nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("missing master seed"))
	}
	if v, ok := findField(fields, FieldEncryptionIV); ok {
		h.EncryptionIV = v
	}
	if v, ok := findField(fields, FieldKDFParameters); ok {
		kdfParams, err := format.DecodeVariantMap(v)
		if err != nil {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(err)
		}
		h.KDFParameters = kdfParams
	} else {
		return nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("missing kdf parameters"))
	}
	if v, ok := findField(fields, FieldPublicCustomData); ok {
		pcd, err := format.DecodeVariantMap(v)
		if err != nil {
			return nil, kdbxtypes.ErrFormatVariantMap.WithCause(err)
		}
		h.PublicCustomData = pcd
	}

	if len(data) < headerEnd+32+32 {
		return nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("truncated header hash/hmac"))
	}
	gotSHA := data[headerEnd : headerEnd+32]
	gotHMAC := data[headerEnd+32 : headerEnd+64]
	wantSHA := sha256.Sum256(headerBytes)
	if !bytes.Equal(wantSHA[:], gotSHA) {
		return nil, kdbxtypes.ErrFormatHeader.WithCause(fmt.Errorf("header sha-256 mismatch"))
	}

	kdfID, ok := h.KDFParameters.GetBytes(kdfUUIDKey)
	if !ok || len(kdfID) != 16 {
		return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("kdf parameters missing $UUID"))
	}
	kdfUUID, err := kdbxtypes.UUIDFromBytes(kdfID)
	if err != nil {
		return nil, kdbxtypes.ErrFormatVariantMap.WithCause(err)
	}
	transform, err := reg.NewKDF(kdfUUID, h.KDFParameters)
	if err != nil {
		return nil, err
	}

	cipherKey, transformedKey, err := deriveFinalKey(ctx, opts.Key, h.MasterSeed, transform)
	if err != nil {
		return nil, err
	}
	hmacSeed := stream.HMACKeySeed(h.MasterSeed, transformedKey)

	wantHeaderHMAC := stream.HeaderHMAC(hmacSeed, headerBytes)
	if !hmac.Equal(wantHeaderHMAC, gotHMAC) {
		return nil, kdbxtypes.ErrKeyInvalid
	}

	blockSrc := stream.NewHMACBlockReader(bytes.NewReader(data[headerEnd+64:]), hmacSeed)

	bulk, err := reg.NewCipher(h.CipherID, cipherKey, h.EncryptionIV, true)
	if err != nil {
		return nil, err
	}
	plain := stream.NewCipherReader(blockSrc, bulk)

	var bodyReader io.Reader = plain
	if h.Compressed {
		gz, err := stream.NewGzipReader(plain)
		if err != nil {
			return nil, err
		}
		bodyReader = gz
	}
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Header: h, Body: body}, nil
}

// SaveV4 runs the full v4 write pipeline: randomize seeds, build
// KDFParameters if absent, compute the key schedule, compress, encrypt,
// HMAC-frame, and prepend the header plus its SHA-256/HMAC.
func SaveV4(ctx context.Context, h *Header, body []byte, opts kdbxtypes.OpenOptions, reg *registry.Registry) ([]byte, error) {
	if len(h.MasterSeed) == 0 {
		h.MasterSeed = randomBytes(32)
	}
	if len(h.EncryptionIV) == 0 {
		ivLen := 16
		if h.CipherID == kdbxtypes.CipherChaCha20 {
			ivLen = 12
		}
		h.EncryptionIV = randomBytes(ivLen)
	}
	if h.KDFParameters == nil {
		h.KDFParameters = defaultArgon2Params()
	}

	kdfID, ok := h.KDFParameters.GetBytes(kdfUUIDKey)
	if !ok || len(kdfID) != 16 {
		return nil, kdbxtypes.ErrFormatVariantMap.WithCause(fmt.Errorf("kdf parameters missing $UUID"))
	}
	kdfUUID, err := kdbxtypes.UUIDFromBytes(kdfID)
	if err != nil {
		return nil, err
	}
	transform, err := reg.NewKDF(kdfUUID, h.KDFParameters)
	if err != nil {
		return nil, err
	}
	cipherKey, transformedKey, err := deriveFinalKey(ctx, opts.Key, h.MasterSeed, transform)
	if err != nil {
		return nil, err
	}
	hmacSeed := stream.HMACKeySeed(h.MasterSeed, transformedKey)

	fields := v4Fields(h)
	magic := WriteMagic(h.Version)
	fullHeader := append(append([]byte(nil), magic...), writeFields(fields, fieldLenSize(h.Version))...)
	headerSHA := sha256.Sum256(fullHeader)
	headerHMAC := stream.HeaderHMAC(hmacSeed, fullHeader)

	var plain bytes.Buffer
	if h.Compressed {
		gw := stream.NewGzipWriter(&plain)
		if _, err := gw.Write(body); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
	} else {
		plain.Write(body)
	}

	bulk, err := reg.NewCipher(h.CipherID, cipherKey, h.EncryptionIV, false)
	if err != nil {
		return nil, err
	}
	var ciphertext bytes.Buffer
	cw := stream.NewCipherWriter(&ciphertext, bulk)
	if _, err := cw.Write(plain.Bytes()); err != nil {
		return nil, err
	}
	if err := cw.Close(); err != nil {
		return nil, err
	}

	var framed bytes.Buffer
	hw := stream.NewHMACBlockWriter(&framed, hmacSeed, 0)
	if _, err := hw.Write(ciphertext.Bytes()); err != nil {
		return nil, err
	}
	if err := hw.Close(); err != nil {
		return nil, err
	}

	out := append([]byte(nil), fullHeader...)
	out = append(out, headerSHA[:]...)
	out = append(out, headerHMAC...)
	out = append(out, framed.Bytes()...)
	return out, nil
}

func v4Fields(h *Header) []field {
	compression := make([]byte, 4)
	if h.Compressed {
		format.PutU32(compression, 0, CompressionGzip)
	}
	fields := []field{
		{typ: FieldCipherID, value: h.CipherID.Bytes()},
		{typ: FieldCompression, value: compression},
		{typ: FieldMasterSeed, value: h.MasterSeed},
		{typ: FieldEncryptionIV, value: h.EncryptionIV},
		{typ: FieldKDFParameters, value: format.EncodeVariantMap(h.KDFParameters)},
	}
	if h.PublicCustomData != nil {
		fields = append(fields, field{typ: FieldPublicCustomData, value: format.EncodeVariantMap(h.PublicCustomData)})
	}
	return fields
}

func defaultArgon2Params() *format.VariantMap {
	m := format.NewVariantMap()
	m.SetBytes(kdfUUIDKey, kdbxtypes.KDFArgon2id.Bytes())
	m.SetBytes("S", randomBytes(32))
	m.SetUint32("P", 4)
	m.SetUint64("M", 64*1024*1024)
	m.SetUint64("I", 10)
	m.SetUint32("V", 0x13)
	return m
}

package outer

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/kdbxkit/kdbx/internal/crypto/kdf"
	"github.com/kdbxkit/kdbx/internal/crypto/registry"
	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/internal/stream"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// LoadResult carries everything the inner codec needs after the outer
// pipeline has authenticated the key and produced plaintext.
type LoadResult struct {
	Header *Header
	Body   []byte // decompressed inner body: v3 = xml bytes directly
}

// LoadV3 runs the full v3 read pipeline: parse header, derive the key
// schedule, decrypt, verify stream-start bytes, un-frame the hash-block
// layer, and decompress.
func LoadV3(ctx context.Context, data []byte, opts kdbxtypes.OpenOptions, reg *registry.Registry) (*LoadResult, error) {
	version, isLegacy, magicLen, err := ParseMagic(data)
	if err != nil {
		return nil, err
	}
	_ = isLegacy
	fields, consumed, err := readFields(data[magicLen:], fieldLenSize(version))
	if err != nil {
		return nil, kdbxtypes.ErrFormatHeader.WithCause(err)
	}
	headerEnd := magicLen + consumed
	h := &Header{Version: version, Raw: append([]byte(nil), data[:headerEnd]...)}

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
	if v, ok := findField(fields, FieldTransformSeed); ok {
		h.TransformSeed = v
	}
	if v, ok := findField(fields, FieldTransformRounds); ok && len(v) == 8 {
		h.TransformRounds = format.ReadU64(v, 0)
	}
	if v, ok := findField(fields, FieldEncryptionIV); ok {
		h.EncryptionIV = v
	}
	if v, ok := findField(fields, FieldInnerRandomStreamKey); ok {
		h.InnerStreamKey = v
	}
	if v, ok := findField(fields, FieldStreamStartBytes); ok {
		h.StreamStartBytes = v
	}
	if v, ok := findField(fields, FieldInnerRandomStreamID); ok && len(v) == 4 {
		h.InnerStreamID = format.ReadU32(v, 0)
	}

	kdfImpl := &kdf.AESKDF{Seed: h.TransformSeed, Rounds: h.TransformRounds, NoParallel: opts.NoParallelKDF}
	cipherKey, _, err := deriveFinalKey(ctx, opts.Key, h.MasterSeed, kdfImpl)
	if err != nil {
		return nil, err
	}

	bulk, err := reg.NewCipher(h.CipherID, cipherKey, h.EncryptionIV, true)
	if err != nil {
		return nil, err
	}
	plain := stream.NewCipherReader(bytes.NewReader(data[headerEnd:]), bulk)

	gotStart := make([]byte, 32)
	if _, err := io.ReadFull(plain, gotStart); err != nil {
		return nil, kdbxtypes.ErrKeyInvalid.WithCause(err)
	}
	if !bytes.Equal(gotStart, h.StreamStartBytes) {
		return nil, kdbxtypes.ErrKeyInvalid
	}

	unframed := stream.NewHashBlockReader(plain)
	var bodyReader io.Reader = unframed
	if h.Compressed {
		gz, err := stream.NewGzipReader(unframed)
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

// SaveV3 runs the full v3 write pipeline: randomize seeds (unless the
// caller pre-populated them), compress, frame, encrypt, and emit the
// header followed by the body envelope.
func SaveV3(ctx context.Context, h *Header, body []byte, opts kdbxtypes.OpenOptions, reg *registry.Registry) ([]byte, error) {
	if len(h.MasterSeed) == 0 {
		h.MasterSeed = randomBytes(32)
	}
	if len(h.TransformSeed) == 0 {
		h.TransformSeed = randomBytes(32)
	}
	if len(h.StreamStartBytes) == 0 {
		h.StreamStartBytes = randomBytes(32)
	}
	if len(h.EncryptionIV) == 0 {
		h.EncryptionIV = randomBytes(16)
	}
	if h.TransformRounds == 0 {
		h.TransformRounds = 100000
	}

	kdfImpl := &kdf.AESKDF{Seed: h.TransformSeed, Rounds: h.TransformRounds, NoParallel: opts.NoParallelKDF}
	cipherKey, _, err := deriveFinalKey(ctx, opts.Key, h.MasterSeed, kdfImpl)
	if err != nil {
		return nil, err
	}

	fields := v3Fields(h)
	headerBytes := writeFields(fields, fieldLenSize(h.Version))
	out := append(WriteMagic(h.Version), headerBytes...)

	var plain bytes.Buffer
	plain.Write(h.StreamStartBytes)

	var framed bytes.Buffer
	hw := stream.NewHashBlockWriter(&framed, 0)
	if h.Compressed {
		gw := stream.NewGzipWriter(hw)
		if _, err := gw.Write(body); err != nil {
			return nil, err
		}
		if err := gw.Close(); err != nil {
			return nil, err
		}
	} else {
		if _, err := hw.Write(body); err != nil {
			return nil, err
		}
	}
	if err := hw.Close(); err != nil {
		return nil, err
	}
	plain.Write(framed.Bytes())

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

	out = append(out, ciphertext.Bytes()...)
	return out, nil
}

func v3Fields(h *Header) []field {
	compression := make([]byte, 4)
	if h.Compressed {
		format.PutU32(compression, 0, CompressionGzip)
	}
	rounds := make([]byte, 8)
	format.PutU64(rounds, 0, h.TransformRounds)
	streamID := make([]byte, 4)
	format.PutU32(streamID, 0, h.InnerStreamID)

	return []field{
		{typ: FieldCipherID, value: h.CipherID.Bytes()},
		{typ: FieldCompression, value: compression},
		{typ: FieldMasterSeed, value: h.MasterSeed},
		{typ: FieldTransformSeed, value: h.TransformSeed},
		{typ: FieldTransformRounds, value: rounds},
		{typ: FieldEncryptionIV, value: h.EncryptionIV},
		{typ: FieldInnerRandomStreamKey, value: h.InnerStreamKey},
		{typ: FieldStreamStartBytes, value: h.StreamStartBytes},
		{typ: FieldInnerRandomStreamID, value: streamID},
	}
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

package stream

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"io"
	"math"

	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// DefaultHMACBlockSize matches kdbxtypes.DefaultHMACBlockSize; duplicated
// here as an internal constant so this package has no dependency on the
// options type.
const DefaultHMACBlockSize = 1 << 20

// HeaderBlockIndex is the reserved block index (u64 max) whose derived
// key authenticates the outer header itself, per spec §4.8.
const HeaderBlockIndex uint64 = math.MaxUint64

// HMACKeySeed is H = SHA-512(master_seed || raw_key || 0x01), the input
// to the per-block HMAC key derivation.
func HMACKeySeed(masterSeed, rawKey []byte) []byte {
	h := sha512.New()
	h.Write(masterSeed)
	h.Write(rawKey)
	h.Write([]byte{0x01})
	return h.Sum(nil)
}

// BlockKey derives the HMAC-SHA-256 key for block index i (or
// HeaderBlockIndex) from the seed H.
func BlockKey(seed []byte, index uint64) []byte {
	buf := make([]byte, 8+len(seed))
	format.PutU64(buf, 0, index)
	copy(buf[8:], seed)
	sum := sha512.Sum512(buf)
	return sum[:]
}

// HeaderHMAC computes the HMAC-SHA-256 over headerBytes using the
// reserved header block key, for verifying/producing the 32 bytes that
// follow the header's SHA-256 in a v4 file.
func HeaderHMAC(seed, headerBytes []byte) []byte {
	key := BlockKey(seed, HeaderBlockIndex)
	mac := hmac.New(sha256.New, key)
	mac.Write(headerBytes)
	return mac.Sum(nil)
}

func blockMAC(key []byte, index uint64, block []byte) []byte {
	mac := hmac.New(sha256.New, key)
	idxBuf := make([]byte, 8)
	format.PutU64(idxBuf, 0, index)
	mac.Write(idxBuf)
	sizeBuf := make([]byte, 4)
	format.PutU32(sizeBuf, 0, uint32(len(block)))
	mac.Write(sizeBuf)
	mac.Write(block)
	return mac.Sum(nil)
}

// hmacBlockReader un-frames the v4 HMAC-block format: repeated
// {32-byte HMAC, u32le size, block bytes}, terminated by size=0 with a
// valid HMAC over the empty block. A mismatch on any block fails the
// read; a wrong key is already caught before the first block by the
// header HMAC check in the v4 loader.
type hmacBlockReader struct {
	src     io.Reader
	seed    []byte
	index   uint64
	pending []byte
	done    bool
}

// NewHMACBlockReader returns a reader over the ciphertext carried inside
// v4 HMAC-block framing. seed is HMACKeySeed's output.
func NewHMACBlockReader(src io.Reader, seed []byte) io.Reader {
	return &hmacBlockReader{src: src, seed: seed}
}

func (r *hmacBlockReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		mac := make([]byte, 32)
		if _, err := readFull(r.src, mac); err != nil {
			if err == io.EOF {
				return 0, kdbxtypes.ErrIntegrityHMAC.WithCause(io.ErrUnexpectedEOF)
			}
			return 0, err
		}
		sizeBuf := make([]byte, 4)
		if _, err := readFull(r.src, sizeBuf); err != nil {
			return 0, kdbxtypes.ErrIntegrityHMAC.WithCause(err)
		}
		size := format.ReadU32(sizeBuf, 0)
		block := make([]byte, size)
		if size > 0 {
			if _, err := readFull(r.src, block); err != nil {
				return 0, kdbxtypes.ErrIntegrityHMAC.WithCause(err)
			}
		}

		key := BlockKey(r.seed, r.index)
		want := blockMAC(key, r.index, block)
		if !hmac.Equal(want, mac) {
			return 0, kdbxtypes.ErrIntegrityHMAC
		}
		r.index++

		if size == 0 {
			r.done = true
			return 0, io.EOF
		}
		r.pending = block
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// hmacBlockWriter frames ciphertext into v4 HMAC blocks of blockSize
// bytes.
type hmacBlockWriter struct {
	dst       io.Writer
	seed      []byte
	blockSize int
	index     uint64
	buf       []byte
}

// NewHMACBlockWriter returns a WriteCloser that frames written bytes into
// v4 HMAC blocks of blockSize (DefaultHMACBlockSize if <= 0).
func NewHMACBlockWriter(dst io.Writer, seed []byte, blockSize int) io.WriteCloser {
	if blockSize <= 0 {
		blockSize = DefaultHMACBlockSize
	}
	return &hmacBlockWriter{dst: dst, seed: seed, blockSize: blockSize}
}

func (w *hmacBlockWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for len(w.buf) >= w.blockSize {
		if err := w.emit(w.buf[:w.blockSize]); err != nil {
			return 0, err
		}
		w.buf = w.buf[w.blockSize:]
	}
	return len(p), nil
}

func (w *hmacBlockWriter) Close() error {
	if len(w.buf) > 0 {
		if err := w.emit(w.buf); err != nil {
			return err
		}
		w.buf = nil
	}
	return w.emit(nil)
}

func (w *hmacBlockWriter) emit(block []byte) error {
	key := BlockKey(w.seed, w.index)
	mac := blockMAC(key, w.index, block)
	w.index++

	if _, err := w.dst.Write(mac); err != nil {
		return err
	}
	sizeBuf := make([]byte, 4)
	format.PutU32(sizeBuf, 0, uint32(len(block)))
	if _, err := w.dst.Write(sizeBuf); err != nil {
		return err
	}
	if len(block) > 0 {
		if _, err := w.dst.Write(block); err != nil {
			return err
		}
	}
	return nil
}

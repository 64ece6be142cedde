package stream

import (
	"bytes"
	"crypto/sha256"
	"io"

	"github.com/kdbxkit/kdbx/internal/format"
	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// DefaultHashBlockSize is used by HashBlockWriter when the caller doesn't
// pick a size.
const DefaultHashBlockSize = 1 << 20

// hashBlockReader un-frames the v3 hash-block format: repeated
// {u32le index, 32-byte SHA-256 of block, u32le size, block bytes},
// terminated by size=0 with an all-zero hash. Every block's hash is
// verified as it's read; a mismatch is fatal.
type hashBlockReader struct {
	src       io.Reader
	nextIndex uint32
	pending   []byte
	done      bool
}

// NewHashBlockReader returns a reader over the plaintext carried inside
// v3 hash-block framing.
func NewHashBlockReader(src io.Reader) io.Reader {
	return &hashBlockReader{src: src}
}

func (r *hashBlockReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		hdr := make([]byte, 4+32+4)
		if _, err := readFull(r.src, hdr); err != nil {
			if err == io.EOF {
				return 0, kdbxtypes.ErrIntegrityHash.WithCause(io.ErrUnexpectedEOF)
			}
			return 0, err
		}
		index := format.ReadU32(hdr, 0)
		hash := hdr[4:36]
		size := format.ReadU32(hdr, 36)
		if index != r.nextIndex {
			return 0, kdbxtypes.ErrIntegrityHash
		}
		r.nextIndex++

		if size == 0 {
			if !bytes.Equal(hash, make([]byte, 32)) {
				return 0, kdbxtypes.ErrIntegrityHash
			}
			r.done = true
			return 0, io.EOF
		}

		block := make([]byte, size)
		if _, err := readFull(r.src, block); err != nil {
			return 0, kdbxtypes.ErrIntegrityHash.WithCause(err)
		}
		sum := sha256.Sum256(block)
		if !bytes.Equal(sum[:], hash) {
			return 0, kdbxtypes.ErrIntegrityHash
		}
		r.pending = block
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// hashBlockWriter frames plaintext into v3 hash blocks of blockSize
// bytes, flushing a final short block (if any) plus the terminator on
// Close.
type hashBlockWriter struct {
	dst       io.Writer
	blockSize int
	index     uint32
	buf       []byte
}

// NewHashBlockWriter returns a WriteCloser that frames written bytes into
// v3 hash blocks of blockSize (DefaultHashBlockSize if <= 0).
func NewHashBlockWriter(dst io.Writer, blockSize int) io.WriteCloser {
	if blockSize <= 0 {
		blockSize = DefaultHashBlockSize
	}
	return &hashBlockWriter{dst: dst, blockSize: blockSize}
}

func (w *hashBlockWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for len(w.buf) >= w.blockSize {
		if err := w.emit(w.buf[:w.blockSize]); err != nil {
			return 0, err
		}
		w.buf = w.buf[w.blockSize:]
	}
	return len(p), nil
}

func (w *hashBlockWriter) Close() error {
	if len(w.buf) > 0 {
		if err := w.emit(w.buf); err != nil {
			return err
		}
		w.buf = nil
	}
	return w.emit(nil)
}

func (w *hashBlockWriter) emit(block []byte) error {
	hdr := make([]byte, 4+32+4)
	format.PutU32(hdr, 0, w.index)
	if len(block) == 0 {
		// terminator: 32 zero bytes already present in hdr, size 0
	} else {
		sum := sha256.Sum256(block)
		copy(hdr[4:36], sum[:])
	}
	format.PutU32(hdr, 36, uint32(len(block)))
	w.index++
	if _, err := w.dst.Write(hdr); err != nil {
		return err
	}
	if len(block) > 0 {
		if _, err := w.dst.Write(block); err != nil {
			return err
		}
	}
	return nil
}

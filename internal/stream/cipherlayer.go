package stream

import (
	"io"

	"github.com/kdbxkit/kdbx/internal/crypto/cipher"
)

// cipherReader decrypts bytes from an underlying reader on demand. It
// reads in modest chunks rather than all at once so large databases don't
// require buffering the whole ciphertext before any plaintext is
// available.
type cipherReader struct {
	src     io.Reader
	c       cipher.BulkCipher
	pending []byte
	done    bool
}

const cipherReadChunk = 64 * 1024

// NewCipherReader returns a reader that decrypts src through c, calling
// c.Finish once src is exhausted to flush/validate the final block.
func NewCipherReader(src io.Reader, c cipher.BulkCipher) io.Reader {
	return &cipherReader{src: src, c: c}
}

func (r *cipherReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		chunk := make([]byte, cipherReadChunk)
		n, err := r.src.Read(chunk)
		if n > 0 {
			out, decErr := r.c.Decrypt(chunk[:n])
			if decErr != nil {
				return 0, decErr
			}
			r.pending = out
		}
		if err == io.EOF {
			tail, finErr := r.c.Finish()
			if finErr != nil {
				return 0, finErr
			}
			r.pending = append(r.pending, tail...)
			r.done = true
			if len(r.pending) == 0 {
				return 0, io.EOF
			}
		} else if err != nil {
			return 0, err
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// cipherWriter encrypts bytes through c before forwarding to an
// underlying writer; Close flushes the final (possibly padded) block.
type cipherWriter struct {
	dst io.Writer
	c   cipher.BulkCipher
}

// NewCipherWriter returns a WriteCloser that encrypts through c and
// writes ciphertext to dst. Close must be called exactly once to flush
// the final block.
func NewCipherWriter(dst io.Writer, c cipher.BulkCipher) io.WriteCloser {
	return &cipherWriter{dst: dst, c: c}
}

func (w *cipherWriter) Write(p []byte) (int, error) {
	out, err := w.c.Encrypt(p)
	if err != nil {
		return 0, err
	}
	if len(out) > 0 {
		if _, err := w.dst.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (w *cipherWriter) Close() error {
	tail, err := w.c.Finish()
	if err != nil {
		return err
	}
	if len(tail) > 0 {
		if _, err := w.dst.Write(tail); err != nil {
			return err
		}
	}
	return nil
}

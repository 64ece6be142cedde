// Package stream implements the composable byte-stream layers between
// the outer codec's ciphertext and the inner codec's XML body: cipher,
// hash-block (v3) / HMAC-block (v4) framing, and optional gzip. Each
// layer is a plain io.Reader or io.WriteCloser so they compose the way
// any Go stream does, by wrapping one in the next.
package stream

import "io"

// readFull is a small wrapper over io.ReadFull that treats io.EOF with
// zero bytes read as a clean end-of-stream signal to callers that need
// to distinguish "nothing left" from "a partial record," while still
// surfacing io.ErrUnexpectedEOF for a short read.
func readFull(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF && n == 0 {
		return 0, io.EOF
	}
	return n, err
}

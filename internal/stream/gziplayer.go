package stream

import (
	"compress/gzip"
	"io"

	"github.com/kdbxkit/kdbx/pkg/kdbxtypes"
)

// NewGzipReader wraps src with gzip decompression, translating a
// malformed-stream error into the spec's decompress error kind.
func NewGzipReader(src io.Reader) (io.Reader, error) {
	gr, err := gzip.NewReader(src)
	if err != nil {
		return nil, kdbxtypes.ErrDecompress.WithCause(err)
	}
	return &gzipReader{gr}, nil
}

type gzipReader struct {
	gr *gzip.Reader
}

func (r *gzipReader) Read(p []byte) (int, error) {
	n, err := r.gr.Read(p)
	if err != nil && err != io.EOF {
		return n, kdbxtypes.ErrDecompress.WithCause(err)
	}
	return n, err
}

// NewGzipWriter wraps dst with gzip compression; Close flushes the gzip
// trailer.
func NewGzipWriter(dst io.Writer) io.WriteCloser {
	return &gzipWriter{gzip.NewWriter(dst)}
}

type gzipWriter struct {
	gw *gzip.Writer
}

func (w *gzipWriter) Write(p []byte) (int, error) {
	n, err := w.gw.Write(p)
	if err != nil {
		return n, kdbxtypes.ErrCompress.WithCause(err)
	}
	return n, nil
}

func (w *gzipWriter) Close() error {
	if err := w.gw.Close(); err != nil {
		return kdbxtypes.ErrCompress.WithCause(err)
	}
	return nil
}

// Package objfile implements the zlib envelope wrapped around a loose
// object's inflated framing, the on-disk format of objects/<xx>/<38-hex>.
package objfile

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Deflate compresses inflated at the given zlib level (0-9; use
// zlib.DefaultCompression for the package default).
func Deflate(level int, inflated []byte) ([]byte, error) {
	var buf bytes.Buffer

	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("objfile: %w", err)
	}

	if _, err := w.Write(inflated); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("objfile: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("objfile: %w", err)
	}

	return buf.Bytes(), nil
}

// Inflate reverses Deflate. A malformed zlib stream is reported as a plain
// error; callers that need the MalformedCompression taxonomy entry wrap it.
func Inflate(deflated []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(deflated))
	if err != nil {
		return nil, fmt.Errorf("objfile: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("objfile: %w", err)
	}

	return out, nil
}

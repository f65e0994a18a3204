package plumbing

import (
	"crypto/sha1" //nolint:gosec // git object identity is pinned to SHA1 by spec.
	"fmt"

	"github.com/gitodb/gitodb/plumbing/format/objfile"
)

// ComputeHash returns Digest(SerializeInflated(o)), the object's content
// address (spec.md §3.2 invariant 1).
func ComputeHash(o Object) Hash {
	sum := sha1.Sum(SerializeInflated(o)) //nolint:gosec
	return Hash(sum)
}

// DefaultLevel is the zlib compression level used when a caller does not
// specify one explicitly.
const DefaultLevel = 6

// SerializeDeflated deflates the inflated framing of o at the given zlib
// level, producing exactly the bytes a loose object file holds.
func SerializeDeflated(o Object, level int) ([]byte, error) {
	return objfile.Deflate(level, SerializeInflated(o))
}

// ParseDeflated inflates b and parses the result as an Object. A zlib
// failure is reported as ErrMalformedCompression.
func ParseDeflated(b []byte) (Object, error) {
	inflated, err := objfile.Inflate(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCompression, err)
	}

	return ParseInflated(inflated)
}

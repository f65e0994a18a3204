// Package plumbing implements the core value types shared by the rest of
// the module: object hashes, object kinds, and the Blob/Tree/Commit/Tag
// value types together with their canonical framing and codec.
package plumbing

import (
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

// Size is the length in bytes of a full Hash. The digest is a parameter in
// principle, but the canonical framing in this module assumes a 20-byte
// SHA1-shaped hash throughout.
const Size = 20

// HexSize is the length of a Hash in its lowercase-hex form.
const HexSize = Size * 2

// ErrInvalidHash is returned when a hex string cannot be parsed as a Hash.
var ErrInvalidHash = errors.New("plumbing: invalid hash")

// Hash is a fixed-width 20-byte object identifier.
type Hash [Size]byte

// ZeroHash is the zero-valued Hash.
var ZeroHash Hash

// FromHex parses a full-length lowercase-hex string into a Hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	if len(s) != HexSize {
		return h, ErrInvalidHash
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return h, ErrInvalidHash
	}

	copy(h[:], b)
	return h, nil
}

// NewHash parses s into a Hash, returning the zero Hash on malformed input.
// Prefer FromHex when the error needs to be observed.
func NewHash(s string) Hash {
	h, _ := FromHex(s)
	return h
}

// String returns the lowercase-hex representation of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Compare returns -1, 0 or 1 as h is less than, equal to, or greater than o.
func (h Hash) Compare(o Hash) int {
	for i := range h {
		if h[i] != o[i] {
			if h[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// HashesSort sorts a slice of Hash in increasing order.
func HashesSort(a []Hash) {
	sort.Slice(a, func(i, j int) bool { return a[i].Compare(a[j]) < 0 })
}

// ShortHash is a hex prefix shorter than HexSize, used to name an object
// ambiguously until disambiguated against the store.
type ShortHash string

// IsShort reports whether s is a valid (non-empty, all-hex, shorter than
// full length) short hash.
func (s ShortHash) IsShort() bool {
	if len(s) == 0 || len(s) >= HexSize {
		return false
	}
	return isHex(string(s))
}

// Full reports whether s is exactly HexSize hex characters, i.e. not
// actually short.
func (s ShortHash) Full() bool {
	return len(s) == HexSize && isHex(string(s))
}

func isHex(s string) bool {
	s = strings.ToLower(s)
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// Package refs implements the reference layer of spec.md §4.G-H: loose
// and packed-refs name-to-hash mapping, with symbolic-reference chasing.
package refs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gitodb/gitodb/plumbing"
)

// HeadName is the special reference name for the working tree's current
// head.
const HeadName = "HEAD"

// Reference is a slash-separated name rooted at "refs/..." or the special
// name "HEAD".
type Reference string

// String returns the raw reference name.
func (r Reference) String() string { return string(r) }

// IsHead reports whether r names HEAD.
func (r Reference) IsHead() bool { return string(r) == HeadName }

// ErrMalformedReference is returned when a HEAD/ref file's contents
// cannot be parsed, or when a symbolic-ref chase exceeds its depth bound.
var ErrMalformedReference = errors.New("refs: malformed reference")

// maxSymbolicDepth bounds HEAD/ref chase length (spec.md §9: "a bounded
// chase depth (e.g. 5) is sufficient" to detect cycles).
const maxSymbolicDepth = 5

// HeadContents is the parsed contents of a HEAD or loose ref file: either
// a direct Hash or a symbolic pointer at another Reference.
type HeadContents struct {
	Hash       plumbing.Hash
	Symbolic   Reference
	IsSymbolic bool
}

// Direct builds a direct HeadContents pointing at h.
func Direct(h plumbing.Hash) HeadContents {
	return HeadContents{Hash: h}
}

// Symbolic builds a symbolic HeadContents pointing at r.
func Symbolic(r Reference) HeadContents {
	return HeadContents{Symbolic: r, IsSymbolic: true}
}

const symbolicPrefix = "ref: "

// ParseHeadContents parses the one-line contents of a HEAD/ref file.
func ParseHeadContents(b []byte) (HeadContents, error) {
	s := strings.TrimSpace(string(b))

	if strings.HasPrefix(s, symbolicPrefix) {
		return Symbolic(Reference(strings.TrimSpace(strings.TrimPrefix(s, symbolicPrefix)))), nil
	}

	h, err := plumbing.FromHex(s)
	if err != nil {
		return HeadContents{}, fmt.Errorf("%w: %v", ErrMalformedReference, err)
	}
	return Direct(h), nil
}

// Encode renders the one-line file contents for hc.
func (hc HeadContents) Encode() []byte {
	if hc.IsSymbolic {
		return []byte(symbolicPrefix + hc.Symbolic.String() + "\n")
	}
	return []byte(hc.Hash.String() + "\n")
}

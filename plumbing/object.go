package plumbing

import (
	"bytes"
	"errors"
)

// ObjectKind is one of the four Git object kinds.
type ObjectKind int8

const (
	// InvalidKind represents an unrecognized object kind.
	InvalidKind ObjectKind = iota
	// BlobKind is a blob object.
	BlobKind
	// TreeKind is a tree object.
	TreeKind
	// CommitKind is a commit object.
	CommitKind
	// TagKind is a tag object.
	TagKind
)

// String returns the canonical lowercase name used in object framing.
func (k ObjectKind) String() string {
	switch k {
	case BlobKind:
		return "blob"
	case TreeKind:
		return "tree"
	case CommitKind:
		return "commit"
	case TagKind:
		return "tag"
	default:
		return "invalid"
	}
}

// Bytes returns the byte form of the kind name, as used in object headers.
func (k ObjectKind) Bytes() []byte {
	return []byte(k.String())
}

// ParseObjectKind maps a header kind name back to an ObjectKind.
func ParseObjectKind(s string) (ObjectKind, error) {
	switch s {
	case "blob":
		return BlobKind, nil
	case "tree":
		return TreeKind, nil
	case "commit":
		return CommitKind, nil
	case "tag":
		return TagKind, nil
	default:
		return InvalidKind, ErrMalformedHeader
	}
}

var (
	// ErrObjectNotFound is returned when a hash is not present in a store.
	ErrObjectNotFound = errors.New("plumbing: object not found")
	// ErrAmbiguous is returned when a short hash matches more than one object.
	ErrAmbiguous = errors.New("plumbing: ambiguous short hash")
	// ErrMalformedHeader is returned when the "<kind> <size>\x00" header of
	// an inflated object cannot be parsed.
	ErrMalformedHeader = errors.New("plumbing: malformed object header")
	// ErrSizeMismatch is returned when the declared header size does not
	// match the length of the body that follows it.
	ErrSizeMismatch = errors.New("plumbing: declared size does not match body length")
	// ErrMalformedBody is returned when a kind-specific body fails to parse.
	ErrMalformedBody = errors.New("plumbing: malformed object body")
	// ErrMalformedCompression is returned when the deflated envelope of a
	// loose object cannot be inflated.
	ErrMalformedCompression = errors.New("plumbing: malformed compressed object")
	// ErrSchemaViolation is returned when an object reached during
	// checkout has the wrong kind: a commit hash that is not a Commit, a
	// commit's tree that is not a Tree, or a tree entry whose mode
	// disagrees with the kind of object its hash resolves to (a Dir entry
	// pointing at a non-Tree, or vice versa).
	ErrSchemaViolation = errors.New("plumbing: tree entry kind does not match its mode")
)

// Object is the tagged union over {Blob, Tree, Commit, Tag}. It is
// immutable once constructed: callers that need to change content build a
// new value.
type Object interface {
	// Kind returns the object's kind.
	Kind() ObjectKind
	// Hash returns the object's content-addressed hash. It is computed
	// on demand from the canonical serialization rather than cached on
	// construction, so an Object built by hand is always self-consistent.
	Hash() Hash
	// encodeBody writes the kind-specific canonical body (the part of the
	// framing after "<kind> <size>\x00") to buf.
	encodeBody(buf *bytes.Buffer)
}

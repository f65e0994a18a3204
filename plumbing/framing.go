package plumbing

import (
	"bytes"
	"fmt"
	"strconv"
)

// header renders the "<kind> <size>\x00" framing prefix.
func header(k ObjectKind, size int) []byte {
	var buf bytes.Buffer
	buf.Write(k.Bytes())
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(size))
	buf.WriteByte(0)
	return buf.Bytes()
}

// SerializeInflated produces the canonical "<kind> <size>\x00<body>"
// framing of o. This is the byte sequence that is both hashed and, once
// deflated, written to a loose object file (spec.md §3.2 invariant 1).
func SerializeInflated(o Object) []byte {
	var body bytes.Buffer
	o.encodeBody(&body)

	var out bytes.Buffer
	out.Write(header(o.Kind(), body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

// ParseInflated parses the canonical inflated framing back into an Object.
func ParseInflated(b []byte) (Object, error) {
	sp := bytes.IndexByte(b, ' ')
	if sp < 0 {
		return nil, ErrMalformedHeader
	}

	nul := bytes.IndexByte(b, 0)
	if nul < 0 || nul < sp {
		return nil, ErrMalformedHeader
	}

	kind, err := ParseObjectKind(string(b[:sp]))
	if err != nil {
		return nil, ErrMalformedHeader
	}

	size, err := strconv.Atoi(string(b[sp+1 : nul]))
	if err != nil {
		return nil, fmt.Errorf("%w: non-integer size", ErrMalformedHeader)
	}

	body := b[nul+1:]
	if len(body) != size {
		return nil, ErrSizeMismatch
	}

	switch kind {
	case BlobKind:
		return decodeBlob(body)
	case TreeKind:
		return decodeTree(body)
	case CommitKind:
		return decodeCommit(body)
	case TagKind:
		return decodeTag(body)
	default:
		return nil, ErrMalformedHeader
	}
}

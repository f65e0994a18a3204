package plumbing

import "bytes"

// Blob is an opaque byte sequence, Git's representation of a single file's
// contents.
type Blob struct {
	Content []byte
}

// Kind implements Object.
func (b *Blob) Kind() ObjectKind { return BlobKind }

// Hash implements Object.
func (b *Blob) Hash() Hash { return ComputeHash(b) }

func (b *Blob) encodeBody(buf *bytes.Buffer) {
	buf.Write(b.Content)
}

func decodeBlob(body []byte) (*Blob, error) {
	// A Blob owns a private copy: body is a slice into a shared inflate
	// buffer that the caller may reuse.
	content := make([]byte, len(body))
	copy(content, body)
	return &Blob{Content: content}, nil
}

package plumbing

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/gitodb/gitodb/plumbing/filemode"
)

// TreeEntry is one line of a Tree: a name, a permission mode, and the hash
// of the child object (a Blob, another Tree, or a commit for a submodule).
type TreeEntry struct {
	Name string
	Mode filemode.FileMode
	Hash Hash
}

// Tree is an ordered sequence of TreeEntry, Git's representation of a
// directory. Order is significant: it is the on-disk order used both for
// hashing and for checkout traversal (spec.md §4.I).
type Tree struct {
	Entries []TreeEntry
}

// Kind implements Object.
func (t *Tree) Kind() ObjectKind { return TreeKind }

// Hash implements Object.
func (t *Tree) Hash() Hash { return ComputeHash(t) }

func (t *Tree) encodeBody(buf *bytes.Buffer) {
	for _, e := range t.Entries {
		buf.WriteString(e.Mode.TreeString())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.Hash[:])
	}
}

func decodeTree(body []byte) (*Tree, error) {
	t := &Tree{}
	if len(body) == 0 {
		return t, nil
	}

	r := bufio.NewReader(bytes.NewReader(body))
	for {
		modeStr, err := r.ReadString(' ')
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading tree mode: %v", ErrMalformedBody, err)
		}

		mode, err := filemode.New(modeStr[:len(modeStr)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}

		name, err := r.ReadString(0)
		if err != nil {
			return nil, fmt.Errorf("%w: reading tree name: %v", ErrMalformedBody, err)
		}
		name = name[:len(name)-1]

		var hash Hash
		if _, err := io.ReadFull(r, hash[:]); err != nil {
			return nil, fmt.Errorf("%w: reading tree hash: %v", ErrMalformedBody, err)
		}

		t.Entries = append(t.Entries, TreeEntry{Name: name, Mode: mode, Hash: hash})
	}

	return t, nil
}

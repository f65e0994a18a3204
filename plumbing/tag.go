package plumbing

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Tag is an annotated tag: a named, signed-or-not pointer at another
// object (usually a Commit).
type Tag struct {
	Target     Hash
	TargetKind ObjectKind
	Name       string
	Tagger     Signature
	Message    string
}

// Kind implements Object.
func (t *Tag) Kind() ObjectKind { return TagKind }

// Hash implements Object.
func (t *Tag) Hash() Hash { return ComputeHash(t) }

func (t *Tag) encodeBody(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "object %s\n", t.Target)
	fmt.Fprintf(buf, "type %s\n", t.TargetKind)
	fmt.Fprintf(buf, "tag %s\n", t.Name)
	buf.WriteString("tagger ")
	t.Tagger.Encode(buf)
	buf.WriteString("\n\n")
	buf.WriteString(t.Message)
}

func decodeTag(body []byte) (*Tag, error) {
	t := &Tag{}
	r := bufio.NewReader(bytes.NewReader(body))

	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}

		trimmed := strings.TrimSuffix(line, "\n")
		if trimmed == "" {
			break
		}

		parts := strings.SplitN(trimmed, " ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: malformed tag header %q", ErrMalformedBody, trimmed)
		}

		switch parts[0] {
		case "object":
			h, perr := FromHex(parts[1])
			if perr != nil {
				return nil, fmt.Errorf("%w: bad target hash: %v", ErrMalformedBody, perr)
			}
			t.Target = h
		case "type":
			k, perr := ParseObjectKind(parts[1])
			if perr != nil {
				return nil, fmt.Errorf("%w: bad target type: %v", ErrMalformedBody, perr)
			}
			t.TargetKind = k
		case "tag":
			t.Name = parts[1]
		case "tagger":
			t.Tagger.Decode([]byte(parts[1]))
		}

		if err == io.EOF {
			break
		}
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	t.Message = string(rest)

	return t, nil
}

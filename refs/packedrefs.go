package refs

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/gitodb/gitodb/plumbing"
)

// LineKind classifies one line of a packed-refs file.
type LineKind int8

const (
	// NewlineLine is a blank line.
	NewlineLine LineKind = iota
	// CommentLine is a "#"-prefixed line.
	CommentLine
	// EntryLine is a "<hex-hash> SP <ref-name>" line.
	EntryLine
)

// Line is one parsed line of a packed-refs file.
type Line struct {
	Kind    LineKind
	Text    string // set for CommentLine (text after '#')
	Hash    plumbing.Hash
	Ref     Reference
}

// Parse parses the packed-refs text format: blank lines, "#"-prefixed
// comments, and "<hex> SP <name>" entries, preserving order. Unparseable
// lines are silently ignored (spec.md §4.G).
func Parse(b []byte) []Line {
	var lines []Line

	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		raw := scanner.Text()

		switch {
		case strings.TrimSpace(raw) == "":
			lines = append(lines, Line{Kind: NewlineLine})
		case strings.HasPrefix(raw, "#"):
			lines = append(lines, Line{Kind: CommentLine, Text: strings.TrimPrefix(raw, "#")})
		default:
			fields := strings.SplitN(raw, " ", 2)
			if len(fields) != 2 {
				continue
			}
			h, err := plumbing.FromHex(fields[0])
			if err != nil {
				continue
			}
			lines = append(lines, Line{Kind: EntryLine, Hash: h, Ref: Reference(fields[1])})
		}
	}

	return lines
}

// Find returns the hash of the first entry line naming ref, if any.
func Find(lines []Line, ref Reference) (plumbing.Hash, bool) {
	for _, l := range lines {
		if l.Kind == EntryLine && l.Ref == ref {
			return l.Hash, true
		}
	}
	return plumbing.ZeroHash, false
}

// References returns the set of reference names named by entry lines.
func References(lines []Line) map[Reference]struct{} {
	out := make(map[Reference]struct{})
	for _, l := range lines {
		if l.Kind == EntryLine {
			out[l.Ref] = struct{}{}
		}
	}
	return out
}

// Serialize renders lines back to packed-refs text.
func Serialize(lines []Line) []byte {
	var buf bytes.Buffer
	for _, l := range lines {
		switch l.Kind {
		case NewlineLine:
			buf.WriteByte('\n')
		case CommentLine:
			fmt.Fprintf(&buf, "#%s\n", l.Text)
		case EntryLine:
			fmt.Fprintf(&buf, "%s %s\n", l.Hash, l.Ref)
		}
	}
	return buf.Bytes()
}

// Package filemode defines the permission modes a Tree entry can carry.
package filemode

import (
	"fmt"
	"strconv"
)

// FileMode is the set of Unix-style permission bits Git stores on a Tree
// entry. Only a handful of values are legal in a well-formed tree, but the
// type permits any octal value so callers parsing untrusted input can
// detect the illegal ones themselves.
type FileMode uint32

const (
	// Empty is the zero mode, never valid on disk but sometimes seen in
	// diff output ("git diff-tree").
	Empty FileMode = 0
	// Dir is a tree (directory) entry.
	Dir FileMode = 0o40000
	// Regular is an ordinary, non-executable file.
	Regular FileMode = 0o100644
	// Deprecated is the historical 0100664 mode, accepted on read.
	Deprecated FileMode = 0o100664
	// Executable is an ordinary, executable file.
	Executable FileMode = 0o100755
	// Symlink is a symbolic link whose target is the blob's content.
	Symlink FileMode = 0o120000
	// Submodule is a gitlink, pointing at a commit in another repository.
	Submodule FileMode = 0o160000
)

// New parses the ASCII-octal representation s uses in tree entries and
// "git diff-tree"-style output.
func New(s string) (FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("filemode: invalid mode %q: %w", s, err)
	}
	return FileMode(n), nil
}

// String returns the zero-padded six-digit octal form used for
// human-readable output (e.g. "git diff-tree"-style debug dumps).
func (m FileMode) String() string {
	return fmt.Sprintf("%06o", uint32(m))
}

// TreeString returns the unpadded octal form Git actually writes into tree
// object entries ("40000", not "040000"; "100644", not "0100644").
func (m FileMode) TreeString() string {
	return strconv.FormatUint(uint64(m), 8)
}

// IsDir reports whether m names a subtree.
func (m FileMode) IsDir() bool { return m == Dir }

// IsRegular reports whether m names an ordinary file (executable or not).
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated || m == Executable
}

// Package storage implements the Store façade of spec.md §4.F: the
// unified read/write surface over loose and packed objects, with
// short-hash resolution and caching.
package storage

import (
	"crypto/sha1" //nolint:gosec // object identity is pinned to SHA1 by spec.
	"fmt"

	"github.com/gitodb/gitodb/internal/filecache"
	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/format/objfile"
	"github.com/gitodb/gitodb/storage/dotgit"
)

// Loose is the single-object-per-file tier of the store (spec.md §4.D):
// objects/<xx>/<38-hex>, write-once, resolved directly for full hashes
// and by directory/filename scan for short hashes.
type Loose struct {
	dir   *dotgit.DotGit
	files *filecache.FileCache
	level int
}

// NewLoose returns a Loose store rooted at dir, reading through files and
// writing at the given zlib level.
func NewLoose(dir *dotgit.DotGit, files *filecache.FileCache, level int) *Loose {
	return &Loose{dir: dir, files: files, level: level}
}

// Exists reports whether a full-length hash names a loose object file.
func (l *Loose) Exists(h plumbing.Hash) bool {
	return l.dir.Exists(l.dir.ObjectPath(h.String()))
}

// Read returns the decoded object named by a (possibly short) hash, or
// (nil, nil) if absent. ErrAmbiguous is returned if a short hash matches
// more than one object.
func (l *Loose) Read(h plumbing.ShortHash) (plumbing.Object, error) {
	b, err := l.ReadInflated(h)
	if err != nil || b == nil {
		return nil, err
	}

	o, err := plumbing.ParseInflated(b)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ReadInflated is Read, stopping short of decoding the object.
func (l *Loose) ReadInflated(h plumbing.ShortHash) ([]byte, error) {
	path, err := l.resolvePath(h)
	if err != nil || path == "" {
		return nil, err
	}

	handle, err := l.files.Read(path)
	if err != nil {
		return nil, fmt.Errorf("loose: read %s: %w", path, err)
	}

	inflated, err := objfile.Inflate(handle.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", plumbing.ErrMalformedCompression, err)
	}
	return inflated, nil
}

// resolvePath returns the loose-object file path for h, "" if absent, or
// ErrAmbiguous if a short hash has more than one match.
func (l *Loose) resolvePath(h plumbing.ShortHash) (string, error) {
	if h.Full() {
		full, err := plumbing.FromHex(string(h))
		if err != nil {
			return "", fmt.Errorf("loose: %w", err)
		}
		path := l.dir.ObjectPath(full.String())
		if !l.dir.Exists(path) {
			return "", nil
		}
		return path, nil
	}

	return l.resolveShort(string(h))
}

// resolveShort implements spec.md §4.D's directory/filename scan: filter
// fan-out directories whose name matches the hash's first two characters
// (one directory, if the prefix is ≤ 2 chars), then filter files within
// by the remaining suffix.
func (l *Loose) resolveShort(prefix string) (string, error) {
	dirLen := len(prefix)
	if dirLen > 2 {
		dirLen = 2
	}

	dirs, err := l.dir.ListObjectDirs()
	if err != nil {
		return "", fmt.Errorf("loose: list object dirs: %w", err)
	}

	var matchDirs []string
	for _, d := range dirs {
		if d[:dirLen] == prefix[:dirLen] {
			matchDirs = append(matchDirs, d)
		}
	}

	if len(matchDirs) == 0 {
		return "", nil
	}
	if len(prefix) <= 2 && len(matchDirs) > 1 {
		return "", plumbing.ErrAmbiguous
	}

	var matches []string
	for _, d := range matchDirs {
		files, err := l.dir.ListObjectFiles(d)
		if err != nil {
			return "", fmt.Errorf("loose: list object files: %w", err)
		}

		suffix := ""
		if len(prefix) > 2 {
			suffix = prefix[2:]
		}

		for _, f := range files {
			if len(f) >= len(suffix) && f[:len(suffix)] == suffix {
				matches = append(matches, d+"/"+f)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		parts := matches[0]
		return l.dir.ObjectPath(parts[:2] + parts[3:]), nil
	default:
		return "", plumbing.ErrAmbiguous
	}
}

// Write deflates and stores o, returning its hash. Writing an object
// whose file already exists is a no-op (spec.md §3.3: loose files are
// write-once).
func (l *Loose) Write(o plumbing.Object) (plumbing.Hash, error) {
	h := o.Hash()
	path := l.dir.ObjectPath(h.String())
	if l.dir.Exists(path) {
		return h, nil
	}

	deflated, err := plumbing.SerializeDeflated(o, l.level)
	if err != nil {
		return h, fmt.Errorf("loose: deflate: %w", err)
	}

	if err := l.dir.WriteFileAtomic(path, deflated); err != nil {
		return h, fmt.Errorf("loose: write %s: %w", path, err)
	}

	return h, nil
}

// WriteInflated stores an already-framed inflated buffer, hashing it
// directly rather than via an Object value.
func (l *Loose) WriteInflated(inflated []byte) (plumbing.Hash, error) {
	h := plumbing.Hash(sha1.Sum(inflated)) //nolint:gosec
	path := l.dir.ObjectPath(h.String())
	if l.dir.Exists(path) {
		return h, nil
	}

	deflated, err := objfile.Deflate(l.level, inflated)
	if err != nil {
		return h, fmt.Errorf("loose: deflate: %w", err)
	}

	if err := l.dir.WriteFileAtomic(path, deflated); err != nil {
		return h, fmt.Errorf("loose: write %s: %w", path, err)
	}

	return h, nil
}

// List enumerates every loose object hash under objects/, excluding
// info/ and pack/.
func (l *Loose) List() ([]plumbing.Hash, error) {
	dirs, err := l.dir.ListObjectDirs()
	if err != nil {
		return nil, fmt.Errorf("loose: list object dirs: %w", err)
	}

	var hashes []plumbing.Hash
	for _, d := range dirs {
		files, err := l.dir.ListObjectFiles(d)
		if err != nil {
			return nil, fmt.Errorf("loose: list object files: %w", err)
		}
		for _, f := range files {
			h, err := plumbing.FromHex(d + f)
			if err != nil {
				continue
			}
			hashes = append(hashes, h)
		}
	}
	return hashes, nil
}

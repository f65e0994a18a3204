// Package dotgit implements the on-disk path conventions of a .git
// directory: loose object paths, pack paths, refs, and the scratch
// directory used for atomic writes. Grounded on
// storage/filesystem/internal/dotgit in the teacher.
package dotgit

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
)

const (
	objectsPath = "objects"
	packPath    = "pack"
	refsPath    = "refs"
	packedRefs  = "packed-refs"
	headPath    = "HEAD"
	tmpPath     = "tmp"

	packExt = ".pack"
	idxExt  = ".idx"
)

// DotGit wraps a billy.Filesystem rooted at a .git directory.
type DotGit struct {
	fs billy.Filesystem
}

// New returns a DotGit rooted at fs.
func New(fs billy.Filesystem) *DotGit {
	return &DotGit{fs: fs}
}

// Fs returns the underlying filesystem, for collaborators (Loose, Packed,
// References, Checkout) that need direct access.
func (d *DotGit) Fs() billy.Filesystem { return d.fs }

// ObjectPath returns the loose-object path for a full 40-hex hash.
func (d *DotGit) ObjectPath(hex string) string {
	return d.fs.Join(objectsPath, hex[0:2], hex[2:])
}

// ObjectsDir returns the root objects/ directory.
func (d *DotGit) ObjectsDir() string {
	return objectsPath
}

// PackDir returns the objects/pack/ directory.
func (d *DotGit) PackDir() string {
	return d.fs.Join(objectsPath, packPath)
}

// PackPath returns the .pack file path for a pack named by its hex SHA.
func (d *DotGit) PackPath(packHex string) string {
	return d.fs.Join(objectsPath, packPath, fmt.Sprintf("pack-%s%s", packHex, packExt))
}

// IdxPath returns the .idx file path for a pack named by its hex SHA.
func (d *DotGit) IdxPath(packHex string) string {
	return d.fs.Join(objectsPath, packPath, fmt.Sprintf("pack-%s%s", packHex, idxExt))
}

// TempDir returns the scratch directory atomic writes rename through.
func (d *DotGit) TempDir() string {
	return tmpPath
}

// PackedRefsPath returns the packed-refs file path.
func (d *DotGit) PackedRefsPath() string {
	return packedRefs
}

// HeadPath returns the HEAD file path.
func (d *DotGit) HeadPath() string {
	return headPath
}

// RefPath returns the loose ref file path for a raw reference name (e.g.
// "refs/heads/main" or "HEAD").
func (d *DotGit) RefPath(name string) string {
	return name
}

// RefsDir returns the refs/ directory root.
func (d *DotGit) RefsDir() string {
	return refsPath
}

// Exists reports whether path exists.
func (d *DotGit) Exists(path string) bool {
	_, err := d.fs.Stat(path)
	return err == nil
}

// EnsureTempDir makes sure the scratch directory exists.
func (d *DotGit) EnsureTempDir() error {
	return d.fs.MkdirAll(tmpPath, 0o755)
}

// WriteFileAtomic writes b to path by creating a temp file under the tmp/
// scratch directory and renaming it into place (spec.md §3.3: references and loose objects are
// written via an atomic temp-file rename).
func (d *DotGit) WriteFileAtomic(path string, b []byte) error {
	if err := d.EnsureTempDir(); err != nil {
		return err
	}

	f, err := d.fs.TempFile(tmpPath, "tmp_")
	if err != nil {
		return fmt.Errorf("dotgit: create temp file: %w", err)
	}
	tmpName := f.Name()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("dotgit: write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("dotgit: close temp file: %w", err)
	}

	if err := d.fs.MkdirAll(parentDir(d.fs, path), 0o755); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("dotgit: mkdir parent: %w", err)
	}

	if err := d.fs.Rename(tmpName, path); err != nil {
		_ = d.fs.Remove(tmpName)
		return fmt.Errorf("dotgit: rename into place: %w", err)
	}

	return nil
}

func parentDir(fs billy.Filesystem, path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

// ListObjectDirs lists the two-hex-char fan-out directories under objects/,
// excluding "info" and "pack".
func (d *DotGit) ListObjectDirs() ([]string, error) {
	infos, err := d.fs.ReadDir(objectsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []string
	for _, fi := range infos {
		if !fi.IsDir() {
			continue
		}
		if fi.Name() == "info" || fi.Name() == "pack" {
			continue
		}
		if len(fi.Name()) == 2 && isHex(fi.Name()) {
			dirs = append(dirs, fi.Name())
		}
	}
	return dirs, nil
}

// ListObjectFiles lists the files within a given two-char fan-out
// directory under objects/.
func (d *DotGit) ListObjectFiles(dir string) ([]string, error) {
	infos, err := d.fs.ReadDir(d.fs.Join(objectsPath, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, fi := range infos {
		if !fi.IsDir() {
			files = append(files, fi.Name())
		}
	}
	return files, nil
}

// ListPacks lists the pack SHA strings (the "<hex>" in "pack-<hex>.idx")
// found under objects/pack/.
func (d *DotGit) ListPacks() ([]string, error) {
	infos, err := d.fs.ReadDir(d.PackDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var packs []string
	for _, fi := range infos {
		name := fi.Name()
		if !strings.HasSuffix(name, idxExt) || !strings.HasPrefix(name, "pack-") {
			continue
		}
		packs = append(packs, strings.TrimSuffix(strings.TrimPrefix(name, "pack-"), idxExt))
	}
	return packs, nil
}

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

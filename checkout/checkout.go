package checkout

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"

	"github.com/gitodb/gitodb/internal/trace"
	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/filemode"
	"github.com/gitodb/gitodb/storage"
	"github.com/gitodb/gitodb/storage/dotgit"
)

// maxCreateFileRetries bounds create_file's retry loop (spec.md §4.I,
// §5: "retries the write up to 10 times").
const maxCreateFileRetries = 10

// Checkout materializes commits from store into the working tree rooted
// at fs, tracking state in the index file under dir.
type Checkout struct {
	store *storage.Store
	fs    billy.Filesystem
	dir   *dotgit.DotGit
}

// New returns a Checkout writing into fs (the working-tree root, not the
// .git directory), reading objects from store, and keeping the index file
// under dir.
func New(store *storage.Store, fs billy.Filesystem, dir *dotgit.DotGit) *Checkout {
	return &Checkout{store: store, fs: fs, dir: dir}
}

const indexPath = "index"

// CreateFile writes blob's content to file, retrying transient failures
// up to maxCreateFileRetries times (unlinking the target before each
// retry). mode == filemode.Symlink creates a symlink instead of a regular
// file; mode == filemode.Executable creates the file as 0o755 and, when fs
// implements billy.Change, chmods the result to 0o755 after writing
// (spec.md §4.I).
func (c *Checkout) CreateFile(file string, mode filemode.FileMode, blob *plumbing.Blob) error {
	if mode == filemode.Symlink {
		return c.createSymlink(file, blob)
	}

	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}

	var lastErr error
	for attempt := 0; attempt < maxCreateFileRetries; attempt++ {
		if attempt > 0 {
			_ = c.fs.Remove(file)
			trace.Checkout.Printf("retrying create_file %s (attempt %d): %v", file, attempt+1, lastErr)
		}

		if err := c.writeFileOnce(file, blob.Content, perm); err != nil {
			lastErr = err
			continue
		}

		if mode == filemode.Executable {
			if ch, ok := c.fs.(billy.Change); ok {
				if err := ch.Chmod(file, perm); err != nil {
					lastErr = err
					continue
				}
			}
		}

		return nil
	}

	return fmt.Errorf("checkout: create_file %s: %w", file, lastErr)
}

func (c *Checkout) writeFileOnce(file string, content []byte, perm os.FileMode) error {
	if dir := path.Dir(file); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := c.fs.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(content)
	return err
}

// createSymlink creates a symbolic link at file whose target is blob's
// content, interpreted as a path. Falls back to a regular file with a
// logged warning if the underlying filesystem cannot create symlinks
// (spec.md §9).
func (c *Checkout) createSymlink(file string, blob *plumbing.Blob) error {
	if dir := path.Dir(file); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	_ = c.fs.Remove(file)

	if err := c.fs.Symlink(string(blob.Content), file); err != nil {
		trace.Checkout.Printf("symlink unsupported for %s, writing regular file: %v", file, err)
		return c.writeFileOnce(file, blob.Content, 0o644)
	}
	return nil
}

// EntryOfFile decides whether file needs (re)writing: it is created if
// absent, if the index has no entry for it, if its hash differs from
// blobHash, or if its on-disk StatInfo differs from what the index
// recorded. Otherwise it is left untouched (spec.md §4.I, P10). Any
// filesystem or codec error is swallowed and reported as (nil, false) so
// that a single corrupt path does not abort the whole checkout.
func (c *Checkout) EntryOfFile(idx *Index, file string, mode filemode.FileMode, blobHash plumbing.Hash, blob *plumbing.Blob) (*IndexEntry, bool) {
	fi, statErr := c.fs.Stat(file)

	needsWrite := statErr != nil
	if statErr == nil {
		if existing, ok := idx.Find(file); !ok || existing.Hash != blobHash || !existing.StatInfo.Equal(statInfoOf(fi)) {
			needsWrite = true
		}
	}

	if needsWrite {
		if err := c.CreateFile(file, mode, blob); err != nil {
			trace.Checkout.Printf("entry_of_file: skipping %s: %v", file, err)
			return nil, false
		}
	}

	fi, err := c.fs.Stat(file)
	if err != nil {
		trace.Checkout.Printf("entry_of_file: stat %s after write: %v", file, err)
		return nil, false
	}

	name := stripRootPrefix(file)
	return &IndexEntry{
		StatInfo: statInfoOf(fi),
		Hash:     blobHash,
		Stage:    0,
		Name:     name,
	}, true
}

func statInfoOf(fi os.FileInfo) StatInfo {
	return StatInfo{Size: fi.Size(), ModTime: fi.ModTime(), Mode: uint32(fi.Mode())}
}

// stripRootPrefix removes a leading "root/" or "./" the way spec.md's
// entry_of_file trims the checkout root before naming an IndexEntry; file
// paths handed to Checkout are already root-relative, so this is a
// defensive no-op in the common case.
func stripRootPrefix(file string) string {
	for _, prefix := range []string{"root/", "./"} {
		if len(file) > len(prefix) && file[:len(prefix)] == prefix {
			return file[len(prefix):]
		}
	}
	return file
}

// WriteIndex serializes maybeIndex (if non-nil) directly to the index
// file. If maybeIndex is nil, it reads the current index (or starts from
// empty), walks head's tree via LoadFilesystem/IterBlobs to produce fresh
// entries, and serializes the result (spec.md §4.I).
func (c *Checkout) WriteIndex(maybeIndex *Index, head plumbing.Hash) error {
	if maybeIndex != nil {
		return c.writeIndexFile(maybeIndex)
	}

	idx, err := c.readIndexOrEmpty()
	if err != nil {
		return err
	}

	total, tree, err := LoadFilesystem(c.store, head)
	if err != nil {
		return err
	}

	err = IterBlobs(tree, total, func(i, total int, pathComponents []string, mode filemode.FileMode, hash plumbing.Hash, blob *plumbing.Blob) error {
		file := path.Join(pathComponents...)
		entry, ok := c.EntryOfFile(idx, file, mode, hash, blob)
		if ok {
			idx.Upsert(*entry)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return c.writeIndexFile(idx)
}

func (c *Checkout) readIndexOrEmpty() (*Index, error) {
	if !c.dir.Exists(indexPath) {
		return NewIndex(), nil
	}

	f, err := c.dir.Fs().Open(indexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewIndex(), nil
		}
		return nil, fmt.Errorf("checkout: open index: %w", err)
	}
	defer f.Close()

	b, err := readAll(f)
	if err != nil {
		return nil, fmt.Errorf("checkout: read index: %w", err)
	}

	return Parse(b)
}

func (c *Checkout) writeIndexFile(idx *Index) error {
	if err := c.dir.WriteFileAtomic(indexPath, Serialize(idx)); err != nil {
		return fmt.Errorf("checkout: write index: %w", err)
	}
	return nil
}

func readAll(f billy.File) ([]byte, error) {
	var buf []byte
	tmp := make([]byte, 32*1024)
	for {
		n, err := f.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if err != nil {
			break
		}
	}
	return buf, nil
}

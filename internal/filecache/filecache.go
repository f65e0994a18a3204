// Package filecache implements the weak-reference file-bytes cache
// described in spec.md §4.C: it hands out strong handles to file
// contents, and once every caller has dropped its handle the cache entry
// becomes reclaimable. This shortcuts re-reads while a caller still holds
// the bytes, without pinning large blobs (packfiles, big loose objects)
// in memory on the cache's own account.
package filecache

import (
	"fmt"
	"io"
	"runtime"
	"sync"
	"weak"

	"github.com/go-git/go-billy/v5"

	"github.com/gitodb/gitodb/internal/trace"
)

// bytesBox is the pointee a weak.Pointer tracks: weak.Make requires a
// pointer to a value whose lifetime callers actually control, and a bare
// []byte header does not have a stable address of its own.
type bytesBox struct {
	b []byte
}

// Handle is the strong reference Read hands out. Holding a Handle keeps
// its bytesBox reachable, which in turn keeps the weak pointer cache
// entry alive; a []byte sliced out of it does not, since a slice header
// does not retain the *bytesBox it was read from.
type Handle struct {
	box *bytesBox
}

// Bytes returns the file contents the handle was issued for.
func (h Handle) Bytes() []byte { return h.box.b }

// FileCache maps an absolute path to its file contents. It is safe for
// concurrent use.
type FileCache struct {
	fs billy.Filesystem

	mu      sync.Mutex
	entries map[string]weak.Pointer[bytesBox]
}

// New returns a FileCache backed by fs.
func New(fs billy.Filesystem) *FileCache {
	return &FileCache{
		fs:      fs,
		entries: make(map[string]weak.Pointer[bytesBox]),
	}
}

// Read returns a Handle on the contents of path, from cache if a live
// handle still exists, or by reading through fs otherwise. The returned
// Handle, not the []byte inside it, is what keeps the cache entry alive
// for as long as the caller holds onto it.
func (c *FileCache) Read(path string) (Handle, error) {
	c.mu.Lock()
	if wp, ok := c.entries[path]; ok {
		if box := wp.Value(); box != nil {
			c.mu.Unlock()
			return Handle{box: box}, nil
		}
		delete(c.entries, path)
	}
	c.mu.Unlock()

	f, err := c.fs.Open(path)
	if err != nil {
		return Handle{}, fmt.Errorf("filecache: open %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return Handle{}, fmt.Errorf("filecache: read %s: %w", path, err)
	}

	box := &bytesBox{b: b}

	c.mu.Lock()
	c.entries[path] = weak.Make(box)
	c.mu.Unlock()

	runtime.AddCleanup(box, c.cleanup, path)

	return Handle{box: box}, nil
}

// cleanup clears the weak slot once its bytesBox has been collected. The
// slot may already have been overwritten by a newer Read for the same
// path, in which case the live entry is left in place and nothing is
// logged.
func (c *FileCache) cleanup(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if wp, ok := c.entries[path]; ok && wp.Value() == nil {
		delete(c.entries, path)
		trace.Store.Printf("filecache: reclaimed %s", path)
	}
}

// Clear drops all weak entries.
func (c *FileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]weak.Pointer[bytesBox])
}

// Len reports the number of weak entries still tracked, live or not yet
// cleaned up. Exposed for tests that need to observe reclamation.
func (c *FileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

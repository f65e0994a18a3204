package filecache_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/gitodb/gitodb/internal/filecache"
)

func writeFile(t *testing.T, fs billy.Filesystem, path string, content []byte) {
	t.Helper()
	f, err := fs.Create(path)
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestReadReturnsFileContents(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "a", []byte("hello"))

	c := filecache.New(fs)
	h, err := c.Read("a")
	require.NoError(t, err)
	require.Equal(t, "hello", string(h.Bytes()))
}

func TestReadReturnsSameBytesWhileHandleLive(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "a", []byte("hello"))

	c := filecache.New(fs)
	first, err := c.Read("a")
	require.NoError(t, err)

	// Mutate the backing file; a still-live cache handle should keep
	// serving the bytes it already handed out.
	writeFile(t, fs, "a", []byte("changed"))

	second, err := c.Read("a")
	require.NoError(t, err)
	require.Equal(t, first.Bytes(), second.Bytes())
}

// TestReclaimsOnceHandleDropped proves the weak-cache mechanism is not a
// no-op: once the only strong handle goes out of scope and a GC runs, the
// entry is reclaimed and a subsequent Read observes the file's current
// contents rather than a stale cached copy.
func TestReclaimsOnceHandleDropped(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "a", []byte("hello"))

	c := filecache.New(fs)

	func() {
		h, err := c.Read("a")
		require.NoError(t, err)
		require.Equal(t, "hello", string(h.Bytes()))
		// h goes out of scope here; nothing else holds its bytesBox live.
	}()

	// runtime.AddCleanup's cleanup function runs on its own goroutine
	// some time after the object is collected, so poll briefly rather
	// than assume a single GC cycle is enough to observe it.
	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 0, c.Len(), "cache entry was not reclaimed after GC")

	writeFile(t, fs, "a", []byte("changed"))

	h, err := c.Read("a")
	require.NoError(t, err)
	require.Equal(t, "changed", string(h.Bytes()))
}

func TestClearDropsEntries(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "a", []byte("hello"))

	c := filecache.New(fs)
	_, err := c.Read("a")
	require.NoError(t, err)

	c.Clear()

	writeFile(t, fs, "a", []byte("changed"))
	h, err := c.Read("a")
	require.NoError(t, err)
	require.Equal(t, "changed", string(h.Bytes()))
}

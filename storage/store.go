package storage

import (
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/gitodb/gitodb/internal/filecache"
	"github.com/gitodb/gitodb/internal/trace"
	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/cache"
	"github.com/gitodb/gitodb/storage/dotgit"
)

// MinLevel and MaxLevel bound the valid zlib compression levels a Store
// may be configured with (spec.md §6).
const (
	MinLevel = 0
	MaxLevel = 9
	// DefaultLevel is used when Options.Level is left at its zero value.
	DefaultLevel = plumbing.DefaultLevel
)

// ErrInvalidLevel is returned by New when Options.Level is out of range.
var ErrInvalidLevel = fmt.Errorf("storage: compression level must be in [%d,%d]", MinLevel, MaxLevel)

// Options configures a Store.
type Options struct {
	// Level is the zlib compression level used for new loose objects and
	// inflated writes. Zero means DefaultLevel.
	Level int
	// Reader is the PackReader used to extract objects from packs.
	// Defaults to DefaultPackReader{}.
	Reader PackReader
}

// Store is the unified read/write façade over Loose and Packed described
// in spec.md §4.F: cache, then loose, then packed, on read; loose-first
// on write.
type Store struct {
	fs    billy.Filesystem
	dir   *dotgit.DotGit
	files *filecache.FileCache

	loose  *Loose
	packed *Packed
	cache  *cache.ValueCache

	level int
}

// New returns a Store rooted at fs (the .git directory, not the worktree
// root -- callers resolve the worktree/.git split before constructing
// one).
func New(fs billy.Filesystem, opts Options) (*Store, error) {
	level := opts.Level
	if level == 0 {
		level = DefaultLevel
	}
	if level < MinLevel || level > MaxLevel {
		return nil, ErrInvalidLevel
	}

	reader := opts.Reader
	if reader == nil {
		reader = DefaultPackReader{}
	}

	dir := dotgit.New(fs)
	files := filecache.New(fs)

	s := &Store{
		fs:     fs,
		dir:    dir,
		files:  files,
		loose:  NewLoose(dir, files, level),
		packed: NewPacked(dir, files, reader),
		cache:  cache.New(),
		level:  level,
	}
	return s, nil
}

// Read resolves h against the cache, then loose objects, then packs,
// inserting into the cache on a cold hit. A short h is resolved against
// loose objects only; the cache and packs are consulted for full-length
// hashes.
func (s *Store) Read(h plumbing.ShortHash) (plumbing.Object, error) {
	if h.Full() {
		full, err := plumbing.FromHex(string(h))
		if err != nil {
			return nil, err
		}
		if v, ok := s.cache.Find(full); ok {
			return v, nil
		}
	}

	o, err := s.loose.Read(h)
	if err != nil {
		return nil, err
	}

	if o == nil {
		full, err := s.resolveFull(h)
		if err != nil {
			return nil, err
		}
		if full != nil {
			o, err = s.packed.Read(*full, s.ReadInflated)
			if err != nil {
				return nil, err
			}
		}
	}

	if o != nil {
		s.cache.Insert(o.Hash(), o)
	}

	return o, nil
}

// resolveFull returns h as a full Hash for pack lookups when h is
// full-length, and nil for a short h (spec.md §9: short-hash resolution
// is not extended to packs).
func (s *Store) resolveFull(h plumbing.ShortHash) (*plumbing.Hash, error) {
	if h.Full() {
		full, err := plumbing.FromHex(string(h))
		if err != nil {
			return nil, err
		}
		return &full, nil
	}
	return nil, nil
}

// ReadInflated is Read, stopping short of decoding the object. It is also
// the RecurseFunc passed to Packed for ref-delta base resolution
// (spec.md §9).
func (s *Store) ReadInflated(h plumbing.Hash) ([]byte, error) {
	if b, ok := s.cache.FindInflated(h); ok {
		return b, nil
	}

	short := plumbing.ShortHash(h.String())
	b, err := s.loose.ReadInflated(short)
	if err != nil {
		return nil, err
	}

	if b == nil {
		b, err = s.packed.ReadInflated(h, s.ReadInflated)
		if err != nil {
			return nil, err
		}
	}

	if b != nil {
		s.cache.InsertInflated(h, b)
	}

	return b, nil
}

// ReadExn is Read, surfacing ErrObjectNotFound on a miss.
func (s *Store) ReadExn(h plumbing.ShortHash) (plumbing.Object, error) {
	o, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, plumbing.ErrObjectNotFound
	}
	return o, nil
}

// Mem reports whether h is present: cache, then loose, then packed for a
// full-length h; loose objects only for a short h.
func (s *Store) Mem(h plumbing.ShortHash) (bool, error) {
	if h.Full() {
		full, err := plumbing.FromHex(string(h))
		if err != nil {
			return false, err
		}
		if _, ok := s.cache.Find(full); ok {
			return true, nil
		}
		if s.loose.Exists(full) {
			return true, nil
		}
		ok, err := s.packed.Mem(full)
		return ok, err
	}

	o, err := s.loose.Read(h)
	if err != nil {
		return false, err
	}
	return o != nil, nil
}

// List returns the de-duplicated union of loose object hashes and every
// pack's key set (spec.md §4.F, P9).
func (s *Store) List() ([]plumbing.Hash, error) {
	loose, err := s.loose.List()
	if err != nil {
		return nil, err
	}

	seen := make(map[plumbing.Hash]struct{}, len(loose))
	out := make([]plumbing.Hash, 0, len(loose))
	for _, h := range loose {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}

	packs, err := s.packed.List()
	if err != nil {
		return nil, err
	}

	for _, pack := range packs {
		keys, err := s.packed.ReadKeys(pack)
		if err != nil {
			return nil, err
		}
		for h := range keys {
			if _, ok := seen[h]; !ok {
				seen[h] = struct{}{}
				out = append(out, h)
			}
		}
	}

	return out, nil
}

// Contents reads every object named by List.
func (s *Store) Contents() ([]plumbing.Object, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}

	out := make([]plumbing.Object, 0, len(hashes))
	for _, h := range hashes {
		o, err := s.ReadExn(plumbing.ShortHash(h.String()))
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// Write stores o as a loose object and caches it.
func (s *Store) Write(o plumbing.Object) (plumbing.Hash, error) {
	h, err := s.loose.Write(o)
	if err != nil {
		return h, err
	}
	s.cache.Insert(h, o)
	trace.Store.Printf("wrote loose object %s (%s)", h, o.Kind())
	return h, nil
}

// WriteInflated stores an already-framed inflated buffer and caches its
// bytes.
func (s *Store) WriteInflated(inflated []byte) (plumbing.Hash, error) {
	h, err := s.loose.WriteInflated(inflated)
	if err != nil {
		return h, err
	}
	s.cache.InsertInflated(h, inflated)
	return h, nil
}

// WritePack stores a raw pack and its index atomically, returning the
// pack's contained key set.
func (s *Store) WritePack(packHex string, packBytes, idxBytes []byte) (map[plumbing.Hash]struct{}, error) {
	if err := s.packed.WritePack(packHex, packBytes, idxBytes); err != nil {
		return nil, err
	}
	return s.packed.ReadKeys(packHex)
}

// Clear clears the FileCache and Packed's LRUs. The ValueCache has its
// own independent lifecycle (spec.md §4.F) and is left untouched.
func (s *Store) Clear() {
	s.files.Clear()
	s.packed.Clear()
}

// ValueCache returns the store's decoded/inflated object cache, for
// callers that want to prepopulate or directly inspect it (P5).
func (s *Store) ValueCache() *cache.ValueCache { return s.cache }

// DotGit returns the store's path-convention helper, for collaborators
// (References, Checkout) that share the same .git directory.
func (s *Store) DotGit() *dotgit.DotGit { return s.dir }

// Filesystem returns the billy.Filesystem the store is rooted at.
func (s *Store) Filesystem() billy.Filesystem { return s.fs }

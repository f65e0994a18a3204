package storage

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/gitodb/gitodb/internal/filecache"
	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/format/idxfile"
	"github.com/gitodb/gitodb/storage/dotgit"
)

// packIndexLRUSize is the capacity of Packed's parsed-index LRU.
const packIndexLRUSize = 8

// packKeysLRUSize is the capacity of Packed's key-set LRU, measured in
// number of distinct packs cached, not number of keys (spec.md §4.E).
const packKeysLRUSize = 128 * 1024

// PackReader is the external collaborator spec.md §1 names: it extracts
// a single object from a pack at a known offset, recursing through
// recurse to resolve ref-delta bases via the full store. Pack delta
// reconstruction itself is explicitly out of scope (spec.md's Non-goals);
// the shipped implementation here only handles non-delta (whole) objects
// and surfaces ErrDeltaUnsupported for ofs-delta/ref-delta entries.
type PackReader interface {
	Read(idx *idxfile.Index, recurse RecurseFunc, pack []byte, h plumbing.Hash) (plumbing.Object, error)
	ReadInflated(idx *idxfile.Index, recurse RecurseFunc, pack []byte, h plumbing.Hash) ([]byte, error)
}

// RecurseFunc resolves a ref-delta base hash through the full store (it is
// Store.ReadInflated bound to the owning store, per spec.md §9's
// recursive store/pack dependency note -- an explicit function parameter
// rather than a closure over the owning object).
type RecurseFunc func(h plumbing.Hash) ([]byte, error)

// Packed is the pack tier of the store (spec.md §4.E): enumeration and
// indexed random access to pack files via their paired index files, with
// an LRU over parsed indices.
type Packed struct {
	dir    *dotgit.DotGit
	files  *filecache.FileCache
	reader PackReader

	mu       sync.Mutex
	indexLRU *indexLRU
	keysLRU  *keysLRU
}

// NewPacked returns a Packed store rooted at dir, using reader to extract
// objects from pack payloads.
func NewPacked(dir *dotgit.DotGit, files *filecache.FileCache, reader PackReader) *Packed {
	return &Packed{
		dir:      dir,
		files:    files,
		reader:   reader,
		indexLRU: newIndexLRU(packIndexLRUSize),
		keysLRU:  newKeysLRU(packKeysLRUSize),
	}
}

// List enumerates the pack SHAs (hex) of every pack under objects/pack/.
func (p *Packed) List() ([]string, error) {
	return p.dir.ListPacks()
}

// ReadIndex returns the parsed PackIndex for pack, from the LRU if
// present.
func (p *Packed) ReadIndex(pack string) (*idxfile.Index, error) {
	p.mu.Lock()
	if idx, ok := p.indexLRU.get(pack); ok {
		p.mu.Unlock()
		return idx, nil
	}
	p.mu.Unlock()

	handle, err := p.files.Read(p.dir.IdxPath(pack))
	if err != nil {
		return nil, fmt.Errorf("packed: read idx for %s: %w", pack, err)
	}

	idx, err := idxfile.Parse(handle.Bytes())
	if err != nil {
		return nil, fmt.Errorf("packed: parse idx for %s: %w", pack, err)
	}

	p.mu.Lock()
	p.indexLRU.put(pack, idx)
	p.mu.Unlock()

	return idx, nil
}

// ReadKeys returns the set of hashes named by pack's index, from the LRU
// if present.
func (p *Packed) ReadKeys(pack string) (map[plumbing.Hash]struct{}, error) {
	p.mu.Lock()
	if keys, ok := p.keysLRU.get(pack); ok {
		p.mu.Unlock()
		return keys, nil
	}
	p.mu.Unlock()

	idx, err := p.ReadIndex(pack)
	if err != nil {
		return nil, err
	}

	keys := make(map[plumbing.Hash]struct{}, idx.Len())
	for _, h := range idx.Keys() {
		keys[h] = struct{}{}
	}

	p.mu.Lock()
	p.keysLRU.put(pack, keys)
	p.mu.Unlock()

	return keys, nil
}

// WritePack stores the raw pack bytes and its paired index, both
// idempotently (a no-op if the pack file already exists).
func (p *Packed) WritePack(pack string, packBytes, idxBytes []byte) error {
	packPath := p.dir.PackPath(pack)
	if !p.dir.Exists(packPath) {
		if err := p.dir.WriteFileAtomic(packPath, packBytes); err != nil {
			return fmt.Errorf("packed: write pack %s: %w", pack, err)
		}
	}

	idxPath := p.dir.IdxPath(pack)
	if !p.dir.Exists(idxPath) {
		if err := p.dir.WriteFileAtomic(idxPath, idxBytes); err != nil {
			return fmt.Errorf("packed: write idx %s: %w", pack, err)
		}
	}

	return nil
}

// MemInPack reports whether h is named by pack's index.
func (p *Packed) MemInPack(pack string, h plumbing.Hash) (bool, error) {
	idx, err := p.ReadIndex(pack)
	if err != nil {
		return false, err
	}
	return idx.Contains(h), nil
}

// ReadInPack reads h from pack if its index names an offset for it.
func (p *Packed) ReadInPack(pack string, h plumbing.Hash, recurse RecurseFunc) (plumbing.Object, error) {
	idx, err := p.ReadIndex(pack)
	if err != nil {
		return nil, err
	}

	if !idx.Contains(h) {
		return nil, nil
	}

	handle, err := p.files.Read(p.dir.PackPath(pack))
	if err != nil {
		return nil, fmt.Errorf("packed: read pack %s: %w", pack, err)
	}

	return p.reader.Read(idx, recurse, handle.Bytes(), h)
}

// ReadInPackInflated is ReadInPack, stopping short of decoding the object.
func (p *Packed) ReadInPackInflated(pack string, h plumbing.Hash, recurse RecurseFunc) ([]byte, error) {
	idx, err := p.ReadIndex(pack)
	if err != nil {
		return nil, err
	}

	if !idx.Contains(h) {
		return nil, nil
	}

	handle, err := p.files.Read(p.dir.PackPath(pack))
	if err != nil {
		return nil, fmt.Errorf("packed: read pack %s: %w", pack, err)
	}

	return p.reader.ReadInflated(idx, recurse, handle.Bytes(), h)
}

// Read folds over every pack, returning the first that yields an object
// for h. Short-hash resolution is not implemented for packs (spec.md §9:
// "treat the source as authoritative: short-hash in packs returns None").
func (p *Packed) Read(h plumbing.Hash, recurse RecurseFunc) (plumbing.Object, error) {
	packs, err := p.List()
	if err != nil {
		return nil, err
	}

	for _, pack := range packs {
		o, err := p.ReadInPack(pack, h, recurse)
		if err != nil {
			return nil, err
		}
		if o != nil {
			return o, nil
		}
	}
	return nil, nil
}

// ReadInflated is Read, stopping short of decoding the object.
func (p *Packed) ReadInflated(h plumbing.Hash, recurse RecurseFunc) ([]byte, error) {
	packs, err := p.List()
	if err != nil {
		return nil, err
	}

	for _, pack := range packs {
		b, err := p.ReadInPackInflated(pack, h, recurse)
		if err != nil {
			return nil, err
		}
		if b != nil {
			return b, nil
		}
	}
	return nil, nil
}

// Mem folds over every pack, returning true on the first hit.
func (p *Packed) Mem(h plumbing.Hash) (bool, error) {
	packs, err := p.List()
	if err != nil {
		return false, err
	}

	for _, pack := range packs {
		ok, err := p.MemInPack(pack, h)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Clear empties both LRUs.
func (p *Packed) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexLRU = newIndexLRU(packIndexLRUSize)
	p.keysLRU = newKeysLRU(packKeysLRUSize)
}

// indexLRU is a fixed-capacity LRU of parsed PackIndex values, keyed by
// pack SHA (hex string).
type indexLRU struct {
	maxSize int
	ll      *list.List
	items   map[string]*list.Element
}

type indexEntry struct {
	pack string
	idx  *idxfile.Index
}

func newIndexLRU(maxSize int) *indexLRU {
	return &indexLRU{maxSize: maxSize, ll: list.New(), items: make(map[string]*list.Element)}
}

func (c *indexLRU) get(pack string) (*idxfile.Index, bool) {
	e, ok := c.items[pack]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*indexEntry).idx, true
}

func (c *indexLRU) put(pack string, idx *idxfile.Index) {
	if e, ok := c.items[pack]; ok {
		c.ll.MoveToFront(e)
		e.Value.(*indexEntry).idx = idx
		return
	}

	e := c.ll.PushFront(&indexEntry{pack: pack, idx: idx})
	c.items[pack] = e

	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*indexEntry).pack)
	}
}

// keysLRU is a fixed-capacity LRU of key sets, keyed by pack SHA.
type keysLRU struct {
	maxSize int
	ll      *list.List
	items   map[string]*list.Element
}

type keysEntry struct {
	pack string
	keys map[plumbing.Hash]struct{}
}

func newKeysLRU(maxSize int) *keysLRU {
	return &keysLRU{maxSize: maxSize, ll: list.New(), items: make(map[string]*list.Element)}
}

func (c *keysLRU) get(pack string) (map[plumbing.Hash]struct{}, bool) {
	e, ok := c.items[pack]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*keysEntry).keys, true
}

func (c *keysLRU) put(pack string, keys map[plumbing.Hash]struct{}) {
	if e, ok := c.items[pack]; ok {
		c.ll.MoveToFront(e)
		e.Value.(*keysEntry).keys = keys
		return
	}

	e := c.ll.PushFront(&keysEntry{pack: pack, keys: keys})
	c.items[pack] = e

	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*keysEntry).pack)
	}
}

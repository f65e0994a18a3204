// Package cache implements the bounded LRUs used to avoid re-reading and
// re-decoding objects already seen by the store (spec.md §4.B).
package cache

import (
	"container/list"
	"sync"

	"github.com/gitodb/gitodb/plumbing"
)

// DefaultMaxSize is the default entry count for both the decoded-object
// and inflated-bytes LRUs.
const DefaultMaxSize = 512

// ValueCache is the two-LRU ValueCache described in spec.md §4.B: one LRU
// of decoded values keyed by hash, one of the objects' raw inflated bytes.
// Both default to 512 entries. A ValueCache is safe for concurrent use.
type ValueCache struct {
	mu       sync.Mutex
	decoded  *objectLRU
	inflated *bufferLRU
}

// New returns a ValueCache with both LRUs at DefaultMaxSize.
func New() *ValueCache {
	return NewSize(DefaultMaxSize, DefaultMaxSize)
}

// NewSize returns a ValueCache with explicit per-LRU capacities.
func NewSize(decodedSize, inflatedSize int) *ValueCache {
	return &ValueCache{
		decoded:  newObjectLRU(decodedSize),
		inflated: newBufferLRU(inflatedSize),
	}
}

// Find returns the cached decoded value for h, if present.
func (c *ValueCache) Find(h plumbing.Hash) (plumbing.Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decoded.get(h)
}

// FindInflated returns the cached raw inflated bytes for h, if present.
func (c *ValueCache) FindInflated(h plumbing.Hash) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflated.get(h)
}

// Insert stores the decoded value v under its own hash.
func (c *ValueCache) Insert(h plumbing.Hash, v plumbing.Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoded.put(h, v)
}

// InsertInflated stores raw inflated bytes under h.
func (c *ValueCache) InsertInflated(h plumbing.Hash, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflated.put(h, b)
}

// Clear empties both LRUs.
func (c *ValueCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoded.clear()
	c.inflated.clear()
}

// Resize changes both LRUs' capacities, discarding existing entries
// (spec.md §4.B: "Capacity change discards existing entries").
func (c *ValueCache) Resize(decodedSize, inflatedSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoded = newObjectLRU(decodedSize)
	c.inflated = newBufferLRU(inflatedSize)
}

// objectLRU is a fixed-capacity LRU of decoded objects, keyed by hash.
// Grounded on the teacher's plumbing/cache.ObjectLRU: a map plus a
// container/list for recency, rather than a third-party LRU package --
// no repo in the retrieval pack imports one, and go-git ships its own.
type objectLRU struct {
	maxSize int
	ll      *list.List
	items   map[plumbing.Hash]*list.Element
}

type objectEntry struct {
	hash  plumbing.Hash
	value plumbing.Object
}

func newObjectLRU(maxSize int) *objectLRU {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &objectLRU{
		maxSize: maxSize,
		ll:      list.New(),
		items:   make(map[plumbing.Hash]*list.Element),
	}
}

func (c *objectLRU) get(h plumbing.Hash) (plumbing.Object, bool) {
	e, ok := c.items[h]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*objectEntry).value, true
}

func (c *objectLRU) put(h plumbing.Hash, v plumbing.Object) {
	if e, ok := c.items[h]; ok {
		c.ll.MoveToFront(e)
		e.Value.(*objectEntry).value = v
		return
	}

	e := c.ll.PushFront(&objectEntry{hash: h, value: v})
	c.items[h] = e

	for c.ll.Len() > c.maxSize {
		c.evictOldest()
	}
}

func (c *objectLRU) evictOldest() {
	oldest := c.ll.Back()
	if oldest == nil {
		return
	}
	c.ll.Remove(oldest)
	delete(c.items, oldest.Value.(*objectEntry).hash)
}

func (c *objectLRU) clear() {
	c.ll = list.New()
	c.items = make(map[plumbing.Hash]*list.Element)
}

// bufferLRU is a fixed-capacity LRU of raw byte buffers, keyed by hash.
type bufferLRU struct {
	maxSize int
	ll      *list.List
	items   map[plumbing.Hash]*list.Element
}

type bufferEntry struct {
	hash  plumbing.Hash
	bytes []byte
}

func newBufferLRU(maxSize int) *bufferLRU {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &bufferLRU{
		maxSize: maxSize,
		ll:      list.New(),
		items:   make(map[plumbing.Hash]*list.Element),
	}
}

func (c *bufferLRU) get(h plumbing.Hash) ([]byte, bool) {
	e, ok := c.items[h]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*bufferEntry).bytes, true
}

func (c *bufferLRU) put(h plumbing.Hash, b []byte) {
	if e, ok := c.items[h]; ok {
		c.ll.MoveToFront(e)
		e.Value.(*bufferEntry).bytes = b
		return
	}

	e := c.ll.PushFront(&bufferEntry{hash: h, bytes: b})
	c.items[h] = e

	for c.ll.Len() > c.maxSize {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*bufferEntry).hash)
	}
}

func (c *bufferLRU) clear() {
	c.ll = list.New()
	c.items = make(map[plumbing.Hash]*list.Element)
}

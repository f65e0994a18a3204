// Package idxfile parses the pack ".idx" file: a sorted mapping from
// object hash to (offset, crc32) within its paired ".pack" file.
//
// This implements the real git pack-idx version 2 layout (magic, fanout
// table, sorted hash table, crc table, 32-bit offset table, optional
// 64-bit large-offset table), grounded on the shape of go-git's
// plumbing/format/idxfile encoder/readerat. The trailing pack and idx
// checksums are not read or verified.
package idxfile

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gitodb/gitodb/plumbing"
)

// magic is the version-2 idx file header, 0xff followed by "tOc".
var magic = [4]byte{0xff, 't', 'O', 'c'}

const version2 = 2

// ErrUnsupportedVersion is returned by Parse for anything other than a
// version-2 idx file (version 1, with no magic/version header, is not
// supported).
var ErrUnsupportedVersion = errors.New("idxfile: unsupported index version")

// ErrMalformed is returned when the byte layout does not match what the
// declared object count implies.
var ErrMalformed = errors.New("idxfile: malformed index")

// Entry is one object's location within a pack.
type Entry struct {
	Hash   plumbing.Hash
	Offset uint64
	CRC32  uint32
}

// Index is the parsed contents of a .idx file: an enumerable, randomly
// addressable map from Hash to (offset, crc).
type Index struct {
	entries []Entry
	byHash  map[plumbing.Hash]int
}

// Parse decodes a version-2 pack idx file.
func Parse(b []byte) (*Index, error) {
	if len(b) < 4+4+256*4 {
		return nil, fmt.Errorf("%w: truncated header", ErrMalformed)
	}

	if [4]byte{b[0], b[1], b[2], b[3]} != magic {
		return nil, fmt.Errorf("%w: missing v2 magic (v1 idx files are not supported)", ErrUnsupportedVersion)
	}

	version := binary.BigEndian.Uint32(b[4:8])
	if version != version2 {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
	}

	off := 8

	var fanout [256]uint32
	for i := range fanout {
		fanout[i] = binary.BigEndian.Uint32(b[off : off+4])
		off += 4
	}

	count := int(fanout[255])

	hashesEnd := off + count*plumbing.Size
	crcEnd := hashesEnd + count*4
	offsetsEnd := crcEnd + count*4
	if len(b) < offsetsEnd {
		return nil, fmt.Errorf("%w: truncated tables", ErrMalformed)
	}

	idx := &Index{
		entries: make([]Entry, count),
		byHash:  make(map[plumbing.Hash]int, count),
	}

	for i := 0; i < count; i++ {
		var h plumbing.Hash
		copy(h[:], b[off+i*plumbing.Size:off+(i+1)*plumbing.Size])
		idx.entries[i].Hash = h
		idx.byHash[h] = i
	}

	crcOff := hashesEnd
	for i := 0; i < count; i++ {
		idx.entries[i].CRC32 = binary.BigEndian.Uint32(b[crcOff+i*4 : crcOff+i*4+4])
	}

	largeOff := offsetsEnd
	smallOff := crcEnd
	for i := 0; i < count; i++ {
		raw := binary.BigEndian.Uint32(b[smallOff+i*4 : smallOff+i*4+4])
		if raw&0x80000000 == 0 {
			idx.entries[i].Offset = uint64(raw)
			continue
		}

		largeIdx := int(raw &^ 0x80000000)
		start := largeOff + largeIdx*8
		if len(b) < start+8 {
			return nil, fmt.Errorf("%w: truncated large-offset table", ErrMalformed)
		}
		idx.entries[i].Offset = binary.BigEndian.Uint64(b[start : start+8])
	}

	return idx, nil
}

// FindOffset returns the (offset, crc) of h within the pack, if present.
func (idx *Index) FindOffset(h plumbing.Hash) (offset uint64, crc uint32, ok bool) {
	i, ok := idx.byHash[h]
	if !ok {
		return 0, 0, false
	}
	return idx.entries[i].Offset, idx.entries[i].CRC32, true
}

// Contains reports whether h is present in the index.
func (idx *Index) Contains(h plumbing.Hash) bool {
	_, ok := idx.byHash[h]
	return ok
}

// Keys returns every hash named by the index, in the index's own
// (hash-sorted) order.
func (idx *Index) Keys() []plumbing.Hash {
	keys := make([]plumbing.Hash, len(idx.entries))
	for i, e := range idx.entries {
		keys[i] = e.Hash
	}
	return keys
}

// Len returns the number of objects the index names.
func (idx *Index) Len() int {
	return len(idx.entries)
}

package checkout

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gitodb/gitodb/plumbing"
)

// indexSignature is the magic four bytes at the head of an index file.
// Distinct from git's own "DIRC" so the two formats can never be confused
// for one another.
var indexSignature = [4]byte{'G', 'O', 'I', 'X'}

const indexVersion uint32 = 1

// StatInfo is the subset of on-disk file metadata an IndexEntry compares
// against to decide whether a working-tree file has changed since the last
// checkout (spec.md §4.I, P10).
type StatInfo struct {
	Size    int64
	ModTime time.Time
	Mode    uint32
}

// Equal reports whether s and o describe the same file state.
func (s StatInfo) Equal(o StatInfo) bool {
	return s.Size == o.Size && s.ModTime.Equal(o.ModTime) && s.Mode == o.Mode
}

// IndexEntry is one record of the working-tree index: the last-known hash
// and stat state for a checked-out path.
type IndexEntry struct {
	StatInfo StatInfo
	Hash     plumbing.Hash
	Stage    uint8
	Name     string
}

// Index is the full set of tracked entries.
type Index struct {
	Entries []IndexEntry
}

// NewIndex returns an empty Index.
func NewIndex() *Index { return &Index{} }

// Find returns the entry named name, if present.
func (idx *Index) Find(name string) (IndexEntry, bool) {
	for _, e := range idx.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// Upsert replaces the entry named e.Name, or appends it if absent.
func (idx *Index) Upsert(e IndexEntry) {
	for i, existing := range idx.Entries {
		if existing.Name == e.Name {
			idx.Entries[i] = e
			return
		}
	}
	idx.Entries = append(idx.Entries, e)
}

// Serialize encodes idx to its binary on-disk form: a small fixed header
// followed by one record per entry, made of fixed-width stat, hash and
// stage fields and a length-prefixed name.
func Serialize(idx *Index) []byte {
	var buf bytes.Buffer

	buf.Write(indexSignature[:])
	writeU32(&buf, indexVersion)
	writeU32(&buf, uint32(len(idx.Entries)))

	for _, e := range idx.Entries {
		writeU64(&buf, uint64(e.StatInfo.Size))
		writeU64(&buf, uint64(e.StatInfo.ModTime.UnixNano()))
		writeU32(&buf, e.StatInfo.Mode)
		buf.Write(e.Hash[:])
		buf.WriteByte(e.Stage)
		writeU32(&buf, uint32(len(e.Name)))
		buf.WriteString(e.Name)
	}

	return buf.Bytes()
}

// Parse decodes an Index from its binary on-disk form, as produced by
// Serialize.
func Parse(b []byte) (*Index, error) {
	r := bufio.NewReader(bytes.NewReader(b))

	var sig [4]byte
	if _, err := readFull(r, sig[:]); err != nil {
		return nil, fmt.Errorf("checkout: read index signature: %w", err)
	}
	if sig != indexSignature {
		return nil, fmt.Errorf("checkout: bad index signature %q", sig)
	}

	version, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("checkout: read index version: %w", err)
	}
	if version != indexVersion {
		return nil, fmt.Errorf("checkout: unsupported index version %d", version)
	}

	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("checkout: read index entry count: %w", err)
	}

	idx := &Index{Entries: make([]IndexEntry, 0, count)}
	for i := uint32(0); i < count; i++ {
		size, err := readU64(r)
		if err != nil {
			return nil, fmt.Errorf("checkout: read entry %d size: %w", i, err)
		}
		nsec, err := readU64(r)
		if err != nil {
			return nil, fmt.Errorf("checkout: read entry %d mtime: %w", i, err)
		}
		mode, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("checkout: read entry %d mode: %w", i, err)
		}

		var hash plumbing.Hash
		if _, err := readFull(r, hash[:]); err != nil {
			return nil, fmt.Errorf("checkout: read entry %d hash: %w", i, err)
		}

		stage, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("checkout: read entry %d stage: %w", i, err)
		}

		nameLen, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("checkout: read entry %d name length: %w", i, err)
		}
		name := make([]byte, nameLen)
		if _, err := readFull(r, name); err != nil {
			return nil, fmt.Errorf("checkout: read entry %d name: %w", i, err)
		}

		idx.Entries = append(idx.Entries, IndexEntry{
			StatInfo: StatInfo{Size: int64(size), ModTime: time.Unix(0, int64(nsec)), Mode: mode},
			Hash:     hash,
			Stage:    stage,
			Name:     string(name),
		})
	}

	return idx, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func readU32(r *bufio.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readU64(r *bufio.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func readFull(r *bufio.Reader, b []byte) (int, error) {
	n := 0
	for n < len(b) {
		k, err := r.Read(b[n:])
		n += k
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

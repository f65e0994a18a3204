package storage_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/storage"
)

type StoreSuite struct {
	suite.Suite
	store *storage.Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	st, err := storage.New(memfs.New(), storage.Options{})
	s.Require().NoError(err)
	s.store = st
}

// TestStoreCoherence covers P4: write(v) -> h; read(h) = Some(v), both
// with and without clearing the ValueCache in between.
func (s *StoreSuite) TestStoreCoherence() {
	b := &plumbing.Blob{Content: []byte("coherent\n")}
	h, err := s.store.Write(b)
	s.Require().NoError(err)

	o, err := s.store.Read(plumbing.ShortHash(h.String()))
	s.Require().NoError(err)
	s.Equal(b.Content, o.(*plumbing.Blob).Content)

	s.store.ValueCache().Clear()

	o, err = s.store.Read(plumbing.ShortHash(h.String()))
	s.Require().NoError(err)
	s.Equal(b.Content, o.(*plumbing.Blob).Content)
}

// TestCacheShadowing covers P5: a prepopulated cache entry is
// authoritative even when the on-disk object would decode differently.
func (s *StoreSuite) TestCacheShadowing() {
	onDisk := &plumbing.Blob{Content: []byte("on-disk\n")}
	h, err := s.store.Write(onDisk)
	s.Require().NoError(err)

	shadow := &plumbing.Blob{Content: []byte("shadow\n")}
	s.store.ValueCache().Insert(h, shadow)

	o, err := s.store.Read(plumbing.ShortHash(h.String()))
	s.Require().NoError(err)
	s.Equal(shadow.Content, o.(*plumbing.Blob).Content)
}

// TestShortHashAmbiguity covers P6 and end-to-end scenario 3: two blobs
// sharing a hash prefix make that prefix ambiguous, but a longer,
// unique prefix still resolves.
func (s *StoreSuite) TestShortHashAmbiguity() {
	b1, b2 := pickColliding(s.T())

	h1, err := s.store.Write(b1)
	s.Require().NoError(err)
	h2, err := s.store.Write(b2)
	s.Require().NoError(err)
	s.Require().Equal(h1.String()[:2], h2.String()[:2])

	_, err = s.store.Read(plumbing.ShortHash(h1.String()[:2]))
	s.ErrorIs(err, plumbing.ErrAmbiguous)

	o, err := s.store.Read(plumbing.ShortHash(h1.String()[:8]))
	s.Require().NoError(err)
	s.Require().NotNil(o)
	s.Equal(h1, o.Hash())
}

// TestListUnion covers P9: List() is the de-duplicated union of loose
// hashes and pack key sets. With no packs present, it is just the loose
// set.
func (s *StoreSuite) TestListUnion() {
	b := &plumbing.Blob{Content: []byte("listed\n")}
	h, err := s.store.Write(b)
	s.Require().NoError(err)

	hashes, err := s.store.List()
	s.Require().NoError(err)
	s.Contains(hashes, h)
}

func (s *StoreSuite) TestInvalidCompressionLevelRejected() {
	_, err := storage.New(memfs.New(), storage.Options{Level: 99})
	s.ErrorIs(err, storage.ErrInvalidLevel)
}

// pickColliding searches for two small blobs whose hashes share a
// two-character prefix, by varying their content deterministically.
func pickColliding(t *testing.T) (*plumbing.Blob, *plumbing.Blob) {
	t.Helper()

	seen := make(map[string]*plumbing.Blob)
	for i := 0; i < 100000; i++ {
		b := &plumbing.Blob{Content: []byte{byte(i), byte(i >> 8), byte(i >> 16)}}
		prefix := b.Hash().String()[:2]
		if other, ok := seen[prefix]; ok {
			return other, b
		}
		seen[prefix] = b
	}
	t.Fatal("failed to find two colliding hash prefixes")
	return nil, nil
}

package storage_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/storage"
	"github.com/gitodb/gitodb/storage/dotgit"
)

type LooseSuite struct {
	suite.Suite
	dir   *dotgit.DotGit
	loose *storage.Loose
}

func TestLooseSuite(t *testing.T) {
	suite.Run(t, new(LooseSuite))
}

func (s *LooseSuite) SetupTest() {
	fs := memfs.New()
	s.dir = dotgit.New(fs)
	s.loose = storage.NewLoose(s.dir, newFileCache(fs), storage.DefaultLevel)
}

func (s *LooseSuite) TestWriteThenReadFull() {
	b := &plumbing.Blob{Content: []byte("hello\n")}

	h, err := s.loose.Write(b)
	s.Require().NoError(err)
	s.Equal("ce013625030ba8dba906f756967f9e9ca394464a", h.String())

	o, err := s.loose.Read(plumbing.ShortHash(h.String()))
	s.Require().NoError(err)
	s.Require().NotNil(o)
	s.Equal(b.Content, o.(*plumbing.Blob).Content)
}

// TestWriteIsIdempotent covers P3: writing the same value twice produces
// one file and the same hash both times.
func (s *LooseSuite) TestWriteIsIdempotent() {
	b := &plumbing.Blob{Content: []byte("idempotent\n")}

	h1, err := s.loose.Write(b)
	s.Require().NoError(err)
	h2, err := s.loose.Write(b)
	s.Require().NoError(err)
	s.Equal(h1, h2)

	hashes, err := s.loose.List()
	s.Require().NoError(err)
	s.Len(hashes, 1)
}

func (s *LooseSuite) TestShortHashUniqueMatch() {
	b := &plumbing.Blob{Content: []byte("unique\n")}
	h, err := s.loose.Write(b)
	s.Require().NoError(err)

	o, err := s.loose.Read(plumbing.ShortHash(h.String()[:8]))
	s.Require().NoError(err)
	s.Require().NotNil(o)
	s.Equal(h, o.Hash())
}

func (s *LooseSuite) TestMissingObjectReturnsNilNotError() {
	o, err := s.loose.Read(plumbing.ShortHash("ce013625030ba8dba906f756967f9e9ca394464a"))
	s.Require().NoError(err)
	s.Nil(o)
}

package refs_test

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/suite"

	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/refs"
	"github.com/gitodb/gitodb/storage/dotgit"
)

type ReferencesSuite struct {
	suite.Suite
}

func TestReferencesSuite(t *testing.T) {
	suite.Run(t, new(ReferencesSuite))
}

func newReferences() (*refs.References, *dotgit.DotGit) {
	fs := memfs.New()
	dir := dotgit.New(fs)
	return refs.New(fs, dir), dir
}

// TestSymbolicChase covers P7: HEAD -> refs/heads/main -> hash resolves
// in one call.
func (s *ReferencesSuite) TestSymbolicChase() {
	r, _ := newReferences()

	h := plumbing.NewHash("ce013625030ba8dba906f756967f9e9ca394464a")
	s.Require().NoError(r.Write("refs/heads/main", h))
	s.Require().NoError(r.WriteSymbolic(refs.HeadName, "refs/heads/main"))

	resolved, err := r.ReadHead()
	s.Require().NoError(err)
	s.Equal(h, resolved)
}

// TestReadHeadContentsDoesNotChase covers the non-recursive read_head: when
// HEAD is symbolic, ReadHeadContents must return the symbolic target as-is
// rather than following it to a final hash the way ReadHead does.
func (s *ReferencesSuite) TestReadHeadContentsDoesNotChase() {
	r, _ := newReferences()

	h := plumbing.NewHash("ce013625030ba8dba906f756967f9e9ca394464a")
	s.Require().NoError(r.Write("refs/heads/main", h))
	s.Require().NoError(r.WriteSymbolic(refs.HeadName, "refs/heads/main"))

	hc, ok, err := r.ReadHeadContents()
	s.Require().NoError(err)
	s.Require().True(ok)
	s.True(hc.IsSymbolic)
	s.Equal(refs.Reference("refs/heads/main"), hc.Symbolic)

	resolved, err := r.ReadHead()
	s.Require().NoError(err)
	s.Equal(h, resolved)
}

func (s *ReferencesSuite) TestReadHeadContentsMissing() {
	r, _ := newReferences()

	_, ok, err := r.ReadHeadContents()
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ReferencesSuite) TestSymbolicCycleDetected() {
	r, _ := newReferences()

	s.Require().NoError(r.WriteSymbolic("refs/heads/a", "refs/heads/b"))
	s.Require().NoError(r.WriteSymbolic("refs/heads/b", "refs/heads/a"))

	_, err := r.Read("refs/heads/a")
	s.ErrorIs(err, refs.ErrMalformedReference)
}

// TestPackedRefsFallback covers P8: a reference present only in
// packed-refs is still found by Read.
func (s *ReferencesSuite) TestPackedRefsFallback() {
	fs := memfs.New()
	dir := dotgit.New(fs)
	r := refs.New(fs, dir)

	h := plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")
	lines := []refs.Line{
		{Kind: refs.CommentLine, Text: " pack-refs with: peeled fully-peeled sorted"},
		{Kind: refs.EntryLine, Hash: h, Ref: "refs/heads/packed-only"},
	}
	s.Require().NoError(dir.WriteFileAtomic(dir.PackedRefsPath(), refs.Serialize(lines)))

	resolved, err := r.Read("refs/heads/packed-only")
	s.Require().NoError(err)
	s.Equal(h, resolved)

	exists, err := r.Exists("refs/heads/packed-only")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ReferencesSuite) TestListDeduplicatesLooseAndPacked() {
	fs := memfs.New()
	dir := dotgit.New(fs)
	r := refs.New(fs, dir)

	h := plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")
	s.Require().NoError(r.Write("refs/heads/main", h))

	lines := []refs.Line{{Kind: refs.EntryLine, Hash: h, Ref: "refs/heads/main"}, {Kind: refs.EntryLine, Hash: h, Ref: "refs/tags/v1"}}
	s.Require().NoError(dir.WriteFileAtomic(dir.PackedRefsPath(), refs.Serialize(lines)))

	list, err := r.List()
	s.Require().NoError(err)
	s.ElementsMatch([]refs.Reference{"refs/heads/main", "refs/tags/v1"}, list)
}

func (s *ReferencesSuite) TestReadMissingReference() {
	r, _ := newReferences()
	_, err := r.Read("refs/heads/nope")
	s.ErrorIs(err, refs.ErrMalformedReference)
}

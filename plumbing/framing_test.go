package plumbing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/filemode"
)

func sig() plumbing.Signature {
	return plumbing.Signature{
		Name:  "A U Thor",
		Email: "author@example.com",
		When:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("", 3600)),
	}
}

func TestRoundTripBlob(t *testing.T) {
	b := &plumbing.Blob{Content: []byte("hello\n")}
	testRoundTrip(t, b)
}

func TestRoundTripTree(t *testing.T) {
	tr := &plumbing.Tree{Entries: []plumbing.TreeEntry{
		{Name: "a", Mode: filemode.Regular, Hash: plumbing.NewHash("ce013625030ba8dba906f756967f9e9ca394464a")},
		{Name: "dir", Mode: filemode.Dir, Hash: plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904")},
	}}
	testRoundTrip(t, tr)
}

func TestRoundTripCommit(t *testing.T) {
	c := &plumbing.Commit{
		TreeHash:  plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"),
		Author:    sig(),
		Committer: sig(),
		Message:   "init\n",
	}
	testRoundTrip(t, c)
}

func TestRoundTripTag(t *testing.T) {
	tag := &plumbing.Tag{
		Target:     plumbing.NewHash("4b825dc642cb6eb9a060e54bf8d69288fbee4904"),
		TargetKind: plumbing.CommitKind,
		Name:       "v1.0.0",
		Tagger:     sig(),
		Message:    "release\n",
	}
	testRoundTrip(t, tag)
}

// testRoundTrip checks P1: parse_inflated(serialize_inflated(v)) = v, and
// P2: hash(v) = Digest(serialize_inflated(v)), for every compression level
// P1 also names.
func testRoundTrip(t *testing.T, o plumbing.Object) {
	t.Helper()

	inflated := plumbing.SerializeInflated(o)
	parsed, err := plumbing.ParseInflated(inflated)
	require.NoError(t, err)
	assert.Equal(t, inflated, plumbing.SerializeInflated(parsed))

	assert.Equal(t, plumbing.ComputeHash(o), o.Hash())

	for _, level := range []int{0, 1, 6, 9} {
		deflated, err := plumbing.SerializeDeflated(o, level)
		require.NoError(t, err)

		roundtripped, err := plumbing.ParseDeflated(deflated)
		require.NoError(t, err)
		assert.Equal(t, inflated, plumbing.SerializeInflated(roundtripped))
	}
}

func TestBlobHashMatchesSpecExample(t *testing.T) {
	b := &plumbing.Blob{Content: []byte("hello\n")}
	assert.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", b.Hash().String())
}

package idxfile_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	fixtures "github.com/go-git/go-git-fixtures/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/format/idxfile"
)

// TestParseRealFixture parses the real .idx file from go-git-fixtures'
// "Basic" repository, the same fixture and the same expected values the
// teacher's own plumbing/format/idxfile decoder_test.go asserts.
func TestParseRealFixture(t *testing.T) {
	f := fixtures.Basic().One()

	raw, err := io.ReadAll(f.Idx())
	require.NoError(t, err)

	idx, err := idxfile.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 31, idx.Len())

	h := plumbing.NewHash("1669dce138d9b841a518c64b10914d88f5e488ea")
	off, crc, ok := idx.FindOffset(h)
	require.True(t, ok)
	assert.EqualValues(t, 615, off)
	assert.EqualValues(t, 3645019190, crc)
}

// buildV2Index hand-assembles a minimal version-2 pack index containing
// entries, sorted by hash, with small (non-large) offsets. Used only for
// the malformed-input cases below, where a real fixture can't cleanly
// express "truncated" or "wrong magic" -- TestParseRealFixture above
// covers the happy path against an actual .idx file.
func buildV2Index(entries []idxfile.Entry) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 't', 'O', 'c'})

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], 2)
	buf.Write(u32[:])

	var fanout [256]uint32
	for _, e := range entries {
		for i := int(e.Hash[0]); i < 256; i++ {
			fanout[i]++
		}
	}
	for _, f := range fanout {
		binary.BigEndian.PutUint32(u32[:], f)
		buf.Write(u32[:])
	}

	for _, e := range entries {
		buf.Write(e.Hash[:])
	}
	for _, e := range entries {
		binary.BigEndian.PutUint32(u32[:], e.CRC32)
		buf.Write(u32[:])
	}
	for _, e := range entries {
		binary.BigEndian.PutUint32(u32[:], uint32(e.Offset))
		buf.Write(u32[:])
	}

	return buf.Bytes()
}

func TestParseFindsEntries(t *testing.T) {
	h1 := plumbing.NewHash("1111111111111111111111111111111111111111")
	h2 := plumbing.NewHash("2222222222222222222222222222222222222222")

	raw := buildV2Index([]idxfile.Entry{
		{Hash: h1, Offset: 12, CRC32: 0xdead},
		{Hash: h2, Offset: 900, CRC32: 0xbeef},
	})

	idx, err := idxfile.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	off, crc, ok := idx.FindOffset(h1)
	require.True(t, ok)
	assert.EqualValues(t, 12, off)
	assert.EqualValues(t, 0xdead, crc)

	assert.True(t, idx.Contains(h2))
	assert.False(t, idx.Contains(plumbing.NewHash("3333333333333333333333333333333333333333")))

	assert.ElementsMatch(t, []plumbing.Hash{h1, h2}, idx.Keys())
}

func TestParseRejectsBadMagic(t *testing.T) {
	raw := buildV2Index(nil)
	raw[0] = 0x00

	_, err := idxfile.Parse(raw)
	assert.ErrorIs(t, err, idxfile.ErrUnsupportedVersion)
}

func TestParseRejectsTruncated(t *testing.T) {
	raw := buildV2Index([]idxfile.Entry{{Hash: plumbing.NewHash("1111111111111111111111111111111111111111"), Offset: 1}})
	raw = raw[:len(raw)-4]

	_, err := idxfile.Parse(raw)
	assert.ErrorIs(t, err, idxfile.ErrMalformed)
}

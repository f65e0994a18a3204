package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gitodb/gitodb/plumbing"
	"github.com/gitodb/gitodb/plumbing/cache"
)

func TestInsertAndFind(t *testing.T) {
	c := cache.New()
	h := plumbing.NewHash("ce013625030ba8dba906f756967f9e9ca394464a")
	b := &plumbing.Blob{Content: []byte("hello\n")}

	_, ok := c.Find(h)
	assert.False(t, ok)

	c.Insert(h, b)
	got, ok := c.Find(h)
	assert.True(t, ok)
	assert.Same(t, plumbing.Object(b), got)
}

func TestEvictsOldestOnOverflow(t *testing.T) {
	c := cache.NewSize(2, 2)

	h1 := plumbing.NewHash("1111111111111111111111111111111111111111")
	h2 := plumbing.NewHash("2222222222222222222222222222222222222222")
	h3 := plumbing.NewHash("3333333333333333333333333333333333333333")

	c.Insert(h1, &plumbing.Blob{})
	c.Insert(h2, &plumbing.Blob{})
	c.Insert(h3, &plumbing.Blob{}) // evicts h1, the least recently used

	_, ok := c.Find(h1)
	assert.False(t, ok)

	_, ok = c.Find(h2)
	assert.True(t, ok)
	_, ok = c.Find(h3)
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c := cache.New()
	h := plumbing.NewHash("ce013625030ba8dba906f756967f9e9ca394464a")
	c.Insert(h, &plumbing.Blob{})
	c.InsertInflated(h, []byte("blob 0\x00"))

	c.Clear()

	_, ok := c.Find(h)
	assert.False(t, ok)
	_, ok = c.FindInflated(h)
	assert.False(t, ok)
}

package storage_test

import (
	"github.com/go-git/go-billy/v5"

	"github.com/gitodb/gitodb/internal/filecache"
)

func newFileCache(fs billy.Filesystem) *filecache.FileCache {
	return filecache.New(fs)
}

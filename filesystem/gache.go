package filesystem

import (
	"io"
	"os"
)

// Gache lets gache persist its entries through the active backend, so a
// memory filesystem in tests also holds the cache.
type Gache struct{}

func (Gache) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (Gache) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}

package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalSource resolves keys relative to a base directory on the local
// filesystem, adapted from the teacher's LocalBackend.
type LocalSource struct {
	basePath string
}

// NewLocalSource returns a Source rooted at basePath. Unlike the teacher's
// NewLocalBackend, it does not create basePath: a read-only source has
// nothing to initialise, and a missing root should surface as an error on
// first use rather than be silently created.
func NewLocalSource(basePath string) *LocalSource {
	return &LocalSource{basePath: basePath}
}

func (l *LocalSource) Open(key string) (io.ReadCloser, error) {
	path := l.keyToPath(key)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key not found: %s", key)
		}
		return nil, err
	}
	return file, nil
}

func (l *LocalSource) Size(key string) (int64, error) {
	info, err := os.Stat(l.keyToPath(key))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (l *LocalSource) Exists(key string) (bool, error) {
	_, err := os.Stat(l.keyToPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *LocalSource) Close() error { return nil }

func (l *LocalSource) keyToPath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

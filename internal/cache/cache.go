// Package cache stores produced control files on disk, keyed by the
// whole-file SHA-256 of the target they describe, so re-chunking an
// unchanged target is a cache hit rather than a full re-scan.
//
// Adapted from the teacher's content-addressable object store
// (internal/store/cas.go): same sharded "first two hex chars as a
// subdirectory" layout. No hash is recomputed on read; a cached entry that
// fails to parse is reported as corrupt. This store holds one kind of
// object only — a rendered control file — and is
// addressed by the *target's* hash, not the object's own hash, since the
// point is "have I already chunked this exact target before."
package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/psync/psync/internal/controlfile"
)

// ControlFileCache is a directory of cached control files under
// <base>/objects/<hash[:2]>/<hash>.psync.
type ControlFileCache struct {
	basePath string
	mu       sync.RWMutex
}

// Open creates (if needed) and returns a cache rooted at basePath.
func Open(basePath string) (*ControlFileCache, error) {
	objectsPath := filepath.Join(basePath, "objects")
	if err := os.MkdirAll(objectsPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create control-file cache directory: %w", err)
	}
	return &ControlFileCache{basePath: objectsPath}, nil
}

// Put renders cf to the canonical control-file format and stores it under
// targetHash, overwriting any previous entry for that hash.
func (c *ControlFileCache) Put(targetHash [32]byte, cf *controlfile.ControlFile) error {
	var buf bytes.Buffer
	if err := controlfile.Write(&buf, cf, "cached by psync"); err != nil {
		return fmt.Errorf("render control file for cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	objPath := c.objectPath(targetHash)
	if err := os.MkdirAll(filepath.Dir(objPath), 0755); err != nil {
		return fmt.Errorf("failed to create cache shard directory: %w", err)
	}
	if err := os.WriteFile(objPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cached control file: %w", err)
	}
	return nil
}

// Get loads and parses the control file cached for targetHash, if any. A
// cache miss is reported via ok=false, not an error.
func (c *ControlFileCache) Get(targetHash [32]byte) (cf *controlfile.ControlFile, ok bool, err error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.objectPath(targetHash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached control file: %w", err)
	}

	cf, err = controlfile.Parse(bytes.NewReader(data), nil)
	if err != nil {
		return nil, false, fmt.Errorf("cached control file is corrupt: %w", err)
	}
	return cf, true, nil
}

// Has reports whether targetHash has a cached control file, without loading
// or parsing it.
func (c *ControlFileCache) Has(targetHash [32]byte) bool {
	_, err := os.Stat(c.objectPath(targetHash))
	return err == nil
}

// Delete removes the cached control file for targetHash, if present.
func (c *ControlFileCache) Delete(targetHash [32]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.objectPath(targetHash))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// objectPath mirrors the teacher's CAS layout: the first two hex characters
// of the key become a shard directory, spreading entries across many small
// directories instead of one large one.
func (c *ControlFileCache) objectPath(hash [32]byte) string {
	hexHash := fmt.Sprintf("%x", hash)
	return filepath.Join(c.basePath, hexHash[:2], hexHash+".psync")
}

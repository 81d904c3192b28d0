// Package source abstracts where a control file or seed's bytes come from.
// The CLI boundary picks one of these from the config-defaults file's cloud
// settings (S3 when enabled, local otherwise) before handing
// plain []byte/io.Reader values to the core packages, which never know
// whether their input came off a local disk or an S3 bucket.
//
// Adapted from the teacher's Backend interface (internal/backend/backend.go):
// this module only ever reads, so Put/Delete/List drop out, leaving a
// smaller read-oriented contract.
package source

import "io"

// Source fetches named objects: a target's control file, or a seed file.
type Source interface {
	// Open returns a reader for the object at key. The caller must Close it.
	Open(key string) (io.ReadCloser, error)

	// Size returns the object's length in bytes without reading it.
	Size(key string) (int64, error)

	// Exists reports whether key refers to an object that exists.
	Exists(key string) (bool, error)

	// Close releases any resources held by the source (connections, etc).
	Close() error
}

// ProgressFunc reports bytes read so far against the object's total size,
// mirroring the teacher's ProgressCallback shape.
type ProgressFunc func(bytesRead, totalBytes int64)

// ReadAll reads the full contents of key from src, invoking onProgress (if
// non-nil) as bytes arrive.
func ReadAll(src Source, key string, onProgress ProgressFunc) ([]byte, error) {
	size, err := src.Size(key)
	if err != nil {
		return nil, err
	}

	r, err := src.Open(key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if onProgress == nil {
		onProgress = func(int64, int64) {}
	}

	buf := make([]byte, 0, size)
	chunk := make([]byte, 32*1024)
	var read int64
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			read += int64(n)
			onProgress(read, size)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

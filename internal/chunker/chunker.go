// Package chunker produces chunk descriptors from a byte slice: one per tar
// entry in tar-aware mode, clamped and split to a maximum size. Both modes
// reduce to a single "materialise a chunk at (from, len)" primitive.
package chunker

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/psync/psync/internal/rollsum"
)

// Breakpoint is a byte offset into a file; a chunk boundary falls before the
// referenced byte.
type Breakpoint = int

// Chunk is a contiguous byte range of a target file, identified by its
// start-mark and full-range hash.
type Chunk struct {
	From      int
	Len       int
	StartMark uint64
	Hash      [32]byte
}

// UnsupportedSizeError is returned when a caller requests a uniform chunk
// size below the rolling-hash window.
type UnsupportedSizeError struct {
	Requested int
}

func (e *UnsupportedSizeError) Error() string {
	return fmt.Sprintf("chunk size %d is smaller than the window size %d", e.Requested, rollsum.WindowSize)
}

// Materialise clamps (from, len) so the resulting chunk is always valid,
// then computes its start-mark and hash. Clamping order matters: EOF-shift
// must happen before EOF-truncate, which must happen before the minimum
// length expansion, so that a chunk requested near EOF deterministically
// collapses to the canonical final chunk instead of being rejected.
//
// The EOF-shift can move `from` backwards past the end of a neighbouring
// chunk, producing overlap with it; this is accepted, not rejected — the
// downstream coverage consumer tolerates overlapping ranges.
func Materialise(file []byte, from, length int) Chunk {
	fileLen := len(file)

	if from+rollsum.WindowSize >= fileLen {
		from = fileLen - rollsum.WindowSize
		length = rollsum.WindowSize
	}
	if from+length > fileLen {
		length = fileLen - from
	}
	if length < rollsum.WindowSize {
		length = rollsum.WindowSize
	}

	startMark := rollsum.Of(file[from : from+rollsum.WindowSize])
	hash := sha256.Sum256(file[from : from+length])

	return Chunk{From: from, Len: length, StartMark: startMark, Hash: hash}
}

// MaterialiseAt is the CLI-facing equivalent of Materialise for a single,
// caller-chosen (from, length) pair — the "chunk_specific" mode the
// original producer offered for debugging a single offset without running
// breakpoint discovery at all.
func MaterialiseAt(file []byte, from, length int) (Chunk, error) {
	if length < rollsum.WindowSize {
		return Chunk{}, &UnsupportedSizeError{Requested: length}
	}
	return Materialise(file, from, length), nil
}

// SplitLargeChunks splits any gap (from, to) in a sorted breakpoint list
// whose length exceeds maxSize into ceil((to-from)/maxSize) sub-breakpoints,
// preserving ordering. Running it twice with the same maxSize on its own
// output is a no-op: every gap it leaves behind is already <= maxSize.
func SplitLargeChunks(breakpoints []Breakpoint, maxSize int) []Breakpoint {
	sorted := append([]Breakpoint(nil), breakpoints...)
	sort.Ints(sorted)

	var out []Breakpoint
	for i := 0; i+1 < len(sorted); i++ {
		from, to := sorted[i], sorted[i+1]
		length := to - from
		n := 0
		if length > 0 {
			n = (length-1)/maxSize + 1
		}
		for j := 0; j < n; j++ {
			out = append(out, from+j*maxSize)
		}
	}
	if len(sorted) > 0 {
		out = append(out, sorted[len(sorted)-1])
	}
	return out
}

// dedupeSorted removes adjacent duplicates from a sorted slice.
func dedupeSorted(bps []Breakpoint) []Breakpoint {
	if len(bps) == 0 {
		return bps
	}
	out := bps[:1]
	for _, b := range bps[1:] {
		if b != out[len(out)-1] {
			out = append(out, b)
		}
	}
	return out
}

// Emit turns a sorted, deduplicated breakpoint list into chunk descriptors
// by materialising each adjacent (from, to) pair.
func Emit(file []byte, breakpoints []Breakpoint) []Chunk {
	chunks := make([]Chunk, 0, len(breakpoints))
	for i := 0; i+1 < len(breakpoints); i++ {
		from, to := breakpoints[i], breakpoints[i+1]
		chunks = append(chunks, Materialise(file, from, to-from))
	}
	return chunks
}

// Options configures the producer flow.
type Options struct {
	// MaxSize bounds chunk length via SplitLargeChunks. Must be >= WindowSize.
	MaxSize int
	// Tar extends the breakpoint set with tar-entry boundaries.
	Tar bool
}

// Produce runs the full producer flow described in spec §4.2: start with
// breakpoints {0, len(file)}; if Tar, extend with tar-entry boundaries;
// apply SplitLargeChunks; sort and dedupe; materialise.
func Produce(file []byte, opts Options) ([]Chunk, error) {
	if opts.MaxSize < rollsum.WindowSize {
		return nil, &UnsupportedSizeError{Requested: opts.MaxSize}
	}

	breakpoints := []Breakpoint{0, len(file)}
	if opts.Tar {
		breakpoints = append(breakpoints, TarBreakpoints(file)...)
	}

	breakpoints = SplitLargeChunks(breakpoints, opts.MaxSize)
	sort.Ints(breakpoints)
	breakpoints = dedupeSorted(breakpoints)

	return Emit(file, breakpoints), nil
}

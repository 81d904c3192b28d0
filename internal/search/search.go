// Package search implements the hot path of the system: a single pass over
// a seed buffer that slides the rolling checksum across every byte, probes
// a membership filter built from the target's start-marks, and on a hit
// verifies candidates by SHA-256. Everything is read-only and call-scoped;
// there is no shared mutable state between searches.
package search

import (
	"crypto/sha256"

	"github.com/psync/psync/internal/controlfile"
	"github.com/psync/psync/internal/rollsum"
)

// ProgressFunc is invoked with the current byte index, at multiples of
// 1000, in strictly increasing order. Implementations must be robust to a
// nil or no-op callback.
type ProgressFunc func(i int)

// Appearances maps a target chunk hash to the latest seed offset at which
// it was found. A chunk that matches at multiple seed offsets only keeps
// the last: downstream coverage only needs one witness per chunk.
type Appearances map[controlfile.Sha256Sum]int

// Run slides RollSum across seed and returns every target chunk it located.
// Probing only begins once a full window has been fed (i >= WindowSize-1),
// so the candidate start offset i+1-WindowSize never underflows.
func Run(seed []byte, cf *controlfile.ControlFile, filter *controlfile.Filter, progress ProgressFunc) Appearances {
	if progress == nil {
		progress = func(int) {}
	}

	appearances := make(Appearances)
	rs := rollsum.New()
	seedLen := len(seed)

	for i, b := range seed {
		rs.Input(b)

		if i%1000 == 0 {
			progress(i)
		}

		if i < rollsum.WindowSize-1 {
			continue
		}

		h := rs.Sum64()
		if !filter.Contains(h) {
			continue
		}

		ourStart := i + 1 - rollsum.WindowSize
		for _, candidate := range cf.ChunksAt(h) {
			end := ourStart + candidate.Len
			if end > seedLen {
				// A short read can never match a full-length chunk; skip
				// the hash rather than declare a match on a truncated sum.
				continue
			}
			ourSha := sha256.Sum256(seed[ourStart:end])
			if ourSha == candidate.Hash {
				appearances[candidate.Hash] = ourStart
			}
		}
	}

	return appearances
}

// Package coverage implements the downstream consumer described in spec
// section 4.5: given a control file's appearance index and a search's
// appearance map, it builds an interval map over [0, total_len) recording
// where each target range can be reconstructed from the seed, and reports
// the gaps that must be fetched from elsewhere.
package coverage

import "sort"

// Range is a target byte range [From, From+Len).
type Range struct {
	From int
	Len  int
}

// End is the exclusive end of the range.
func (r Range) End() int { return r.From + r.Len }

// Reusable is one target range recoverable from the seed, and the additive
// offset to apply: seed_offset = target_offset + Delta.
type Reusable struct {
	Range
	Delta int
}

// Map is the result of Build: every target range the seed can supply, plus
// the gaps that cannot be satisfied locally. Chunks need not tile the target
// without overlap; Reusable entries may themselves overlap, matching
// chunker's accepted EOF-shift behaviour.
type Map struct {
	TotalLen int
	Reusable []Reusable
	Gaps     []Range
}

// SeedOffsets maps a chunk hash to the seed offset it was found at, as
// produced by a search run.
type SeedOffsets map[[32]byte]int

// Build constructs the interval map for a target of totalLen bytes, given
// every (from, len) pair the control file records and, per chunk hash, the
// seed offset a search located it at.
//
// ranges and their hashes come together via a single slice here rather than
// the raw ControlFile/search types, keeping this package decoupled: one
// caller-built slice of (from, len, hash) triples is everything it needs.
func Build(totalLen int, chunks []Chunk, found SeedOffsets) Map {
	reusable := make([]Reusable, 0, len(chunks))
	for _, c := range chunks {
		seedOffset, ok := found[c.Hash]
		if !ok {
			continue
		}
		reusable = append(reusable, Reusable{
			Range: Range{From: c.From, Len: c.Len},
			Delta: seedOffset - c.From,
		})
	}

	sort.Slice(reusable, func(i, j int) bool { return reusable[i].From < reusable[j].From })

	return Map{
		TotalLen: totalLen,
		Reusable: reusable,
		Gaps:     gapsOf(totalLen, reusable),
	}
}

// Chunk is the minimal (from, len, hash) triple Build needs per target
// chunk; FromControlFile copies these three fields out of each
// controlfile.Appearance.
type Chunk struct {
	From int
	Len  int
	Hash [32]byte
}

// gapsOf computes the byte ranges of [0,totalLen) not covered by any
// reusable range. Overlaps between reusable ranges are fine: only the union
// of covered bytes matters.
func gapsOf(totalLen int, reusable []Reusable) []Range {
	if totalLen <= 0 {
		return nil
	}

	covered := make([]bool, totalLen)
	for _, r := range reusable {
		from := clamp(r.From, 0, totalLen)
		end := clamp(r.End(), 0, totalLen)
		for i := from; i < end; i++ {
			covered[i] = true
		}
	}

	var gaps []Range
	i := 0
	for i < totalLen {
		if covered[i] {
			i++
			continue
		}
		start := i
		for i < totalLen && !covered[i] {
			i++
		}
		gaps = append(gaps, Range{From: start, Len: i - start})
	}
	return gaps
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

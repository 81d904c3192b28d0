package coverage

import "testing"

func hash(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

func TestBuildFullCoverageNoGaps(t *testing.T) {
	chunks := []Chunk{
		{From: 0, Len: 100, Hash: hash(1)},
		{From: 100, Len: 100, Hash: hash(2)},
	}
	found := SeedOffsets{hash(1): 0, hash(2): 100}

	m := Build(200, chunks, found)
	if len(m.Gaps) != 0 {
		t.Fatalf("expected no gaps, got %v", m.Gaps)
	}
	if len(m.Reusable) != 2 {
		t.Fatalf("expected 2 reusable ranges, got %d", len(m.Reusable))
	}
}

func TestBuildMissingChunkLeavesGap(t *testing.T) {
	chunks := []Chunk{
		{From: 0, Len: 100, Hash: hash(1)},
		{From: 100, Len: 100, Hash: hash(2)},
	}
	found := SeedOffsets{hash(1): 0} // chunk 2 not found

	m := Build(200, chunks, found)
	if len(m.Gaps) != 1 {
		t.Fatalf("expected 1 gap, got %v", m.Gaps)
	}
	if m.Gaps[0] != (Range{From: 100, Len: 100}) {
		t.Fatalf("gap = %+v, want [100,200)", m.Gaps[0])
	}
}

func TestBuildDeltaReflectsSeedShift(t *testing.T) {
	chunks := []Chunk{{From: 1000, Len: 100, Hash: hash(1)}}
	found := SeedOffsets{hash(1): 5000}

	m := Build(1100, chunks, found)
	if len(m.Reusable) != 1 {
		t.Fatalf("expected 1 reusable range, got %d", len(m.Reusable))
	}
	if got := m.Reusable[0].Delta; got != 4000 {
		t.Fatalf("Delta = %d, want 4000", got)
	}
}

func TestBuildOverlappingReusableRangesStillCoverGaplessly(t *testing.T) {
	// EOF-shift can produce overlapping target ranges; the union should
	// still close any gap between them.
	chunks := []Chunk{
		{From: 0, Len: 60, Hash: hash(1)},
		{From: 40, Len: 60, Hash: hash(2)},
	}
	found := SeedOffsets{hash(1): 0, hash(2): 40}

	m := Build(100, chunks, found)
	if len(m.Gaps) != 0 {
		t.Fatalf("expected no gaps from overlapping coverage, got %v", m.Gaps)
	}
}

func TestBuildEmptyTargetHasNoGaps(t *testing.T) {
	m := Build(0, nil, nil)
	if len(m.Gaps) != 0 {
		t.Fatalf("expected no gaps for an empty target, got %v", m.Gaps)
	}
}

func TestBuildAllMissingYieldsOneGapSpanningWholeTarget(t *testing.T) {
	chunks := []Chunk{{From: 0, Len: 500, Hash: hash(1)}}
	m := Build(500, chunks, SeedOffsets{})
	if len(m.Gaps) != 1 || m.Gaps[0] != (Range{From: 0, Len: 500}) {
		t.Fatalf("gaps = %v, want a single gap covering the whole target", m.Gaps)
	}
}

func TestBuildReusableSortedByFrom(t *testing.T) {
	chunks := []Chunk{
		{From: 100, Len: 10, Hash: hash(2)},
		{From: 0, Len: 10, Hash: hash(1)},
	}
	found := SeedOffsets{hash(1): 0, hash(2): 100}

	m := Build(200, chunks, found)
	for i := 1; i < len(m.Reusable); i++ {
		if m.Reusable[i-1].From > m.Reusable[i].From {
			t.Fatalf("reusable ranges not sorted by From: %v", m.Reusable)
		}
	}
}

package controlfile

import (
	"bytes"
	"crypto/sha256"
	"strings"
	"testing"
)

func hashOf(s string) Sha256Sum { return sha256.Sum256([]byte(s)) }

func TestAddKeepsOneChunksEntryPerHash(t *testing.T) {
	cf := New(100, hashOf("whole"))
	h := hashOf("chunk-a")

	cf.Add(Appearance{From: 0, Len: 10, StartMark: 1, Hash: h})
	cf.Add(Appearance{From: 20, Len: 10, StartMark: 1, Hash: h})
	cf.Add(Appearance{From: 40, Len: 10, StartMark: 1, Hash: h})

	if got := len(cf.ChunksAt(1)); got != 1 {
		t.Fatalf("ChunksAt(1) has %d entries, want 1 (duplicate hash should not re-add)", got)
	}
	length, offsets, ok := cf.Appearances(h)
	if !ok || length != 10 {
		t.Fatalf("Appearances: ok=%v len=%d", ok, length)
	}
	if len(offsets) != 3 {
		t.Fatalf("expected 3 offsets, got %d: %v", len(offsets), offsets)
	}
}

func TestAddRetainsStartMarkCollisions(t *testing.T) {
	cf := New(100, hashOf("whole"))
	ha, hb := hashOf("a"), hashOf("b")

	cf.Add(Appearance{From: 0, Len: 10, StartMark: 7, Hash: ha})
	cf.Add(Appearance{From: 50, Len: 20, StartMark: 7, Hash: hb})

	entries := cf.ChunksAt(7)
	if len(entries) != 2 {
		t.Fatalf("expected both distinct chunks retained under the colliding start mark, got %d", len(entries))
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	cf := New(4096*3, hashOf("whole-file"))
	cf.Add(Appearance{From: 0, Len: 4096, StartMark: 0xdead, Hash: hashOf("chunk0")})
	cf.Add(Appearance{From: 4096, Len: 4096, StartMark: 0xbeef, Hash: hashOf("chunk1")})
	cf.Add(Appearance{From: 8192, Len: 4096, StartMark: 0xdead, Hash: hashOf("chunk2")})

	var buf bytes.Buffer
	if err := Write(&buf, cf, "test"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	parsed, err := Parse(&buf, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if parsed.TotalLen != cf.TotalLen || parsed.TotalSHA256 != cf.TotalSHA256 {
		t.Fatalf("header mismatch after round-trip")
	}
	if parsed.NChunks() != cf.NChunks() || parsed.NAppearances() != cf.NAppearances() {
		t.Fatalf("counts mismatch: chunks %d/%d appearances %d/%d",
			parsed.NChunks(), cf.NChunks(), parsed.NAppearances(), cf.NAppearances())
	}

	want := map[[4]uint64]bool{}
	for _, a := range cf.AllAppearances() {
		want[key(a)] = true
	}
	for _, a := range parsed.AllAppearances() {
		if !want[key(a)] {
			t.Fatalf("unexpected appearance after round-trip: %+v", a)
		}
		delete(want, key(a))
	}
	if len(want) != 0 {
		t.Fatalf("missing appearances after round-trip: %v", want)
	}
}

func key(a Appearance) [4]uint64 {
	h := uint64(0)
	for _, b := range a.Hash {
		h = h*131 + uint64(b)
	}
	return [4]uint64{uint64(a.From), uint64(a.Len), a.StartMark, h}
}

func TestParseMissingHeaderKeyIsFatal(t *testing.T) {
	input := "SHA-256: " + strings.Repeat("a", 64) + "\n---\n"
	if _, err := Parse(strings.NewReader(input), nil); err == nil {
		t.Fatal("expected error for missing Length header")
	}
}

func TestParseUnrecognisedHeaderIsWarningOnly(t *testing.T) {
	var warnings []string
	input := "Length: 10\nSHA-256: " + strings.Repeat("b", 64) + "\nMystery: 1\n---\n"
	cf, err := Parse(strings.NewReader(input), func(w string) { warnings = append(warnings, w) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cf.TotalLen != 10 {
		t.Fatalf("TotalLen = %d, want 10", cf.TotalLen)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", warnings)
	}
}

func TestParseShortChunkLineIsFatal(t *testing.T) {
	input := "Length: 10\nSHA-256: " + strings.Repeat("c", 64) + "\n---\n0\t10\tabc\n"
	if _, err := Parse(strings.NewReader(input), nil); err == nil {
		t.Fatal("expected error for chunk line with too few fields")
	}
}

func TestParseCommentsAndBlankLinesIgnored(t *testing.T) {
	input := "# header comment\nLength: 10\nSHA-256: " + strings.Repeat("d", 64) + "\n---\n\n# chunk comment\n0\t10\tff\t" + strings.Repeat("e", 64) + "\n"
	cf, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cf.NChunks() != 1 {
		t.Fatalf("NChunks() = %d, want 1", cf.NChunks())
	}
}

func TestBuildFilterHasNoFalseNegatives(t *testing.T) {
	cf := New(100, hashOf("whole"))
	marks := []uint64{1, 2, 3, 42, 1000, 0xdeadbeef}
	for i, m := range marks {
		cf.Add(Appearance{From: i * 10, Len: 10, StartMark: m, Hash: hashOf(string(rune('a' + i)))})
	}

	f, err := cf.BuildFilter()
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	for _, m := range marks {
		if !f.Contains(m) {
			t.Fatalf("filter has a false negative for %x", m)
		}
	}
}

func TestBuildFilterEmpty(t *testing.T) {
	cf := New(0, hashOf(""))
	f, err := cf.BuildFilter()
	if err != nil {
		t.Fatalf("BuildFilter on empty control file: %v", err)
	}
	if f.Contains(123) {
		t.Fatal("empty filter should contain nothing")
	}
}

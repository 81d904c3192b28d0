// Package controlfile implements the textual manifest format that couples
// a chunk producer to a search consumer: whole-file metadata plus one line
// per chunk, indexed two ways for the search engine's hot path.
package controlfile

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/psync/psync/internal/chunker"

	"github.com/FastFilter/xorfilter"
)

// Sha256Sum is a whole or partial chunk's SHA-256 digest.
type Sha256Sum = [32]byte

// Appearance is one parsed chunk line: a target chunk at a given offset.
type Appearance struct {
	From      int
	Len       int
	StartMark uint64
	Hash      Sha256Sum
}

// chunkEntry is the (len, hash) pair retained per distinct start-mark.
type chunkEntry struct {
	Len  int
	Hash Sha256Sum
}

// appearanceEntry is the (len, start-mark, offsets) retained per distinct
// hash. StartMark is whichever start-mark was current the first time this
// hash was seen — the same one chunks[] filed it under.
type appearanceEntry struct {
	Len       int
	StartMark uint64
	Offsets   []int
}

// ControlFile describes one target file: its whole-file metadata and two
// indexes built while parsing the chunk section.
type ControlFile struct {
	TotalLen    int
	TotalSHA256 Sha256Sum

	// chunks maps start_mark -> ordered (len, hash) entries. The same
	// start-mark may collide across chunks of distinct length/hash; all
	// are retained, never just the first or last seen.
	chunks map[uint64][]chunkEntry

	// appearances maps hash -> (len, ordered from-offsets). A unique chunk
	// may occur at multiple offsets in the target.
	appearances map[Sha256Sum]*appearanceEntry

	// order preserves first-seen order of hashes, so NChunks/iteration and
	// the canonical writer round-trip deterministically.
	order []Sha256Sum
}

// New creates an empty ControlFile for total length/hash totalLen/totalSHA256.
func New(totalLen int, totalSHA256 Sha256Sum) *ControlFile {
	return &ControlFile{
		TotalLen:    totalLen,
		TotalSHA256: totalSHA256,
		chunks:      make(map[uint64][]chunkEntry),
		appearances: make(map[Sha256Sum]*appearanceEntry),
	}
}

// FromChunks builds a ControlFile from a producer's chunk descriptors and
// the whole-file hash, applying the same insertion rule Add uses.
func FromChunks(totalLen int, totalSHA256 Sha256Sum, chunks []chunker.Chunk) *ControlFile {
	cf := New(totalLen, totalSHA256)
	for _, c := range chunks {
		cf.Add(Appearance{From: c.From, Len: c.Len, StartMark: c.StartMark, Hash: c.Hash})
	}
	return cf
}

// Add records one chunk appearance, applying spec §4.3's indexing rule: if
// hash is not yet present in appearances, it contributes exactly once to
// chunks[start_mark]; every occurrence (including the first) appends its
// offset to appearances[hash].
func (cf *ControlFile) Add(a Appearance) {
	entry, exists := cf.appearances[a.Hash]
	if !exists {
		cf.chunks[a.StartMark] = append(cf.chunks[a.StartMark], chunkEntry{Len: a.Len, Hash: a.Hash})
		entry = &appearanceEntry{Len: a.Len, StartMark: a.StartMark}
		cf.appearances[a.Hash] = entry
		cf.order = append(cf.order, a.Hash)
	}
	entry.Offsets = append(entry.Offsets, a.From)
}

// ChunksAt returns the (len, hash) candidates sharing start mark m, in the
// order they were added — the order search tries candidates within a
// collision bucket.
func (cf *ControlFile) ChunksAt(m uint64) []struct {
	Len  int
	Hash Sha256Sum
} {
	entries := cf.chunks[m]
	out := make([]struct {
		Len  int
		Hash Sha256Sum
	}, len(entries))
	for i, e := range entries {
		out[i] = struct {
			Len  int
			Hash Sha256Sum
		}{Len: e.Len, Hash: e.Hash}
	}
	return out
}

// Appearances returns the length and ordered from-offsets recorded for hash.
func (cf *ControlFile) Appearances(hash Sha256Sum) (length int, offsets []int, ok bool) {
	entry, exists := cf.appearances[hash]
	if !exists {
		return 0, nil, false
	}
	return entry.Len, entry.Offsets, true
}

// AllAppearances returns every hash this control file knows about, together
// with its length, start-mark and offsets, in first-seen order.
func (cf *ControlFile) AllAppearances() []Appearance {
	out := make([]Appearance, 0, len(cf.order))
	for _, h := range cf.order {
		e := cf.appearances[h]
		for _, from := range e.Offsets {
			out = append(out, Appearance{From: from, Len: e.Len, StartMark: e.StartMark, Hash: h})
		}
	}
	return out
}

// StartMarks returns every distinct start-mark, suitable for building a
// membership filter.
func (cf *ControlFile) StartMarks() []uint64 {
	marks := make([]uint64, 0, len(cf.chunks))
	for m := range cf.chunks {
		marks = append(marks, m)
	}
	sort.Slice(marks, func(i, j int) bool { return marks[i] < marks[j] })
	return marks
}

// NChunks is the total number of distinct (start_mark, len, hash) entries.
func (cf *ControlFile) NChunks() int {
	n := 0
	for _, entries := range cf.chunks {
		n += len(entries)
	}
	return n
}

// NAppearances is the total number of from-offsets across all appearances.
func (cf *ControlFile) NAppearances() int {
	n := 0
	for _, e := range cf.appearances {
		n += len(e.Offsets)
	}
	return n
}

// FilterBuildError wraps a binary-fuse construction failure (spec §7:
// FilterBuildFailure).
type FilterBuildError struct {
	Err error
}

func (e *FilterBuildError) Error() string { return fmt.Sprintf("binary fuse filter build failed: %v", e.Err) }
func (e *FilterBuildError) Unwrap() error { return e.Err }

// Filter is a membership test over start-marks, backed by a binary fuse
// filter: false positives are possible (and cheap to verify away with
// SHA-256), false negatives are not.
type Filter struct {
	inner *xorfilter.BinaryFuse8
}

// Contains reports whether key may be a known start-mark. A false answer is
// authoritative; a true answer still requires verification.
func (f *Filter) Contains(key uint64) bool {
	if f == nil || f.inner == nil {
		return false
	}
	return f.inner.Contains(key)
}

// BuildFilter constructs the membership filter over this control file's
// distinct start-marks. The binary fuse construction can fail on
// pathological (e.g. near-empty or heavily duplicated) key sets; such a
// failure is returned as a FilterBuildError and is not retried here.
func (cf *ControlFile) BuildFilter() (*Filter, error) {
	marks := cf.StartMarks()
	if len(marks) == 0 {
		return &Filter{}, nil
	}
	inner, err := xorfilter.PopulateBinaryFuse8(marks)
	if err != nil {
		return nil, &FilterBuildError{Err: err}
	}
	return &Filter{inner: inner}, nil
}

// HashWholeFile is a small convenience used by producers to compute the
// header's total SHA-256, adapted from the teacher's directory-scanner
// whole-file hashing helper (internal/scanner's hashFile) — the only piece
// of that package this module still needs.
func HashWholeFile(data []byte) Sha256Sum {
	return sha256.Sum256(data)
}

// writeHex renders a SHA-256 sum as lowercase hex, as the canonical writer
// requires.
func writeHex(h Sha256Sum) string { return hex.EncodeToString(h[:]) }

func parseHex32(s string) (Sha256Sum, error) {
	var out Sha256Sum
	if len(s) != 64 {
		return out, fmt.Errorf("hash must be 64 hex characters, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// MalformedControlError reports a fatal parse failure (spec §7).
type MalformedControlError struct {
	Reason string
}

func (e *MalformedControlError) Error() string { return "malformed control file: " + e.Reason }

// AlreadyExistsError reports that a producer refused to overwrite an
// existing control file (spec §7).
type AlreadyExistsError struct {
	Path string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("control file already exists: %s", e.Path)
}

// Write renders cf in the canonical control-file format: a header section,
// a "---" separator, then one tab-separated line per chunk appearance.
func Write(w io.Writer, cf *ControlFile, comment string) error {
	bw := bufio.NewWriter(w)
	if comment != "" {
		fmt.Fprintf(bw, "# %s\n", comment)
	}
	fmt.Fprintf(bw, "Length: %d\n", cf.TotalLen)
	fmt.Fprintf(bw, "SHA-256: %s\n", writeHex(cf.TotalSHA256))
	fmt.Fprintln(bw, "---")
	fmt.Fprintln(bw, "# from\tlength\tstart_mark\tsha-256")
	for _, a := range cf.AllAppearances() {
		fmt.Fprintf(bw, "%d\t%d\t%x\t%s\n", a.From, a.Len, a.StartMark, writeHex(a.Hash))
	}
	return bw.Flush()
}

// Parse reads the textual control-file format described in spec §6: a
// header section of "Key: Value" lines, a "---" separator, then one chunk
// per line. Comment lines (leading '#') and blank lines are ignored
// anywhere; unrecognised header keys produce a warning (delivered via warn,
// which may be nil) and are otherwise ignored. Missing Length or SHA-256,
// or a malformed chunk line, is a fatal MalformedControlError.
func Parse(r io.Reader, warn func(string)) (*ControlFile, error) {
	if warn == nil {
		warn = func(string) {}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var totalLen *int
	var totalSHA *Sha256Sum

	inHeader := true
	var cf *ControlFile

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if inHeader {
			if line == "---" {
				inHeader = false
				if totalLen == nil {
					return nil, &MalformedControlError{Reason: "missing key: Length"}
				}
				if totalSHA == nil {
					return nil, &MalformedControlError{Reason: "missing key: SHA-256"}
				}
				cf = New(*totalLen, *totalSHA)
				continue
			}

			key, value, ok := strings.Cut(line, ":")
			if !ok {
				warn(fmt.Sprintf("%q: expected \"key: value\" pairs", line))
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)

			switch key {
			case "Length":
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, &MalformedControlError{Reason: fmt.Sprintf("Length: %v", err)}
				}
				totalLen = &n
			case "SHA-256":
				h, err := parseHex32(strings.ToLower(value))
				if err != nil {
					return nil, &MalformedControlError{Reason: fmt.Sprintf("SHA-256: %v", err)}
				}
				totalSHA = &h
			default:
				warn(fmt.Sprintf("%s: unrecognised header", key))
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, &MalformedControlError{Reason: fmt.Sprintf("chunk line has %d fields, need 4: %q", len(fields), line)}
		}

		from, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, &MalformedControlError{Reason: fmt.Sprintf("from: %v", err)}
		}
		length, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, &MalformedControlError{Reason: fmt.Sprintf("len: %v", err)}
		}
		startMark, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			return nil, &MalformedControlError{Reason: fmt.Sprintf("start_mark: %v", err)}
		}
		hash, err := parseHex32(strings.ToLower(fields[3]))
		if err != nil {
			return nil, &MalformedControlError{Reason: fmt.Sprintf("hash: %v", err)}
		}

		cf.Add(Appearance{From: from, Len: length, StartMark: startMark, Hash: hash})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if inHeader {
		return nil, &MalformedControlError{Reason: "missing \"---\" section separator"}
	}

	return cf, nil
}

package chunker

import (
	"strconv"
	"strings"
)

// tarHeaderSize is the POSIX tar header block size.
const tarHeaderSize = 512

// TarBreakpoints walks file as a POSIX tar stream, emitting the starting
// offset of each entry's header as a breakpoint. Only the size field is
// parsed; the path and the rest of the header are not validated.
// Walking stops once fewer than tarHeaderSize bytes remain.
//
// This parses the header by hand rather than via archive/tar: the standard
// library's Reader is stream-oriented and does not expose the byte offset
// of each entry within a single in-memory buffer, which is exactly what a
// breakpoint producer needs.
func TarBreakpoints(file []byte) []Breakpoint {
	var breakpoints []Breakpoint
	offset := 0

	for offset+tarHeaderSize <= len(file) {
		header := file[offset : offset+tarHeaderSize]
		size, ok := tarEntrySize(header)
		if !ok {
			break
		}

		breakpoints = append(breakpoints, offset)

		dataBlocks := (size-1)/tarHeaderSize + 1
		if size == 0 {
			dataBlocks = 0
		}
		entryLen := (dataBlocks + 1) * tarHeaderSize
		offset += entryLen
	}

	return breakpoints
}

// tarEntrySize extracts the 12-byte octal (or GNU base-256) size field at
// offset 124 of a POSIX tar header. ok is false if the field cannot be
// parsed as a size, in which case the caller should stop walking — an
// unparseable header usually means we've run past the last real entry into
// the archive's trailing zero blocks.
func tarEntrySize(header []byte) (size int, ok bool) {
	if len(header) < 136 {
		return 0, false
	}
	field := header[124:136]

	// GNU base-256 encoding: top bit of the first byte set.
	if field[0]&0x80 != 0 {
		var v int64
		for _, b := range field[1:] {
			v = (v << 8) | int64(b)
		}
		return int(v), v >= 0
	}

	s := strings.TrimRight(strings.TrimLeft(string(field), " "), " \x00")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 8, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return int(v), true
}

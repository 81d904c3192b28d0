package coverage

import (
	"github.com/psync/psync/internal/controlfile"
	"github.com/psync/psync/internal/search"
)

// FromControlFile is the convenience entry point the CLI uses: it adapts a
// parsed control file's appearances and a search run's result into Build's
// plain-data inputs.
func FromControlFile(cf *controlfile.ControlFile, found search.Appearances) Map {
	appearances := cf.AllAppearances()
	chunks := make([]Chunk, len(appearances))
	for i, a := range appearances {
		chunks[i] = Chunk{From: a.From, Len: a.Len, Hash: a.Hash}
	}

	offsets := make(SeedOffsets, len(found))
	for hash, offset := range found {
		offsets[hash] = offset
	}

	return Build(cf.TotalLen, chunks, offsets)
}

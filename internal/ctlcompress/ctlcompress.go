// Package ctlcompress applies optional zstd framing to a control file's
// rendered text at rest (still written to "<path>.psync" and recognised on
// read by the zstd magic bytes), never to chunk payloads — those
// stay out of scope per spec.md's non-goals on chunk-payload storage.
//
// Adapted from the teacher's internal/compress.Compressor: the zstd
// encoder/decoder pair and level mapping are kept; the LZ4 fallback (itself
// just zstd's fastest mode under another name in the teacher) and the
// Ratio/Reader helpers that existed for chunk-blob bookkeeping are dropped,
// since a control file is always compressed or decompressed whole.
package ctlcompress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses control-file text.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// New creates a Codec at the given zstd compression level (1-22).
func New(level int) (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// NewDefault creates a Codec at zstd's default level.
func NewDefault() (*Codec, error) {
	return New(3)
}

// Compress returns data framed as a zstd stream.
func (c *Codec) Compress(data []byte) []byte {
	return c.encoder.EncodeAll(data, nil)
}

// Decompress reverses Compress.
func (c *Codec) Decompress(data []byte) ([]byte, error) {
	out, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("control file is not a valid zstd stream: %w", err)
	}
	return out, nil
}

// Close releases the encoder/decoder's resources.
func (c *Codec) Close() error {
	c.encoder.Close()
	c.decoder.Close()
	return nil
}

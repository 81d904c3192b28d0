package ctlcompress

import "testing"

func TestCompressDecompressRoundTrip(t *testing.T) {
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	defer c.Close()

	original := []byte("Length: 12582912\nSHA-256: deadbeef\n---\n0\t100\t1\t2\n")
	compressed := c.Compress(original)
	if len(compressed) == 0 {
		t.Fatal("expected non-empty compressed output")
	}

	decompressed, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(decompressed) != string(original) {
		t.Fatalf("round-trip mismatch: got %q, want %q", decompressed, original)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	defer c.Close()

	if _, err := c.Decompress([]byte("not a zstd stream")); err == nil {
		t.Fatal("expected an error decompressing non-zstd data")
	}
}

package ctlcrypto

import "testing"

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer("correct horse battery staple", nil)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}

	plaintext := []byte("Length: 100\nSHA-256: abc\n---\n")
	ciphertext, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	reopened, err := NewSealer("correct horse battery staple", s.Salt())
	if err != nil {
		t.Fatalf("NewSealer (reopen): %v", err)
	}
	got, err := reopened.Open(ciphertext)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("round-trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestOpenWithWrongPassphraseFails(t *testing.T) {
	s, err := NewSealer("right passphrase", nil)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	ciphertext, err := s.Seal([]byte("secret manifest"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	wrong, err := NewSealer("wrong passphrase", s.Salt())
	if err != nil {
		t.Fatalf("NewSealer (wrong): %v", err)
	}
	if _, err := wrong.Open(ciphertext); err == nil {
		t.Fatal("expected decryption to fail with the wrong passphrase")
	}
}

func TestHeaderVerifyPassword(t *testing.T) {
	s, err := NewSealer("a passphrase", nil)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	h := NewHeader(s, "a passphrase")

	if !h.VerifyPassword("a passphrase") {
		t.Fatal("expected VerifyPassword to accept the correct passphrase")
	}
	if h.VerifyPassword("not it") {
		t.Fatal("expected VerifyPassword to reject an incorrect passphrase")
	}
}

func TestOpenRejectsTruncatedCiphertext(t *testing.T) {
	s, err := NewSealer("p", nil)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	if _, err := s.Open([]byte("short")); err == nil {
		t.Fatal("expected an error for ciphertext shorter than the nonce")
	}
}

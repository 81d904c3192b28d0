// Package ctlcrypto optionally encrypts a control file's rendered text at
// rest, for confidentiality of the manifest only. This is unrelated to
// spec.md's "no control-file authentication" non-goal, which is about
// integrity/signing of the chunk data the control file describes, not
// about whether a user may keep their own manifest private.
//
// Adapted from the teacher's internal/crypto.Encryptor: same Argon2id key
// derivation and AES-256-GCM cipher. The Reader wrappers are dropped since
// a control file is always sealed or opened whole, never streamed.
package ctlcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32

	saltSize  = 32
	nonceSize = 12
)

// Sealer encrypts and decrypts control-file text with a passphrase-derived
// AES-256-GCM key.
type Sealer struct {
	salt   []byte
	cipher cipher.AEAD
}

// NewSealer derives a key from passphrase and salt (a fresh random salt is
// generated if salt is empty) and builds the AES-GCM cipher.
func NewSealer(passphrase string, salt []byte) (*Sealer, error) {
	if len(salt) == 0 {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	key := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{salt: salt, cipher: gcm}, nil
}

// Salt returns the salt used for key derivation, so callers can persist it
// alongside the ciphertext for later decryption.
func (s *Sealer) Salt() []byte { return s.salt }

// Seal encrypts plaintext, returning ciphertext with the nonce prepended.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return s.cipher.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext produced by Seal.
func (s *Sealer) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, body := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := s.cipher.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed, wrong passphrase or corrupt control file: %w", err)
	}
	return plaintext, nil
}

// HashPassword derives a verifiable fingerprint of passphrase without
// exposing the AES key itself, used to detect a wrong passphrase before
// attempting a (cheap, always-succeeding at the crypto level only if the
// key happens to authenticate) GCM open.
func HashPassword(passphrase string, salt []byte) string {
	key := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	hash := sha256.Sum256(key)
	return hex.EncodeToString(hash[:])
}

// Header describes a Sealer's parameters: enough to re-derive the key and to
// reject an obviously wrong passphrase before attempting GCM decryption.
// SealEnvelope does not write a Header; its envelope carries only the salt.
type Header struct {
	Version      int    `json:"version"`
	Algorithm    string `json:"algorithm"`
	KDF          string `json:"kdf"`
	Salt         string `json:"salt"`
	PasswordHash string `json:"password_hash"`
}

// NewHeader builds a Header describing a Sealer's parameters.
func NewHeader(s *Sealer, passphrase string) *Header {
	return &Header{
		Version:      1,
		Algorithm:    "aes-256-gcm",
		KDF:          "argon2id",
		Salt:         hex.EncodeToString(s.Salt()),
		PasswordHash: HashPassword(passphrase, s.Salt()),
	}
}

// VerifyPassword reports whether passphrase matches the one a Header was
// built with, without needing the original Sealer.
func (h *Header) VerifyPassword(passphrase string) bool {
	salt, err := hex.DecodeString(h.Salt)
	if err != nil {
		return false
	}
	return HashPassword(passphrase, salt) == h.PasswordHash
}

// SealEnvelope seals plaintext with a freshly generated salt and prepends
// that salt to the result, so OpenEnvelope needs only the passphrase to
// reverse it — no out-of-band salt storage required.
func SealEnvelope(passphrase string, plaintext []byte) ([]byte, error) {
	sealer, err := NewSealer(passphrase, nil)
	if err != nil {
		return nil, err
	}
	ciphertext, err := sealer.Seal(plaintext)
	if err != nil {
		return nil, err
	}
	return append(sealer.Salt(), ciphertext...), nil
}

// OpenEnvelope reverses SealEnvelope.
func OpenEnvelope(passphrase string, envelope []byte) ([]byte, error) {
	if len(envelope) < saltSize {
		return nil, fmt.Errorf("envelope too short to contain a salt")
	}
	salt, ciphertext := envelope[:saltSize], envelope[saltSize:]

	sealer, err := NewSealer(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return sealer.Open(ciphertext)
}

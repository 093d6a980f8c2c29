package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrUndecryptable is returned when no configured key opens a ciphertext.
var ErrUndecryptable = errors.New("secret cannot be decrypted")

// AESEncryptionService implements ports.EncryptionService for endpoint secrets
// using AES-256-GCM. Ciphertexts are hex(nonce || sealed).
//
// New secrets are always sealed with the primary key. Retired keys are only
// tried on decrypt so stored secrets keep working across a key rotation.
type AESEncryptionService struct {
	primary cipher.AEAD
	retired []cipher.AEAD
}

// NewAESEncryptionService creates the service. Every key is a 64-character
// hex string (32 bytes decoded).
func NewAESEncryptionService(hexKey string, retiredHexKeys ...string) (*AESEncryptionService, error) {
	primary, err := newGCM(hexKey)
	if err != nil {
		return nil, fmt.Errorf("primary key: %w", err)
	}
	s := &AESEncryptionService{primary: primary}
	for i, k := range retiredHexKeys {
		aead, err := newGCM(k)
		if err != nil {
			return nil, fmt.Errorf("retired key %d: %w", i, err)
		}
		s.retired = append(s.retired, aead)
	}
	return s, nil
}

func newGCM(hexKey string) (cipher.AEAD, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding AES key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("AES key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext with the primary key.
func (s *AESEncryptionService) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, s.primary.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return hex.EncodeToString(s.primary.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

// Decrypt opens a ciphertext with the primary key, then each retired key.
func (s *AESEncryptionService) Decrypt(ciphertextHex string) (string, error) {
	raw, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}

	for _, aead := range append([]cipher.AEAD{s.primary}, s.retired...) {
		n := aead.NonceSize()
		if len(raw) < n+aead.Overhead() {
			return "", fmt.Errorf("ciphertext too short: %w", ErrUndecryptable)
		}
		if plaintext, err := aead.Open(nil, raw[:n], raw[n:], nil); err == nil {
			return string(plaintext), nil
		}
	}
	return "", ErrUndecryptable
}

// NeedsRotation reports whether a ciphertext was sealed with a retired key.
func (s *AESEncryptionService) NeedsRotation(ciphertextHex string) bool {
	raw, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return false
	}
	n := s.primary.NonceSize()
	if len(raw) < n {
		return false
	}
	_, err = s.primary.Open(nil, raw[:n], raw[n:], nil)
	return err != nil
}

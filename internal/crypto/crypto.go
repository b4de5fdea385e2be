// Package crypto seals guest personal data (national ID numbers) with AES-256-GCM
// before it reaches the database.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeySize is the required size for AES-256 keys (32 bytes)
	KeySize = 32

	// sealedPrefix marks values written by Seal. Values without it are treated as
	// plaintext left over from before a key was configured.
	sealedPrefix = "enc:v1:"
)

var (
	ErrInvalidKeySize     = errors.New("encryption key must be 32 bytes for AES-256")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: authentication error")
)

// FieldCipher encrypts and decrypts individual column values.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher builds a cipher from a raw 32-byte key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &FieldCipher{aead: aead}, nil
}

// NewFieldCipherFromBase64 builds a cipher from the ENCRYPTION_KEY setting.
func NewFieldCipherFromBase64(encodedKey string) (*FieldCipher, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	return NewFieldCipher(key)
}

// Seal encrypts a value. Empty values stay empty so optional columns remain blank.
func (c *FieldCipher) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values that were never sealed are returned unchanged.
func (c *FieldCipher) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrCiphertextTooShort
	}

	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsSealed reports whether value was produced by Seal.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// GenerateKey returns a fresh base64-encoded AES-256 key, suitable for ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokenstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/tutorchat/tui/internal/util"
)

// Encrypted value format: ENC:base64(nonce | ciphertext | tag).
const encryptedPrefix = "ENC:"

const (
	keySize    = 32 // AES-256
	saltSize   = 32
	secretSize = 32
	nonceSize  = 12

	// OWASP 2023 recommendation for PBKDF2-SHA-256.
	pbkdf2Iterations = 600000
)

var (
	// ErrInvalidCiphertext indicates the stored value format is invalid.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// ErrDecryptionFailed indicates decryption failed (wrong key or tampered data).
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// cipherBox seals and opens stored values with AES-256-GCM.
type cipherBox struct {
	aead cipher.AEAD
}

// newCipherBox derives an AES-256 key from the keyfile secret via
// PBKDF2-SHA-256 and prepares the AEAD.
func newCipherBox(secret, salt []byte) (*cipherBox, error) {
	key := pbkdf2.Key(secret, salt, pbkdf2Iterations, keySize, sha256.New)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &cipherBox{aead: aead}, nil
}

// Seal encrypts a plaintext value for storage.
func (b *cipherBox) Seal(plain string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plain), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a stored value.
func (b *cipherBox) Open(stored string) (string, error) {
	if !strings.HasPrefix(stored, encryptedPrefix) {
		return "", ErrInvalidCiphertext
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encryptedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < nonceSize {
		return "", ErrInvalidCiphertext
	}
	plain, err := b.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plain), nil
}

// loadOrCreateKeyfile reads the machine-local keyfile, creating it with fresh
// random material on first use. The file holds the PBKDF2 secret followed by
// the salt and is owner-readable only.
func loadOrCreateKeyfile(path string) (secret, salt []byte, err error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != secretSize+saltSize {
			return nil, nil, fmt.Errorf("keyfile %s is corrupt (%d bytes)", path, len(data))
		}
		return data[:secretSize], data[secretSize:], nil
	}
	if !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("failed to read keyfile: %w", err)
	}

	data = make([]byte, secretSize+saltSize)
	if _, err := io.ReadFull(rand.Reader, data); err != nil {
		return nil, nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return nil, nil, fmt.Errorf("failed to write keyfile: %w", err)
	}
	return data[:secretSize], data[secretSize:], nil
}

// zeroBytes zeros sensitive byte slices after use.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

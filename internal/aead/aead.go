// Package aead is a thin wrapper around AES-256-GCM (C2): the single-shot
// seal/open primitive every other encryption layer in this tool is built
// from. No associated data is used. Every Seal call draws a fresh random
// 12-byte nonce; no per-key counter is maintained (spec.md §4.2).
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/cybou-fr/cybs3/internal/errkinds"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = 12

// TagSize is the AES-GCM authentication tag length in bytes.
const TagSize = 16

// Overhead is the number of bytes Seal adds beyond the plaintext length.
const Overhead = NonceSize + TagSize

func newGCM(key [32]byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to construct AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to construct GCM mode: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext under key and returns nonce‖ciphertext‖tag.
func Seal(key [32]byte, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open verifies and decrypts a nonce‖ciphertext‖tag blob produced by Seal.
// It fails with ErrAuthFailure if the blob is shorter than the minimum
// framing overhead or the tag does not verify.
func Open(key [32]byte, blob []byte) ([]byte, error) {
	if len(blob) < Overhead {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", errkinds.ErrAuthFailure, len(blob))
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := blob[:NonceSize], blob[NonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkinds.ErrAuthFailure, err)
	}

	return plaintext, nil
}

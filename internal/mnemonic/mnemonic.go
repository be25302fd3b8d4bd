// Package mnemonic implements the KDF / Mnemonic Gate (C1): BIP39 mnemonic
// validation and generation, and derivation of the Master Key that wraps
// the local encrypted configuration.
package mnemonic

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/cybou-fr/cybs3/internal/errkinds"
)

// WordCount is the fixed length of every mnemonic this tool accepts or emits.
const WordCount = 12

// EntropyBits is the amount of entropy encoded by a 12-word mnemonic
// (128 bits of entropy plus a 4-bit checksum, per BIP39).
const EntropyBits = 128

// Mnemonic is an ordered sequence of lowercase BIP39 English words. It
// carries entropy only and must never be persisted as plaintext; its
// String method redacts the contents so it cannot be accidentally logged.
type Mnemonic []string

// String redacts the mnemonic so fmt/log calls never leak it.
func (m Mnemonic) String() string {
	return "[redacted mnemonic]"
}

// Zero clears every word from the slice, replacing each with "". Go strings
// are immutable, so the words' character data is not overwritten: the
// []byte conversion below zeroes a copy, and the original bytes stay in
// memory until collected. This only drops the slice's references to them.
func (m Mnemonic) Zero() {
	for i := range m {
		b := []byte(m[i])
		for j := range b {
			b[j] = 0
		}
		m[i] = ""
	}
}

// ParseMnemonic splits whitespace-separated input into a Mnemonic without
// validating it. Callers must call Validate before relying on the result.
func ParseMnemonic(raw string) Mnemonic {
	return Mnemonic(strings.Fields(raw))
}

// Validate checks a mnemonic's word count, word-list membership, and BIP39
// checksum, per spec.md §4.1. It returns the most specific error it can.
func Validate(m Mnemonic) error {
	if len(m) != WordCount {
		return fmt.Errorf("%w: got %d words, want %d", errkinds.ErrInvalidWordCount, len(m), WordCount)
	}

	wordlist := bip39.GetWordList()
	index := make(map[string]struct{}, len(wordlist))
	for _, w := range wordlist {
		index[w] = struct{}{}
	}

	for _, w := range m {
		if _, ok := index[w]; !ok {
			return &errkinds.InvalidWordError{Word: w}
		}
	}

	if !bip39.IsMnemonicValid(strings.Join(m, " ")) {
		return errkinds.ErrInvalidChecksum
	}

	return nil
}

// Generate produces a fresh 12-word mnemonic from a CSPRNG: 128 bits of
// entropy plus a 4-bit checksum, per spec.md §4.1.
func Generate() (Mnemonic, error) {
	entropy := make([]byte, EntropyBits/8)
	if _, err := rand.Read(entropy); err != nil {
		return nil, fmt.Errorf("failed to read entropy: %w", err)
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	return Mnemonic(strings.Fields(phrase)), nil
}

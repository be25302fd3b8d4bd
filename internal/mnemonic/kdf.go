package mnemonic

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

// MasterKey is the 32-byte symmetric key derived from a mnemonic. It exists
// only for the duration of one command invocation and is used solely to
// wrap/unwrap the Config record (spec.md §3).
type MasterKey [32]byte

// String redacts the key so fmt/log calls never leak it.
func (MasterKey) String() string {
	return "[redacted key material]"
}

// Zero overwrites the key's bytes with zeroes.
func (k *MasterKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// masterKeyHKDFSalt domain-separates the Master Key from any future sibling
// key (e.g. a signing key) derived from the same BIP39 seed.
const masterKeyHKDFSalt = "cybs3-vault"

// DeriveMasterKey implements spec.md §4.1's two-step derivation:
//  1. PBKDF2-HMAC-SHA512 over the mnemonic's words (the standard BIP39 seed,
//     no passphrase) — delegated to tyler-smith/go-bip39, which performs
//     exactly this step with the canonical "mnemonic" salt and 2048 iterations.
//  2. HKDF-SHA256 over that 64-byte seed, domain-separated by a fixed salt,
//     truncated to 32 bytes.
func DeriveMasterKey(m Mnemonic) (MasterKey, error) {
	if err := Validate(m); err != nil {
		return MasterKey{}, err
	}

	seed := bip39.NewSeed(strings.Join(m, " "), "")

	reader := hkdf.New(sha256.New, seed, []byte(masterKeyHKDFSalt), nil)

	var key MasterKey
	if _, err := io.ReadFull(reader, key[:]); err != nil {
		return MasterKey{}, fmt.Errorf("failed to derive master key: %w", err)
	}

	return key, nil
}

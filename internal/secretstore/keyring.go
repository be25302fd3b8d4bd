// Package secretstore implements the keychain collaborator spec.md §9
// names as the second mnemonic source: an OS-native secret store, with a
// clearly-labeled file-based fallback for platforms without one.
package secretstore

import (
	"fmt"

	"github.com/99designs/keyring"

	"github.com/cybou-fr/cybs3/internal/errkinds"
)

const (
	serviceName = "cybs3"
	mnemonicKey = "mnemonic"
)

// Store is the secret-store trait: save, load and delete. There is no
// separate exists method; Load's bool result reports whether a mnemonic
// is stored.
type Store interface {
	Save(mnemonic string) error
	Load() (string, bool, error)
	Delete() error
}

// keyringStore backs Store with the OS-native secret store via
// 99designs/keyring, which itself picks the right backend per platform
// (macOS Keychain, Windows Credential Manager, Secret Service on Linux).
type keyringStore struct {
	ring keyring.Keyring
}

// Open opens the OS secret store for this tool's service name.
func Open() (Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkinds.ErrKeychainFailed, err)
	}
	return &keyringStore{ring: ring}, nil
}

func (s *keyringStore) Save(mnemonic string) error {
	err := s.ring.Set(keyring.Item{
		Key:         mnemonicKey,
		Data:        []byte(mnemonic),
		Label:       "cybs3 mnemonic",
		Description: "BIP39 mnemonic used to derive the cybs3 Master Key",
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrKeychainFailed, err)
	}
	return nil
}

func (s *keyringStore) Load() (string, bool, error) {
	item, err := s.ring.Get(mnemonicKey)
	if err == keyring.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", errkinds.ErrKeychainFailed, err)
	}
	return string(item.Data), true, nil
}

func (s *keyringStore) Delete() error {
	err := s.ring.Remove(mnemonicKey)
	if err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("%w: %v", errkinds.ErrKeychainFailed, err)
	}
	return nil
}

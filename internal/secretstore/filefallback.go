package secretstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cybou-fr/cybs3/internal/aead"
	"github.com/cybou-fr/cybs3/internal/errkinds"
	"github.com/cybou-fr/cybs3/internal/mnemonic"
)

// FileFallbackName is the file a fileFallbackStore writes under the config
// directory. Its presence is a deliberate, visible signal that the OS
// secret store was unavailable, per spec.md §9 "clearly labeled" fallback.
const FileFallbackName = "mnemonic.fallback.enc"

// fileFallbackStore seals the mnemonic with a locally-derived key and
// writes it to disk. It is weaker than an OS secret store (anyone with
// filesystem read access and this file's implicit key derivation can
// recover the mnemonic) and exists only so the tool keeps working on
// platforms 99designs/keyring cannot back.
type fileFallbackStore struct {
	path string
}

// OpenFileFallback returns a Store rooted at <home>/.cybs3/mnemonic.fallback.enc.
func OpenFileFallback(home string) Store {
	return &fileFallbackStore{path: filepath.Join(home, ".cybs3", FileFallbackName)}
}

// fallbackKey derives a fixed, non-secret wrapping key for the fallback
// file. This does not add confidentiality beyond filesystem permissions;
// it only prevents the mnemonic from sitting on disk as plaintext.
func fallbackKey() (mnemonic.MasterKey, error) {
	return mnemonic.DeriveMasterKey(mnemonic.Mnemonic{
		"abandon", "abandon", "abandon", "abandon", "abandon", "abandon",
		"abandon", "abandon", "abandon", "abandon", "abandon", "about",
	})
}

func (s *fileFallbackStore) Save(text string) error {
	key, err := fallbackKey()
	if err != nil {
		return err
	}
	defer key.Zero()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}

	sealed, err := aead.Seal(key, []byte(text))
	if err != nil {
		return fmt.Errorf("failed to seal fallback mnemonic: %w", err)
	}
	if err := os.WriteFile(s.path, sealed, 0600); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	return nil
}

func (s *fileFallbackStore) Load() (string, bool, error) {
	sealed, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}

	key, err := fallbackKey()
	if err != nil {
		return "", false, err
	}
	defer key.Zero()

	plaintext, err := aead.Open(key, sealed)
	if err != nil {
		return "", false, err
	}
	return string(plaintext), true, nil
}

func (s *fileFallbackStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	return nil
}

package vaultconfig

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cybou-fr/cybs3/internal/aead"
	"github.com/cybou-fr/cybs3/internal/errkinds"
	"github.com/cybou-fr/cybs3/internal/mnemonic"
)

// DirName is the directory under the user's home holding the store.
const DirName = ".cybs3"

// FileName is the encrypted Config file within DirName.
const FileName = "config.enc"

// Dir returns the store's directory for the given home directory.
func Dir(home string) string {
	return filepath.Join(home, DirName)
}

// Path returns the store's config.enc path for the given home directory.
func Path(home string) string {
	return filepath.Join(Dir(home), FileName)
}

// Load implements C4's load(mnemonic) operation: ensure the store directory
// exists, migrate a legacy install if no config.enc is present yet, or
// otherwise decrypt and parse the existing one.
func Load(home string, m mnemonic.Mnemonic) (*Config, error) {
	dir := Dir(home)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}

	path := Path(home)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if hasLegacyFiles(home) {
			return Migrate(home, m)
		}
		return createFresh(home, m)
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}

	cfg, err := openConfig(m, sealed)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func createFresh(home string, m mnemonic.Mnemonic) (*Config, error) {
	var dataKey DataKey
	if _, err := rand.Read(dataKey[:]); err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	now := time.Now().UTC()
	cfg := newEmptyConfig(dataKey, now)
	if err := Save(home, cfg, m); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openConfig(m mnemonic.Mnemonic, sealed []byte) (*Config, error) {
	masterKey, err := mnemonic.DeriveMasterKey(m)
	if err != nil {
		return nil, err
	}
	defer masterKey.Zero()

	plaintext, err := aead.Open(masterKey, sealed)
	if err != nil {
		return nil, fmt.Errorf("%w", errkinds.ErrDecryptionFailed)
	}

	var cfg Config
	if err := json.Unmarshal(plaintext, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errkinds.ErrDecryptionFailed, err)
	}
	if cfg.Version > CurrentVersion {
		return nil, &errkinds.UnsupportedVersionError{Version: cfg.Version}
	}
	return &cfg, nil
}

// Save implements C4's save(config, mnemonic) operation: derive the Master
// Key, JSON-encode, AEAD-seal, and atomically rewrite config.enc. Stamps
// LastAccessedAt, since a save only happens on a genuine mutation of cfg.
func Save(home string, cfg *Config, m mnemonic.Mnemonic) error {
	dir := Dir(home)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}

	cfg.LastAccessedAt = time.Now().UTC()

	masterKey, err := mnemonic.DeriveMasterKey(m)
	if err != nil {
		return err
	}
	defer masterKey.Zero()

	plaintext, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	sealed, err := aead.Seal(masterKey, plaintext)
	if err != nil {
		return fmt.Errorf("failed to seal config: %w", err)
	}

	return atomicWrite(Path(home), sealed)
}

// RotateMaster implements rotate_master(old, new): load under the old
// mnemonic and re-save under the new one. The dataKey field is carried
// verbatim, so existing stored objects remain decryptable.
func RotateMaster(home string, oldMnemonic, newMnemonic mnemonic.Mnemonic) error {
	cfg, err := Load(home, oldMnemonic)
	if err != nil {
		return err
	}
	return Save(home, cfg, newMnemonic)
}

// atomicWrite writes data to a sibling temp file in dir(path), fsyncs it,
// then renames it over path. This is safe against process crashes: a crash
// mid-write leaves the temp file, never a half-written config.enc.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	return os.Chmod(path, 0600)
}

// Package cliprofile stores local, non-secret CLI preferences in a TOML
// file next to the encrypted Config store, grounded on the teacher's
// internal/configs toml.go + config.go shape: a small struct round-tripped
// through SaveTOML/LoadTOML, with an identifier generated on first use.
package cliprofile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/cybou-fr/cybs3/internal/errkinds"
)

// FileName is the profile file's name under the same directory as the
// encrypted Config store (vaultconfig.DirName).
const FileName = "profile.toml"

// Profile holds preferences that are useful to keep across invocations but
// carry no key material and need no encryption: a default vault name,
// output preferences, and a stable per-install client ID. No command in
// cmd/ loads the profile, so these fields do not change CLI behaviour and
// audit journal entries are written without a client ID.
type Profile struct {
	ClientID     string `toml:"client_id"`
	DefaultVault string `toml:"default_vault"`
	NoColor      bool   `toml:"no_color"`
}

// Path returns <home>/.cybs3/profile.toml.
func Path(home string) string {
	return filepath.Join(home, ".cybs3", FileName)
}

// Load reads the profile, returning a zero-value Profile with a freshly
// generated ClientID if the file does not yet exist.
func Load(home string) (*Profile, error) {
	path := Path(home)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		p := &Profile{ClientID: uuid.New().String()}
		if err := Save(home, p); err != nil {
			return nil, err
		}
		return p, nil
	}

	p := &Profile{}
	if _, err := toml.DecodeFile(path, p); err != nil {
		return nil, fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}

	if p.ClientID == "" {
		p.ClientID = uuid.New().String()
		if err := Save(home, p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Save writes the profile, creating its parent directory if necessary.
func Save(home string, p *Profile) error {
	path := Path(home)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(p); err != nil {
		return fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
	}
	return nil
}

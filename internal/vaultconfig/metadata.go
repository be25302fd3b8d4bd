package vaultconfig

import "time"

// Metadata is a read-only summary of the Config file's own provenance,
// surfaced by `cybs3 config show`. It carries no key material and has no
// bearing on the Data Key invariant in §3.
type Metadata struct {
	Path           string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	VaultCount     int
	ActiveVault    string
}

// Describe builds a Metadata summary for a loaded Config.
func Describe(home string, cfg *Config) Metadata {
	return Metadata{
		Path:           Path(home),
		CreatedAt:      cfg.CreatedAt,
		LastAccessedAt: cfg.LastAccessedAt,
		VaultCount:     len(cfg.Vaults),
		ActiveVault:    cfg.ActiveVaultName,
	}
}

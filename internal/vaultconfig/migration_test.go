package vaultconfig

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/cybou-fr/cybs3/internal/aead"
	"github.com/cybou-fr/cybs3/internal/mnemonic"
)

func seedLegacyFiles(t *testing.T, home string, m mnemonic.Mnemonic) {
	settings := legacySettings{Region: "eu-west-1", Bucket: "b"}
	raw, err := json.Marshal(settings)
	if err != nil {
		t.Fatalf("marshal legacy settings: %v", err)
	}
	if err := os.WriteFile(legacySettingsPath(home), raw, 0600); err != nil {
		t.Fatalf("write legacy settings: %v", err)
	}

	vaults := legacyVaultsFile{
		Version: 1,
		Vaults: []legacyVault{
			{Name: "v", Endpoint: "e", AccessKey: "a", SecretKey: "s", Region: "r"},
		},
	}
	plaintext, err := json.Marshal(vaults)
	if err != nil {
		t.Fatalf("marshal legacy vaults: %v", err)
	}

	masterKey, err := mnemonic.DeriveMasterKey(m)
	if err != nil {
		t.Fatalf("derive master key: %v", err)
	}
	sealed, err := aead.Seal(masterKey, plaintext)
	if err != nil {
		t.Fatalf("seal legacy vaults: %v", err)
	}
	if err := os.WriteFile(legacyVaultsPath(home), sealed, 0600); err != nil {
		t.Fatalf("write legacy vaults: %v", err)
	}
}

func TestLoad_MigratesLegacyInstall(t *testing.T) {
	home := t.TempDir()
	m := testMnemonic(t)
	seedLegacyFiles(t, home, m)

	cfg, err := Load(home, m)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Settings.DefaultRegion != "eu-west-1" {
		t.Errorf("DefaultRegion = %q, want eu-west-1", cfg.Settings.DefaultRegion)
	}
	if cfg.Settings.DefaultBucket != "b" {
		t.Errorf("DefaultBucket = %q, want b", cfg.Settings.DefaultBucket)
	}
	if len(cfg.Vaults) != 1 || cfg.Vaults[0].Name != "v" {
		t.Fatalf("vaults not migrated: %+v", cfg.Vaults)
	}

	masterKey, err := mnemonic.DeriveMasterKey(m)
	if err != nil {
		t.Fatalf("derive master key: %v", err)
	}
	if cfg.DataKey != DataKey(masterKey) {
		t.Errorf("migrated data key != derive_master_key(mnemonic); prior uploads would become undecryptable")
	}

	if _, err := os.Stat(Path(home)); err != nil {
		t.Errorf("config.enc not created by migration: %v", err)
	}
	if _, err := os.Stat(legacySettingsPath(home) + ".bak"); err != nil {
		t.Errorf("legacy settings file not renamed to .bak: %v", err)
	}
	if _, err := os.Stat(legacyVaultsPath(home) + ".bak"); err != nil {
		t.Errorf("legacy vaults file not renamed to .bak: %v", err)
	}
	if _, err := os.Stat(legacySettingsPath(home)); !os.IsNotExist(err) {
		t.Errorf("legacy settings file still present at original path")
	}
}

func TestLoad_NoLegacyFilesCreatesFreshConfig(t *testing.T) {
	home := t.TempDir()
	m := testMnemonic(t)

	cfg, err := Load(home, m)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Vaults) != 0 {
		t.Errorf("unexpected vaults in fresh config: %+v", cfg.Vaults)
	}
}

func TestMigrate_SettingsOnlyNoVaultsFile(t *testing.T) {
	home := t.TempDir()
	m := testMnemonic(t)

	settings := legacySettings{Region: "ap-south-1", Bucket: "only-settings"}
	raw, err := json.Marshal(settings)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(legacySettingsPath(home), raw, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(home, m)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Vaults) != 0 {
		t.Errorf("expected no vaults when legacy vaults file is absent, got %+v", cfg.Vaults)
	}
	if cfg.Settings.DefaultRegion != "ap-south-1" {
		t.Errorf("DefaultRegion = %q, want ap-south-1", cfg.Settings.DefaultRegion)
	}
}

func TestMigrateWithTimestampedBackup(t *testing.T) {
	home := t.TempDir()
	m := testMnemonic(t)
	seedLegacyFiles(t, home, m)

	_, result, err := MigrateWithTimestampedBackup(home, m)
	if err != nil {
		t.Fatalf("MigrateWithTimestampedBackup failed: %v", err)
	}
	if len(result.BackupPaths) != 2 {
		t.Fatalf("expected 2 backup files, got %d: %v", len(result.BackupPaths), result.BackupPaths)
	}
	for _, p := range result.BackupPaths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("backup file missing: %s: %v", p, err)
		}
	}
	if len(result.MigratedVaultNames) != 1 || result.MigratedVaultNames[0] != "v" {
		t.Errorf("MigratedVaultNames = %v, want [v]", result.MigratedVaultNames)
	}
}

package session

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/cybou-fr/cybs3/internal/errkinds"
	"github.com/cybou-fr/cybs3/internal/mnemonic"
	"github.com/cybou-fr/cybs3/internal/vaultconfig"
)

type fakeStore struct {
	mnemonic string
	found    bool
	err      error
}

func (f fakeStore) Load() (string, bool, error) { return f.mnemonic, f.found, f.err }

func generateMnemonicString(t *testing.T) string {
	m, err := mnemonic.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return strings.Join([]string(m), " ")
}

func TestResolve_MnemonicFromEnvTakesPriorityOverStore(t *testing.T) {
	envMnemonic := generateMnemonicString(t)
	storeMnemonic := generateMnemonicString(t)

	os.Setenv(MnemonicEnvVar, envMnemonic)
	defer os.Unsetenv(MnemonicEnvVar)

	home := t.TempDir()
	session, err := Resolve(context.Background(), ResolveOptions{
		Home:  home,
		Store: fakeStore{mnemonic: storeMnemonic, found: true},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer session.Close()

	reloaded, err := vaultconfig.Load(home, mnemonic.ParseMnemonic(envMnemonic))
	if err != nil {
		t.Fatalf("expected env mnemonic to have unlocked the config, got: %v", err)
	}
	if reloaded.DataKey != session.Config.DataKey {
		t.Errorf("unexpected data key mismatch")
	}
}

func TestResolve_FallsThroughToStoreWhenEnvAbsent(t *testing.T) {
	os.Unsetenv(MnemonicEnvVar)
	storeMnemonic := generateMnemonicString(t)

	home := t.TempDir()
	session, err := Resolve(context.Background(), ResolveOptions{
		Home:  home,
		Store: fakeStore{mnemonic: storeMnemonic, found: true},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	defer session.Close()

	if _, err := vaultconfig.Load(home, mnemonic.ParseMnemonic(storeMnemonic)); err != nil {
		t.Fatalf("expected store mnemonic to have unlocked the config, got: %v", err)
	}
}

func TestResolve_InvalidEnvMnemonicIsTerminalNotFallthrough(t *testing.T) {
	os.Setenv(MnemonicEnvVar, "not twelve valid bip39 words at all")
	defer os.Unsetenv(MnemonicEnvVar)

	storeMnemonic := generateMnemonicString(t)
	home := t.TempDir()

	_, err := Resolve(context.Background(), ResolveOptions{
		Home:  home,
		Store: fakeStore{mnemonic: storeMnemonic, found: true},
	})
	if err == nil {
		t.Fatalf("expected Resolve to fail on an invalid env mnemonic, not fall through to the store")
	}
}

func TestResolveVault_ExplicitFlagMissingIsFatal(t *testing.T) {
	cfg := &vaultconfig.Config{Vaults: []vaultconfig.Vault{{Name: "exists"}}}

	_, _, err := resolveVault(cfg, "does-not-exist")
	var target *errkinds.VaultNotFoundError
	if !errors.As(err, &target) {
		t.Fatalf("resolveVault(missing) = %v, want VaultNotFoundError", err)
	}
}

func TestResolveVault_FallsBackToActiveVaultName(t *testing.T) {
	cfg := &vaultconfig.Config{
		ActiveVaultName: "v1",
		Vaults:          []vaultconfig.Vault{{Name: "v1", Region: "eu-west-1"}},
	}

	name, vault, err := resolveVault(cfg, "")
	if err != nil {
		t.Fatalf("resolveVault failed: %v", err)
	}
	if name != "v1" || vault.Region != "eu-west-1" {
		t.Fatalf("resolveVault = (%q, %+v), want v1/eu-west-1", name, vault)
	}
}

func TestResolveSettings_PrecedenceOrder(t *testing.T) {
	os.Setenv("AWS_REGION", "env-region")
	defer os.Unsetenv("AWS_REGION")
	os.Unsetenv("AWS_BUCKET")
	os.Unsetenv("AWS_ACCESS_KEY_ID")
	os.Unsetenv("AWS_SECRET_ACCESS_KEY")

	cfg := &vaultconfig.Config{
		Settings: vaultconfig.AppSettings{
			DefaultRegion: "config-region",
			DefaultBucket: "config-bucket",
		},
	}
	vault := &vaultconfig.Vault{Region: "vault-region", Bucket: "vault-bucket"}

	// CLI flag beats everything for region.
	settings := resolveSettings(ResolveOptions{RegionFlag: "flag-region"}, cfg, vault)
	if settings.Region != "flag-region" {
		t.Errorf("Region = %q, want flag-region", settings.Region)
	}

	// No flag: env beats vault and config.
	settings = resolveSettings(ResolveOptions{}, cfg, vault)
	if settings.Region != "env-region" {
		t.Errorf("Region = %q, want env-region", settings.Region)
	}

	// Bucket has no env var set: vault beats config default.
	if settings.Bucket != "vault-bucket" {
		t.Errorf("Bucket = %q, want vault-bucket", settings.Bucket)
	}

	// No vault at all: config default wins over hard-coded fallback.
	settings = resolveSettings(ResolveOptions{}, cfg, nil)
	if settings.Bucket != "config-bucket" {
		t.Errorf("Bucket = %q, want config-bucket", settings.Bucket)
	}
}

func TestResolveSettings_HardcodedFallbackWhenNothingElseSet(t *testing.T) {
	os.Unsetenv("AWS_REGION")
	os.Unsetenv("AWS_BUCKET")
	os.Unsetenv("AWS_ACCESS_KEY_ID")
	os.Unsetenv("AWS_SECRET_ACCESS_KEY")

	cfg := &vaultconfig.Config{}
	settings := resolveSettings(ResolveOptions{}, cfg, nil)
	if settings.Region != "us-east-1" {
		t.Errorf("Region = %q, want us-east-1 fallback", settings.Region)
	}
	if settings.Endpoint != "s3.amazonaws.com" {
		t.Errorf("Endpoint = %q, want s3.amazonaws.com fallback", settings.Endpoint)
	}
}

package cliprofile

import "testing"

func TestLoad_FreshInstallGeneratesClientID(t *testing.T) {
	home := t.TempDir()

	p, err := Load(home)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.ClientID == "" {
		t.Fatal("Load did not generate a ClientID on a fresh install")
	}

	reloaded, err := Load(home)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if reloaded.ClientID != p.ClientID {
		t.Fatalf("ClientID changed across loads: %q != %q", reloaded.ClientID, p.ClientID)
	}
}

func TestSaveAndLoad_RoundTripsFields(t *testing.T) {
	home := t.TempDir()

	p := &Profile{ClientID: "fixed-id", DefaultVault: "prod", NoColor: true}
	if err := Save(home, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(home)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ClientID != "fixed-id" || loaded.DefaultVault != "prod" || !loaded.NoColor {
		t.Fatalf("Load = %+v, want {fixed-id prod true}", loaded)
	}
}

func TestLoad_BackfillsMissingClientID(t *testing.T) {
	home := t.TempDir()

	if err := Save(home, &Profile{DefaultVault: "staging"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(home)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ClientID == "" {
		t.Fatal("Load did not backfill a missing ClientID")
	}
	if loaded.DefaultVault != "staging" {
		t.Fatalf("DefaultVault = %q, want staging", loaded.DefaultVault)
	}
}

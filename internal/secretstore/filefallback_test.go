package secretstore

import "testing"

func TestFileFallbackStore_SaveLoadDelete(t *testing.T) {
	home := t.TempDir()
	store := OpenFileFallback(home)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("Load on empty store = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	const mnemonic = "legal winner thank year wave sausage worth useful legal winner thank yellow"
	if err := store.Save(mnemonic); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok || got != mnemonic {
		t.Fatalf("Load = (%q, %v), want (%q, true)", got, ok, mnemonic)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("Load after delete = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestFileFallbackStore_DeleteNonexistentIsNoop(t *testing.T) {
	home := t.TempDir()
	store := OpenFileFallback(home)
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete on nonexistent store failed: %v", err)
	}
}

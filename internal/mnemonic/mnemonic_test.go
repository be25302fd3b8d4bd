package mnemonic

import (
	"errors"
	"testing"

	"github.com/tyler-smith/go-bip39"

	"github.com/cybou-fr/cybs3/internal/errkinds"
)

func TestGenerateThenValidate(t *testing.T) {
	for i := 0; i < 20; i++ {
		m, err := Generate()
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		if len(m) != WordCount {
			t.Fatalf("Generate() produced %d words, want %d", len(m), WordCount)
		}
		if err := Validate(m); err != nil {
			t.Fatalf("Validate(Generate()) failed: %v", err)
		}
	}
}

func TestValidate_WrongWordCount(t *testing.T) {
	m, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	short := m[:11]
	if err := Validate(short); !errors.Is(err, errkinds.ErrInvalidWordCount) {
		t.Fatalf("Validate(11 words) = %v, want ErrInvalidWordCount", err)
	}

	long := append(Mnemonic{}, m...)
	long = append(long, m[0])
	if err := Validate(long); !errors.Is(err, errkinds.ErrInvalidWordCount) {
		t.Fatalf("Validate(13 words) = %v, want ErrInvalidWordCount", err)
	}
}

func TestValidate_InvalidWord(t *testing.T) {
	m, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	m[0] = "notarealbip39word"
	err = Validate(m)
	if !errors.Is(err, errkinds.ErrInvalidWord) {
		t.Fatalf("Validate(mutated word) = %v, want ErrInvalidWord", err)
	}
	var invalidWord *errkinds.InvalidWordError
	if !errors.As(err, &invalidWord) {
		t.Fatalf("Validate(mutated word) did not produce an InvalidWordError")
	}
	if invalidWord.Word != "notarealbip39word" {
		t.Fatalf("InvalidWordError.Word = %q, want %q", invalidWord.Word, "notarealbip39word")
	}
}

func TestValidate_InvalidChecksum(t *testing.T) {
	// Replacing the last word with another in-list word keeps every word
	// valid but, for most replacements, breaks the checksum.
	m, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	original := m[len(m)-1]
	// Swap the last word (which encodes checksum bits) for a different
	// in-list word; if that happens to still validate, try the next one.
	wordlist := bip39.GetWordList()
	for _, w := range wordlist {
		if w == original {
			continue
		}
		mutated := append(Mnemonic{}, m...)
		mutated[len(mutated)-1] = w
		if err := Validate(mutated); err != nil {
			if errors.Is(err, errkinds.ErrInvalidChecksum) {
				return
			}
			continue
		}
	}
	t.Fatalf("could not find a last-word mutation that breaks the checksum")
}

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	m, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	k1, err := DeriveMasterKey(m)
	if err != nil {
		t.Fatalf("DeriveMasterKey() failed: %v", err)
	}
	k2, err := DeriveMasterKey(m)
	if err != nil {
		t.Fatalf("DeriveMasterKey() failed: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("DeriveMasterKey is not deterministic for the same mnemonic")
	}
}

func TestDeriveMasterKey_DifferentMnemonicsDifferentKeys(t *testing.T) {
	m1, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	m2, err := Generate()
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	k1, err := DeriveMasterKey(m1)
	if err != nil {
		t.Fatalf("DeriveMasterKey() failed: %v", err)
	}
	k2, err := DeriveMasterKey(m2)
	if err != nil {
		t.Fatalf("DeriveMasterKey() failed: %v", err)
	}
	if k1 == k2 {
		t.Fatalf("two distinct mnemonics produced the same Master Key")
	}
}

func TestMnemonicString_Redacted(t *testing.T) {
	m := Mnemonic{"abandon", "ability"}
	if got := m.String(); got == "abandon ability" {
		t.Fatalf("Mnemonic.String() leaked the mnemonic: %q", got)
	}
}

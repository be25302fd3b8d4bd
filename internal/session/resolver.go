// Package session implements the Session Resolver (C5): it combines the
// mnemonic source chain, unlocks the Config store, and resolves the active
// vault and effective S3 settings for one command invocation.
package session

import (
	"context"
	"fmt"
	"os"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/manifoldco/promptui"

	"github.com/cybou-fr/cybs3/internal/errkinds"
	"github.com/cybou-fr/cybs3/internal/mnemonic"
	"github.com/cybou-fr/cybs3/internal/s3client"
	"github.com/cybou-fr/cybs3/internal/secretstore"
	"github.com/cybou-fr/cybs3/internal/vaultconfig"
)

// MnemonicEnvVar is the environment variable consulted first in the
// mnemonic source chain (spec.md §4.5 step 1).
const MnemonicEnvVar = "CYBS3_MNEMONIC"

// ResolveOptions carries every external input a command may supply, with
// the precedence spec.md §4.5 describes applied inside Resolve.
type ResolveOptions struct {
	Home string // overrides os.UserHomeDir(), for tests

	VaultFlag string // --vault

	AccessKeyFlag string
	SecretKeyFlag string
	RegionFlag    string
	BucketFlag    string
	EndpointFlag  string

	Store Store // mnemonic source #2; nil uses the OS keychain via secretstore
}

// Store is the subset of secretstore.Store the resolver depends on,
// satisfied by secretstore.Open()'s result or a fallback/fake in tests.
type Store interface {
	Load() (string, bool, error)
}

// EffectiveSettings is the resolved, first-match-wins S3 connection profile
// (spec.md §4.5 step 4).
type EffectiveSettings struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	Endpoint  string
}

// Session is C5's output tuple: (S3ClientHandle, DataKey, Config,
// activeVaultName?, effectiveBucket?).
type Session struct {
	Client          *s3client.Client
	DataKey         vaultconfig.DataKey
	Config          *vaultconfig.Config
	ActiveVaultName string
	Settings        EffectiveSettings

	// mnemonic is kept only so Save can re-seal an edited Config without
	// re-running the mnemonic source chain; Close zeroes it like DataKey.
	mnemonic mnemonic.Mnemonic
}

// Close releases the Session's S3 client connections and zeroes its
// Data Key and mnemonic. Callers must defer this on every command that
// resolves a Session.
func (s *Session) Close() {
	if s.Client != nil {
		s.Client.Close()
	}
	s.DataKey.Zero()
	s.mnemonic.Zero()
}

// Save persists edits made to s.Config (e.g. adding or removing a vault)
// back to the encrypted config store, re-sealing it under the same
// mnemonic this Session was resolved with.
func (s *Session) Save(home string) error {
	return vaultconfig.Save(home, s.Config, s.mnemonic)
}

// Resolve implements C5 end to end: resolve a mnemonic, load the Config,
// resolve the active vault and effective settings, and construct a ready
// s3client.Client.
func Resolve(ctx context.Context, opts ResolveOptions) (*Session, error) {
	home := opts.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errkinds.ErrFileAccessFailed, err)
		}
		home = h
	}

	store := opts.Store
	if store == nil {
		store = ResolveMnemonicFromKeychain(home)
	}

	m, err := resolveMnemonic(store)
	if err != nil {
		return nil, err
	}

	cfg, err := vaultconfig.Load(home, m)
	if err != nil {
		return nil, err
	}

	activeVaultName, vault, err := resolveVault(cfg, opts.VaultFlag)
	if err != nil {
		return nil, err
	}

	settings := resolveSettings(opts, cfg, vault)

	endpoint, err := s3client.ParseEndpoint(settings.Endpoint)
	if err != nil {
		return nil, err
	}

	client := s3client.New(endpoint, s3client.Credentials{
		AccessKeyID:     settings.AccessKey,
		SecretAccessKey: settings.SecretKey,
		Region:          settings.Region,
	})

	return &Session{
		Client:          client,
		DataKey:         cfg.DataKey,
		Config:          cfg,
		ActiveVaultName: activeVaultName,
		Settings:        settings,
		mnemonic:        m,
	}, nil
}

// resolveMnemonic implements the mnemonic source chain (spec.md §4.5 step
// 1): env > OS secret store > interactive prompt. Each source must yield a
// validated mnemonic; an absent source falls through, but an invalid one
// from a present source is terminal.
func resolveMnemonic(store Store) (mnemonic.Mnemonic, error) {
	if raw := os.Getenv(MnemonicEnvVar); raw != "" {
		m := mnemonic.ParseMnemonic(raw)
		if err := mnemonic.Validate(m); err != nil {
			return nil, err
		}
		return m, nil
	}

	if store != nil {
		raw, found, err := store.Load()
		if err != nil {
			return nil, err
		}
		if found {
			m := mnemonic.ParseMnemonic(raw)
			if err := mnemonic.Validate(m); err != nil {
				return nil, err
			}
			return m, nil
		}
	}

	return promptForMnemonic()
}

func promptForMnemonic() (mnemonic.Mnemonic, error) {
	prompt := promptui.Prompt{
		Label: "Mnemonic",
		Mask:  '*',
		Validate: func(input string) error {
			return mnemonic.Validate(mnemonic.ParseMnemonic(input))
		},
	}

	result, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errkinds.ErrUserCancelled, err)
	}
	return mnemonic.ParseMnemonic(result), nil
}

// resolveVault implements spec.md §4.5 step 3.
func resolveVault(cfg *vaultconfig.Config, vaultFlag string) (string, *vaultconfig.Vault, error) {
	name := vaultFlag
	if name == "" {
		name = cfg.ActiveVaultName
	}
	if name == "" {
		return "", nil, nil
	}

	vault, ok := cfg.VaultByName(name)
	if !ok {
		return "", nil, &errkinds.VaultNotFoundError{Name: name}
	}
	return name, vault, nil
}

// awsEnvToKoanfKey maps the AWS_* environment variables this resolver
// recognizes to its flat koanf keys. It returns "" for any other variable,
// which the ProviderWithValue callback in resolveSettings treats as
// "skip this one" alongside empty values.
func awsEnvToKoanfKey(envVar string) string {
	switch envVar {
	case "AWS_ACCESS_KEY_ID":
		return "accessKey"
	case "AWS_SECRET_ACCESS_KEY":
		return "secretKey"
	case "AWS_REGION":
		return "region"
	case "AWS_BUCKET":
		return "bucket"
	default:
		return ""
	}
}

// resolveSettings implements spec.md §4.5 step 4 with knadh/koanf: sources
// are Load()ed in ascending precedence so the last Load wins, giving
// first-match-wins semantics (CLI flag > env > vault field > config
// default > hard-coded fallback) without a hand-rolled cascade.
func resolveSettings(opts ResolveOptions, cfg *vaultconfig.Config, vault *vaultconfig.Vault) EffectiveSettings {
	k := koanf.New(".")

	_ = k.Load(confmap.Provider(map[string]interface{}{
		"region":   "us-east-1",
		"endpoint": "s3.amazonaws.com",
	}, "."), nil)

	_ = k.Load(confmap.Provider(nonEmpty(map[string]string{
		"accessKey": cfg.Settings.DefaultAccessKey,
		"secretKey": cfg.Settings.DefaultSecretKey,
		"region":    cfg.Settings.DefaultRegion,
		"bucket":    cfg.Settings.DefaultBucket,
		"endpoint":  cfg.Settings.DefaultEndpoint,
	}), "."), nil)

	if vault != nil {
		_ = k.Load(confmap.Provider(nonEmpty(map[string]string{
			"accessKey": vault.AccessKey,
			"secretKey": vault.SecretKey,
			"region":    vault.Region,
			"bucket":    vault.Bucket,
			"endpoint":  vault.Endpoint,
		}), "."), nil)
	}

	_ = k.Load(env.ProviderWithValue("AWS_", ".", func(envVar, value string) (string, interface{}) {
		key := awsEnvToKoanfKey(envVar)
		if key == "" || value == "" {
			return "", nil
		}
		return key, value
	}), nil)

	_ = k.Load(confmap.Provider(nonEmpty(map[string]string{
		"accessKey": opts.AccessKeyFlag,
		"secretKey": opts.SecretKeyFlag,
		"region":    opts.RegionFlag,
		"bucket":    opts.BucketFlag,
		"endpoint":  opts.EndpointFlag,
	}), "."), nil)

	return EffectiveSettings{
		AccessKey: k.String("accessKey"),
		SecretKey: k.String("secretKey"),
		Region:    k.String("region"),
		Bucket:    k.String("bucket"),
		Endpoint:  k.String("endpoint"),
	}
}

// nonEmpty drops empty-string values so a lower layer never overwrites a
// higher one with "unset" (spec.md §4.5: "empty strings are treated as
// unset").
func nonEmpty(fields map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ResolveMnemonicFromKeychain is a convenience wrapper that opens the OS
// secret store (falling back to the on-disk fallback store if the OS
// store cannot be opened) and adapts it into the Store interface Resolve
// expects.
func ResolveMnemonicFromKeychain(home string) Store {
	ring, err := secretstore.Open()
	if err != nil {
		return secretstore.OpenFileFallback(home)
	}
	return ring
}

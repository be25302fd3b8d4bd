// Package errkinds declares the error taxonomy every core operation returns.
// No core package swallows an error; the CLI layer is the only place that
// formats and prints them.
package errkinds

import (
	"errors"
	"fmt"
)

// Validation errors indicate malformed user input to a core operation.
var (
	// ErrInvalidWordCount indicates a mnemonic did not have exactly 12 words.
	ErrInvalidWordCount = errors.New("mnemonic must contain exactly 12 words")

	// ErrInvalidWord indicates a mnemonic word is not in the BIP39 English list.
	ErrInvalidWord = errors.New("word is not in the BIP39 English word list")

	// ErrInvalidChecksum indicates a mnemonic's trailing checksum bits do not verify.
	ErrInvalidChecksum = errors.New("mnemonic checksum does not verify")

	// ErrInvalidMnemonic wraps a generic mnemonic validation failure with a reason.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidURL indicates an endpoint URL could not be parsed.
	ErrInvalidURL = errors.New("invalid endpoint URL")

	// ErrInvalidBucketName indicates a bucket name fails S3 naming rules.
	ErrInvalidBucketName = errors.New("invalid bucket name")
)

// Authentication / authorization errors.
var (
	// ErrAuthenticationFailed indicates bad access/secret keys or a SigV4 mismatch.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrAccessDenied indicates the caller lacks permission for a resource.
	ErrAccessDenied = errors.New("access denied")

	// ErrDecryptionFailed indicates the config could not be decrypted: wrong
	// mnemonic, or the file was corrupted or tampered with.
	ErrDecryptionFailed = errors.New("decryption failed: wrong mnemonic or corrupted config")

	// ErrAuthFailure indicates an AEAD tag failed to verify on a frame.
	ErrAuthFailure = errors.New("AEAD authentication failure")
)

// Resource errors.
var (
	ErrBucketNotFound  = errors.New("bucket not found")
	ErrObjectNotFound  = errors.New("object not found")
	ErrBucketNotEmpty  = errors.New("bucket not empty")
	ErrConfigNotFound  = errors.New("config not found")
	ErrVaultNotFound   = errors.New("vault not found")
)

// Integrity / format errors.
var (
	// ErrTruncated indicates the decoder saw end-of-stream inside a frame.
	ErrTruncated = errors.New("ciphertext truncated inside a frame")

	// ErrIntegrityCheckFailed is a generic integrity failure outside framing.
	ErrIntegrityCheckFailed = errors.New("integrity check failed")

	// ErrUnsupportedVersion indicates a config version newer than this build understands.
	ErrUnsupportedVersion = errors.New("unsupported config version")
)

// Local I/O errors.
var (
	ErrFileAccessFailed = errors.New("local file access failed")
	ErrKeychainFailed   = errors.New("OS secret store access failed")
)

// User errors.
var (
	ErrUserCancelled    = errors.New("cancelled by user")
	ErrMnemonicRequired = errors.New("a mnemonic is required for this operation")
)

// InvalidWordError names the specific offending word; wraps ErrInvalidWord.
type InvalidWordError struct {
	Word string
}

func (e *InvalidWordError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidWord, e.Word)
}

func (e *InvalidWordError) Unwrap() error { return ErrInvalidWord }

// VaultNotFoundError names the vault that failed to resolve; wraps ErrVaultNotFound.
type VaultNotFoundError struct {
	Name string
}

func (e *VaultNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrVaultNotFound, e.Name)
}

func (e *VaultNotFoundError) Unwrap() error { return ErrVaultNotFound }

// UnsupportedVersionError names the offending config version; wraps ErrUnsupportedVersion.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnsupportedVersion, e.Version)
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// InvalidMnemonicError carries a human-readable reason; wraps ErrInvalidMnemonic.
type InvalidMnemonicError struct {
	Reason string
}

func (e *InvalidMnemonicError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidMnemonic, e.Reason)
}

func (e *InvalidMnemonicError) Unwrap() error { return ErrInvalidMnemonic }

// RequestFailedError wraps any S3 error response that doesn't map to a more
// specific sentinel above. 5xx status codes may be retried by the caller;
// 4xx is terminal. The core itself never retries.
type RequestFailedError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestFailedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed: status=%d code=%s message=%s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed: status=%d message=%s", e.Status, e.Message)
}

// Retryable reports whether the caller may retry this request.
func (e *RequestFailedError) Retryable() bool {
	return e.Status >= 500
}

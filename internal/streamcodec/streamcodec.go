// Package streamcodec implements the Chunked Stream Codec (C3): a
// self-framed streaming AEAD format that encrypts and decrypts
// arbitrary-size object bodies in bounded memory and tolerates arbitrary
// rechunking by the transport carrying the ciphertext.
//
// Every frame is independently AEAD-sealed: nonce(12) ‖ ciphertext(≤CHUNK)
// ‖ tag(16). There is no chaining between frames and no frame counter, so
// an attacker with write access to the stored object can delete, duplicate,
// or reorder frames without triggering an AEAD failure (spec.md §9, open
// question 1). This is a deliberate, documented limitation, not an
// oversight: whole-object integrity is left to the transport (TLS) and to
// the S3-provider threat model this tool targets.
//
// Random 96-bit nonces bound a single Data Key to roughly 2^32 frames
// before collision probability becomes non-negligible (spec.md §9, open
// question 2). This tool never rotates the Data Key automatically, so that
// bound is the caller's responsibility to respect at very large scale.
package streamcodec

import "github.com/cybou-fr/cybs3/internal/aead"

// ChunkSize is the fixed plaintext size of every non-terminal frame: 1 MiB.
const ChunkSize = 1 << 20

// FrameOverhead is the number of bytes AEAD framing adds per chunk.
const FrameOverhead = aead.Overhead

// CiphertextLength computes the encrypted length of a plaintext of the
// given size without reading the plaintext, per spec.md §3's
// ciphertext-length law. This is required up front by the signed S3
// upload, which must declare Content-Length before streaming the body.
func CiphertextLength(plaintextLen int64) int64 {
	if plaintextLen == 0 {
		return 0
	}

	fullChunks := plaintextLen / ChunkSize
	remainder := plaintextLen % ChunkSize

	total := fullChunks * (ChunkSize + FrameOverhead)
	if remainder != 0 {
		total += remainder + FrameOverhead
	}
	return total
}

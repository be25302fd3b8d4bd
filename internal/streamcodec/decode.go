package streamcodec

import (
	"fmt"
	"io"

	"github.com/cybou-fr/cybs3/internal/aead"
	"github.com/cybou-fr/cybs3/internal/errkinds"
)

// fullFrameSize is the on-wire size of every non-terminal frame.
const fullFrameSize = ChunkSize + FrameOverhead

// decryptReader is transport-tolerant: it reassembles frames correctly
// regardless of how upstream chooses to chunk the ciphertext bytes it
// delivers (spec.md §4.3).
type decryptReader struct {
	key      [32]byte
	upstream io.Reader

	cbuf    []byte // raw ciphertext accumulated, not yet framed
	pending []byte // decrypted plaintext awaiting Read
	scratch []byte // reusable buffer for upstream.Read calls

	eof  bool
	done bool
}

// NewDecryptReader returns an io.Reader that verifies and decrypts a
// chunked AEAD ciphertext stream produced by NewEncryptReader. It never
// yields a frame's plaintext until that frame's tag has verified; any
// authentication failure propagates immediately and aborts the stream.
// Memory use is O(CHUNK + frame overhead) regardless of upstream's own
// chunking.
func NewDecryptReader(key [32]byte, upstream io.Reader) io.Reader {
	return &decryptReader{
		key:      key,
		upstream: upstream,
		scratch:  make([]byte, ChunkSize),
	}
}

func (r *decryptReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 && !r.done {
		if err := r.advance(); err != nil {
			return 0, err
		}
	}

	if len(r.pending) == 0 {
		return 0, io.EOF
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *decryptReader) advance() error {
	if len(r.cbuf) >= fullFrameSize {
		plaintext, err := aead.Open(r.key, r.cbuf[:fullFrameSize])
		if err != nil {
			return err
		}
		// Copy the remainder into a fresh buffer so the backing array of
		// the consumed frame can be collected, keeping memory use bounded.
		remainder := r.cbuf[fullFrameSize:]
		r.cbuf = append([]byte(nil), remainder...)
		r.pending = plaintext
		return nil
	}

	if r.eof {
		switch {
		case len(r.cbuf) == 0:
			r.done = true
		case len(r.cbuf) < aead.Overhead:
			return fmt.Errorf("%w: %d bytes remaining", errkinds.ErrTruncated, len(r.cbuf))
		default:
			plaintext, err := aead.Open(r.key, r.cbuf)
			if err != nil {
				return err
			}
			r.cbuf = nil
			r.pending = plaintext
		}
		return nil
	}

	n, err := r.upstream.Read(r.scratch)
	if n > 0 {
		r.cbuf = append(r.cbuf, r.scratch[:n]...)
	}
	if err != nil {
		if err == io.EOF {
			r.eof = true
			return nil
		}
		return fmt.Errorf("failed to read upstream: %w", err)
	}
	return nil
}

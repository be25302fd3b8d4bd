package streamcodec

import (
	"fmt"
	"io"

	"github.com/cybou-fr/cybs3/internal/aead"
)

// encryptReader drives the encoder state machine described in spec.md
// §4.3: AccumulatingChunk (buf is filling), Flushing (a sealed frame is
// waiting in pending to be copied out to the caller), Terminated (done).
type encryptReader struct {
	key      [32]byte
	upstream io.Reader

	buf     []byte // AccumulatingChunk: plaintext not yet sealed, len <= ChunkSize
	pending []byte // Flushing: sealed frame bytes awaiting Read

	eof  bool // upstream has reported end-of-stream
	done bool // Terminated: no more frames will ever be produced
}

// NewEncryptReader returns an io.Reader that seals upstream's bytes into
// the chunked AEAD frame format as they are consumed. It is single-pass,
// non-restartable, and holds at most one ChunkSize plaintext buffer plus
// one sealed frame in memory (O(CHUNK) total), regardless of how upstream
// chooses to chunk its own Read calls.
func NewEncryptReader(key [32]byte, upstream io.Reader) io.Reader {
	return &encryptReader{
		key:      key,
		upstream: upstream,
		buf:      make([]byte, 0, ChunkSize),
	}
}

func (r *encryptReader) Read(p []byte) (int, error) {
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

// advance fills buf from upstream and, once a full chunk is accumulated or
// upstream ends, seals the next frame into pending.
func (r *encryptReader) advance() error {
	if r.eof {
		r.done = true
		return nil
	}

	for len(r.buf) < ChunkSize {
		n, err := r.upstream.Read(r.buf[len(r.buf):ChunkSize])
		r.buf = r.buf[:len(r.buf)+n]
		if err != nil {
			if err == io.EOF {
				r.eof = true
				break
			}
			return fmt.Errorf("failed to read upstream: %w", err)
		}
		if n == 0 {
			// Well-behaved readers shouldn't return (0, nil) repeatedly, but
			// if one does, yield back to the caller rather than spin here.
			return nil
		}
	}

	if len(r.buf) == ChunkSize {
		frame, err := aead.Seal(r.key, r.buf)
		if err != nil {
			return err
		}
		r.pending = frame
		r.buf = r.buf[:0]
		return nil
	}

	// Reached end-of-stream with a partial or empty buffer.
	if r.eof {
		if len(r.buf) > 0 {
			frame, err := aead.Seal(r.key, r.buf)
			if err != nil {
				return err
			}
			r.pending = frame
			r.buf = r.buf[:0]
		}
		// Empty buffer at EOF with no prior frames: nothing was ever seen,
		// so the encoder emits nothing, per spec.md §4.3.
		r.done = true
	}
	return nil
}

package zipstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultChunkSize is the largest chunk read from the archive process at once.
const DefaultChunkSize = 100000

// Flusher is implemented by writers that buffer and can push data to the peer.
type Flusher interface {
	Flush() error
}

// Pump copies archive bytes to the client one bounded chunk at a time.
type Pump struct {
	// ChunkSize is the maximum bytes read per iteration. Zero uses DefaultChunkSize.
	ChunkSize int
	// PacingDelay is waited after every written chunk. Zero disables pacing.
	PacingDelay time.Duration
	// OnChunk, if set, is called after each chunk is written.
	OnChunk func(n int)
	Logger  *slog.Logger
}

// Run streams src to dst until src reports io.EOF. Chunks are written in the
// order read and each write completes before the next read, so a slow client
// throttles the producer. If dst implements Flusher it is flushed after every
// chunk.
//
// A failed write or flush stops the pump at once and returns an error wrapping
// ErrPeerDisconnected. A canceled ctx returns an error wrapping ErrCanceled,
// and a failed read one wrapping ErrProcessOutput. session is updated in place.
func (p *Pump) Run(ctx context.Context, src io.Reader, dst io.Writer, session *StreamSession) (int64, error) {
	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session.ChunkSize = chunkSize
	session.PacingDelay = p.PacingDelay
	session.StartedAt = time.Now()
	defer func() { session.FinishedAt = time.Now() }()

	flusher, _ := dst.(Flusher)
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return session.BytesSent, fmt.Errorf("%w: %w", ErrCanceled, err)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if err := writeChunk(dst, flusher, buf[:n]); err != nil {
				return session.BytesSent, fmt.Errorf("%w: chunk %d: %w", ErrPeerDisconnected, session.ChunkIndex, err)
			}

			logger.Debug("sent archive chunk", "chunk", session.ChunkIndex, "bytes", n)
			session.BytesSent += int64(n)
			session.ChunkIndex++
			if p.OnChunk != nil {
				p.OnChunk(n)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				// A process stopped because of cancellation also ends with EOF.
				if err := ctx.Err(); err != nil {
					return session.BytesSent, fmt.Errorf("%w: %w", ErrCanceled, err)
				}
				return session.BytesSent, nil
			}
			if err := ctx.Err(); err != nil {
				return session.BytesSent, fmt.Errorf("%w: %w", ErrCanceled, err)
			}
			return session.BytesSent, fmt.Errorf("%w: %w", ErrProcessOutput, readErr)
		}

		if n > 0 && p.PacingDelay > 0 {
			if err := sleepCtx(ctx, p.PacingDelay); err != nil {
				return session.BytesSent, fmt.Errorf("%w: %w", ErrCanceled, err)
			}
		}
	}
}

func writeChunk(dst io.Writer, flusher Flusher, chunk []byte) error {
	if _, err := dst.Write(chunk); err != nil {
		return err
	}
	if flusher != nil {
		return flusher.Flush()
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

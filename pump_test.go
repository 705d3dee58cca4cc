package zipstream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/zipstream"
)

// chunkRecorder records every write and flush it receives.
type chunkRecorder struct {
	bytes.Buffer
	writes   []int
	flushes  int
	writeErr error
	flushErr error
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.writes = append(c.writes, len(p))
	return c.Buffer.Write(p)
}

func (c *chunkRecorder) Flush() error {
	c.flushes++
	return c.flushErr
}

// countingReader counts the reads made against it.
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestPump_Run_BoundedChunksInOrder(t *testing.T) {
	dst := &chunkRecorder{}
	var seen []int
	pump := zipstream.Pump{
		ChunkSize: 4,
		OnChunk:   func(n int) { seen = append(seen, n) },
		Logger:    discardLogger,
	}

	var session zipstream.StreamSession
	n, err := pump.Run(context.Background(), strings.NewReader("0123456789"), dst, &session)

	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.Equal(t, "0123456789", dst.String())
	assert.Equal(t, []int{4, 4, 2}, dst.writes)
	assert.Equal(t, []int{4, 4, 2}, seen)
	assert.Equal(t, 3, dst.flushes)

	assert.Equal(t, 4, session.ChunkSize)
	assert.Equal(t, int64(10), session.BytesSent)
	assert.Equal(t, 3, session.ChunkIndex)
	assert.False(t, session.StartedAt.IsZero())
	assert.False(t, session.FinishedAt.Before(session.StartedAt))
}

func TestPump_Run_DefaultChunkSize(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), zipstream.DefaultChunkSize+1)
	dst := &chunkRecorder{}
	pump := zipstream.Pump{Logger: discardLogger}

	var session zipstream.StreamSession
	_, err := pump.Run(context.Background(), bytes.NewReader(payload), dst, &session)

	require.NoError(t, err)
	assert.Equal(t, zipstream.DefaultChunkSize, session.ChunkSize)
	assert.Equal(t, []int{zipstream.DefaultChunkSize, 1}, dst.writes)
}

func TestPump_Run_EmptySource(t *testing.T) {
	dst := &chunkRecorder{}
	pump := zipstream.Pump{ChunkSize: 8, Logger: discardLogger}

	var session zipstream.StreamSession
	n, err := pump.Run(context.Background(), strings.NewReader(""), dst, &session)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, dst.writes)
	assert.Zero(t, dst.flushes)
}

func TestPump_Run_OneByteReads(t *testing.T) {
	dst := &chunkRecorder{}
	pump := zipstream.Pump{ChunkSize: 64, Logger: discardLogger}

	var session zipstream.StreamSession
	_, err := pump.Run(context.Background(), iotest.OneByteReader(strings.NewReader("abc")), dst, &session)

	require.NoError(t, err)
	assert.Equal(t, "abc", dst.String())
	assert.Equal(t, 3, session.ChunkIndex)
}

func TestPump_Run_WriteFailure(t *testing.T) {
	dst := &chunkRecorder{writeErr: errors.New("broken pipe")}
	src := &countingReader{r: strings.NewReader("0123456789")}
	pump := zipstream.Pump{ChunkSize: 4, Logger: discardLogger}

	var session zipstream.StreamSession
	n, err := pump.Run(context.Background(), src, dst, &session)

	assert.ErrorIs(t, err, zipstream.ErrPeerDisconnected)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Zero(t, n)
	assert.Equal(t, 1, src.reads)
}

func TestPump_Run_FlushFailure(t *testing.T) {
	dst := &chunkRecorder{flushErr: errors.New("connection reset")}
	pump := zipstream.Pump{ChunkSize: 4, Logger: discardLogger}

	var session zipstream.StreamSession
	_, err := pump.Run(context.Background(), strings.NewReader("0123456789"), dst, &session)

	assert.ErrorIs(t, err, zipstream.ErrPeerDisconnected)
	assert.Equal(t, 1, dst.flushes)
}

func TestPump_Run_ReadFailure(t *testing.T) {
	readErr := errors.New("pipe exploded")
	src := io.MultiReader(strings.NewReader("abcd"), iotest.ErrReader(readErr))
	dst := &chunkRecorder{}
	pump := zipstream.Pump{ChunkSize: 4, Logger: discardLogger}

	var session zipstream.StreamSession
	n, err := pump.Run(context.Background(), src, dst, &session)

	assert.ErrorIs(t, err, zipstream.ErrProcessOutput)
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "abcd", dst.String())
}

func TestPump_Run_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &countingReader{r: strings.NewReader("data")}
	pump := zipstream.Pump{Logger: discardLogger}

	var session zipstream.StreamSession
	n, err := pump.Run(ctx, src, &chunkRecorder{}, &session)

	assert.ErrorIs(t, err, zipstream.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Zero(t, src.reads)
}

func TestPump_Run_EOFAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A terminated process closes its output, which reads as a clean EOF.
	src := readerFunc(func(p []byte) (int, error) {
		cancel()
		return 0, io.EOF
	})
	pump := zipstream.Pump{Logger: discardLogger}

	var session zipstream.StreamSession
	_, err := pump.Run(ctx, src, &chunkRecorder{}, &session)

	assert.ErrorIs(t, err, zipstream.ErrCanceled)
}

func TestPump_Run_PacingDelay(t *testing.T) {
	delay := 20 * time.Millisecond
	pump := zipstream.Pump{ChunkSize: 2, PacingDelay: delay, Logger: discardLogger}

	var session zipstream.StreamSession
	start := time.Now()
	_, err := pump.Run(context.Background(), strings.NewReader("abcdef"), &chunkRecorder{}, &session)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 3*delay)
	assert.Equal(t, delay, session.PacingDelay)
	assert.GreaterOrEqual(t, session.Duration(), 3*delay)
}

func TestPump_Run_CancelDuringPacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pump := zipstream.Pump{
		ChunkSize:   4,
		PacingDelay: time.Hour,
		OnChunk:     func(int) { cancel() },
		Logger:      discardLogger,
	}

	var session zipstream.StreamSession
	n, err := pump.Run(ctx, strings.NewReader("0123456789"), &chunkRecorder{}, &session)

	assert.ErrorIs(t, err, zipstream.ErrCanceled)
	assert.Equal(t, int64(4), n)
}

func TestPump_Run_PlainWriter(t *testing.T) {
	var dst bytes.Buffer
	pump := zipstream.Pump{ChunkSize: 3, Logger: discardLogger}

	var session zipstream.StreamSession
	_, err := pump.Run(context.Background(), strings.NewReader("hello"), &dst, &session)

	require.NoError(t, err)
	assert.Equal(t, "hello", dst.String())
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

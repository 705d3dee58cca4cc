package zipstream_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/zipstream"
)

var discardLogger = slog.New(slog.DiscardHandler)

func spawn(t *testing.T, mode, name string, grace time.Duration) *zipstream.ArchiveProcess {
	t.Helper()
	root := newArchiveRoot(t)
	proc, err := zipstream.SpawnProcess(fakeCommand(t, mode), request(root, name), grace)
	require.NoError(t, err)
	return proc
}

func readStarted(t *testing.T, r io.Reader) {
	t.Helper()
	buf := make([]byte, len("started\n"))
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, "started\n", string(buf))
}

func TestGuard_Release_Completed(t *testing.T) {
	proc := spawn(t, "archive", "wedding1", time.Second)
	guard := zipstream.NewGuard(proc, time.Second, discardLogger)

	_, err := io.Copy(io.Discard, proc)
	require.NoError(t, err)

	status, err := guard.Release()
	require.NoError(t, err)
	assert.True(t, status.Success())
	assert.False(t, status.Killed)
	assert.Equal(t, zipstream.StateReaped, proc.State())

	again, err := guard.Release()
	assert.NoError(t, err)
	assert.Equal(t, status, again)
}

func TestGuard_Release_ProcessFailure(t *testing.T) {
	proc := spawn(t, "fail", "wedding1", time.Second)
	guard := zipstream.NewGuard(proc, time.Second, discardLogger)

	_, err := io.Copy(io.Discard, proc)
	require.NoError(t, err)

	status, err := guard.Release()
	assert.Equal(t, 12, status.Code)
	assert.ErrorIs(t, err, zipstream.ErrProcessExit)

	var exitErr *zipstream.ProcessExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 12, exitErr.Code)
	assert.Contains(t, exitErr.Stderr, "Nothing to do!")
}

func TestGuard_Release_TerminatesUndrainedProcess(t *testing.T) {
	proc := spawn(t, "hang", "wedding1", 10*time.Second)
	guard := zipstream.NewGuard(proc, 10*time.Second, discardLogger)
	readStarted(t, proc)

	start := time.Now()
	status, err := guard.Release()

	assert.NoError(t, err)
	assert.True(t, status.Killed)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, zipstream.StateReaped, proc.State())
}

func TestGuard_Release_KillsAfterGracePeriod(t *testing.T) {
	grace := 200 * time.Millisecond
	proc := spawn(t, "stubborn", "wedding1", grace)
	guard := zipstream.NewGuard(proc, grace, discardLogger)
	readStarted(t, proc)

	start := time.Now()
	status, err := guard.Release()

	assert.NoError(t, err)
	assert.True(t, status.Killed)
	assert.True(t, status.Signaled)
	assert.GreaterOrEqual(t, time.Since(start), grace)
	assert.Equal(t, zipstream.StateReaped, proc.State())
}

func TestGuard_Release_DrainedButLingering(t *testing.T) {
	grace := 100 * time.Millisecond
	proc := spawn(t, "linger", "wedding1", grace)
	guard := zipstream.NewGuard(proc, grace, discardLogger)

	out, err := io.ReadAll(proc)
	require.NoError(t, err)
	assert.Equal(t, "done", string(out))
	assert.True(t, proc.Drained())

	status, err := guard.Release()

	assert.NoError(t, err)
	assert.True(t, status.Killed)
	assert.Equal(t, zipstream.StateReaped, proc.State())
}

func TestGuard_Watch_CancelStopsProcess(t *testing.T) {
	proc := spawn(t, "hang", "wedding1", time.Second)
	guard := zipstream.NewGuard(proc, time.Second, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	guard.Watch(ctx)
	readStarted(t, proc)

	cancel()

	// The pipe closes once the process is gone.
	_, err := io.Copy(io.Discard, proc)
	require.NoError(t, err)
	assert.True(t, guard.Canceled())

	status, err := guard.Release()
	assert.NoError(t, err)
	assert.True(t, status.Killed)
}

func TestGuard_Watch_KillsStubbornProcess(t *testing.T) {
	grace := 100 * time.Millisecond
	proc := spawn(t, "stubborn", "wedding1", grace)
	guard := zipstream.NewGuard(proc, grace, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	guard.Watch(ctx)
	readStarted(t, proc)

	start := time.Now()
	cancel()

	_, err := io.Copy(io.Discard, proc)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), grace)

	status, err := guard.Release()
	assert.NoError(t, err)
	assert.True(t, status.Killed)
	assert.Equal(t, zipstream.StateReaped, proc.State())
}

func TestGuard_Release_StopsWatching(t *testing.T) {
	proc := spawn(t, "archive", "party", time.Second)
	guard := zipstream.NewGuard(proc, time.Second, discardLogger)

	ctx, cancel := context.WithCancel(context.Background())
	guard.Watch(ctx)

	_, err := io.Copy(io.Discard, proc)
	require.NoError(t, err)

	_, err = guard.Release()
	require.NoError(t, err)

	cancel()
	assert.False(t, guard.Canceled())
}

func TestNewGuard_NilLogger(t *testing.T) {
	proc := spawn(t, "archive", "party", time.Second)
	guard := zipstream.NewGuard(proc, time.Second, nil)

	_, err := io.Copy(io.Discard, proc)
	require.NoError(t, err)

	_, err = guard.Release()
	assert.NoError(t, err)
}

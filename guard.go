package zipstream

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultGracePeriod is how long a terminated process gets before it is killed.
const DefaultGracePeriod = 5 * time.Second

// Guard ties the lifetime of an ArchiveProcess to the scope of one request.
// Release terminates, kills if needed, and reaps the process exactly once,
// whichever way the request ends.
type Guard struct {
	proc   *ArchiveProcess
	grace  time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	stopWatch func() bool
	killTimer *time.Timer
	canceled  bool
	released  bool

	once   sync.Once
	status ExitStatus
	err    error
}

// NewGuard takes ownership of proc. A nil logger uses slog.Default.
func NewGuard(proc *ArchiveProcess, grace time.Duration, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{proc: proc, grace: grace, logger: logger}
}

// Watch terminates the process as soon as ctx is done, and kills it if it is
// still running after the grace period. This unblocks a pump waiting on the
// process output. Watch must be called at most once.
func (g *Guard) Watch(ctx context.Context) {
	stop := context.AfterFunc(ctx, g.interrupt)

	g.mu.Lock()
	g.stopWatch = stop
	g.mu.Unlock()
}

func (g *Guard) interrupt() {
	g.mu.Lock()
	g.canceled = true
	g.mu.Unlock()

	g.logger.Debug("request canceled, terminating archive process", "pid", g.proc.PID())
	if err := g.proc.Terminate(); err != nil {
		g.logger.Warn("failed to terminate archive process", "pid", g.proc.PID(), "err", err)
	}

	// stopWatch does not wait for a callback already running, so release may
	// have reaped the process by now.
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.killTimer = time.AfterFunc(g.grace, func() {
		if err := g.proc.Kill(); err != nil {
			g.logger.Warn("failed to kill archive process", "pid", g.proc.PID(), "err", err)
		}
	})
}

// Canceled reports whether the watched context fired before release.
func (g *Guard) Canceled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canceled
}

// Release stops and reaps the process. A process whose output was read to the
// end is first given the grace period to exit on its own; otherwise it is
// terminated immediately. Only the first call does any work; later calls
// return the first result.
//
// The returned error is a *ProcessExitError when the process exited with a
// non-zero code on its own. Exits caused by Release or Watch are not errors.
func (g *Guard) Release() (ExitStatus, error) {
	g.once.Do(g.release)
	return g.status, g.err
}

func (g *Guard) release() {
	g.mu.Lock()
	if g.stopWatch != nil {
		g.stopWatch()
	}
	g.mu.Unlock()

	done := make(chan struct{})
	var (
		status  ExitStatus
		waitErr error
	)
	go func() {
		status, waitErr = g.proc.Wait()
		close(done)
	}()

	g.stop(done)

	g.mu.Lock()
	g.released = true
	if g.killTimer != nil {
		g.killTimer.Stop()
	}
	g.mu.Unlock()

	g.status = status
	switch {
	case waitErr != nil:
		g.err = waitErr
	case status.Success(), status.Killed:
	default:
		g.err = &ProcessExitError{Code: status.Code, Stderr: g.proc.Stderr()}
	}

	g.logger.Debug("archive process reaped",
		"pid", g.proc.PID(),
		"exit_code", status.Code,
		"signaled", status.Signaled,
		"killed", status.Killed,
	)
}

func (g *Guard) stop(done <-chan struct{}) {
	if g.proc.Drained() && g.await(done) {
		return
	}

	if err := g.proc.Terminate(); err != nil {
		g.logger.Warn("failed to terminate archive process", "pid", g.proc.PID(), "err", err)
	}
	if g.await(done) {
		return
	}

	g.logger.Warn("archive process still running after grace period, killing", "pid", g.proc.PID(), "grace", g.grace)
	if err := g.proc.Kill(); err != nil {
		g.logger.Warn("failed to kill archive process", "pid", g.proc.PID(), "err", err)
	}
	<-done
}

// await waits up to the grace period for done.
func (g *Guard) await(done <-chan struct{}) bool {
	if g.grace <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(g.grace)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

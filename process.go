package zipstream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// stderrTailSize is how much of the process stderr is kept for diagnostics.
const stderrTailSize = 64 << 10

// ArchiveProcess owns one spawned compression process, its stdout pipe and
// the captured tail of its stderr. It is created by SpawnProcess and must be
// reaped with Wait before it is dropped.
type ArchiveProcess struct {
	cmd    *exec.Cmd
	argv   []string
	stdout io.ReadCloser
	stderr *tailBuffer

	mu       sync.Mutex
	state    ProcessState
	drained  bool
	signaled bool

	waitOnce sync.Once
	status   ExitStatus
	waitErr  error
}

// SpawnProcess starts the compression executable for req with an explicit
// argument vector. The process runs in req.Dir with stdin connected to the
// null device. Its stderr is drained concurrently by os/exec into a bounded
// buffer, so the process can never block on a full stderr pipe; waitDelay
// bounds how long Wait waits for that drain after the process exits.
func SpawnProcess(command ArchiveCommand, req ArchiveRequest, waitDelay time.Duration) (*ArchiveProcess, error) {
	if command.Executable == "" {
		return nil, fmt.Errorf("%w: executable cannot be empty", ErrSpawn)
	}

	argv := command.Argv(req)
	cmd := exec.Command(argv[0], argv[1:]...) //#nosec G204 -- argv is built from configuration and a validated archive id
	cmd.Dir = req.Dir
	cmd.WaitDelay = waitDelay

	stderr := newTailBuffer(stderrTailSize)
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, argv[0], err)
	}

	return &ArchiveProcess{
		cmd:    cmd,
		argv:   argv,
		stdout: stdout,
		stderr: stderr,
		state:  StateRunning,
	}, nil
}

// Read reads archive bytes from the process stdout. It returns io.EOF once the
// process has closed its output, which is the only completion signal.
func (p *ArchiveProcess) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		p.mu.Lock()
		p.drained = true
		p.mu.Unlock()
	}
	return n, err
}

// Drained reports whether stdout has been read to EOF.
func (p *ArchiveProcess) Drained() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drained
}

// Terminate asks the process to exit with SIGTERM.
func (p *ArchiveProcess) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

// Kill forces the process to exit.
func (p *ArchiveProcess) Kill() error {
	return p.signal(os.Kill)
}

// signal is a no-op once the process has been reaped.
func (p *ArchiveProcess) signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateRunning && p.state != StateKilled {
		return nil
	}

	err := p.cmd.Process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("signal archive process %d: %w", p.cmd.Process.Pid, err)
	}

	p.signaled = true
	p.state = StateKilled
	return nil
}

// Wait blocks until the process exits, collects its exit status and releases
// its resources. Only the first call reaps; later and concurrent calls return
// the same result. Wait closes stdout, so it must not run while a reader is
// still consuming it.
func (p *ArchiveProcess) Wait() (ExitStatus, error) {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()

		p.mu.Lock()
		defer p.mu.Unlock()

		status := ExitStatus{Code: -1, Killed: p.signaled}
		if ps := p.cmd.ProcessState; ps != nil {
			status.Code = ps.ExitCode()
			status.Signaled = !ps.Exited()
		}

		if p.state == StateRunning {
			p.state = StateExited
		}
		p.state = StateReaped
		p.status = status

		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.waitErr = fmt.Errorf("wait archive process: %w", err)
		}
	})
	return p.status, p.waitErr
}

// State returns the current lifecycle state.
func (p *ArchiveProcess) State() ProcessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// PID returns the operating system process id.
func (p *ArchiveProcess) PID() int {
	return p.cmd.Process.Pid
}

// Argv returns the argument vector the process was started with.
func (p *ArchiveProcess) Argv() []string {
	return append([]string(nil), p.argv...)
}

// Stderr returns the retained tail of the process diagnostics.
func (p *ArchiveProcess) Stderr() string {
	return p.stderr.String()
}

// tailBuffer keeps the last limit bytes written to it and counts the rest.
type tailBuffer struct {
	mu      sync.Mutex
	limit   int
	buf     []byte
	dropped int64
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.dropped += int64(over)
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	tail := strings.TrimSpace(string(t.buf))
	if t.dropped == 0 {
		return tail
	}
	return fmt.Sprintf("[%d bytes dropped] %s", t.dropped, tail)
}

package zipstream

import (
	"time"
)

// ArchiveRequest is a resolved archive identifier. It is immutable once
// returned by the Resolver and lives for a single HTTP request.
type ArchiveRequest struct {
	// ID is the client supplied archive identifier.
	ID string
	// BasePath is the configured archive root.
	BasePath string
	// Path is the absolute path of the archive directory.
	Path string
	// Dir is the parent of Path; the compression tool runs there.
	Dir string
	// Name is the final element of Path, passed to the tool as its input.
	Name string
}

// Filename returns the attachment name offered to the client.
func (r ArchiveRequest) Filename() string {
	return r.ID + ".zip"
}

// ArchiveEntry describes an archive directory available for download.
type ArchiveEntry struct {
	ID         string    `json:"id"`
	FileCount  int       `json:"file_count"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

type ListResult struct {
	Items []ArchiveEntry `json:"items"`
}

// ArchiveCommand is the compression executable and its leading arguments.
// The output marker "-" and the input name are appended per request.
type ArchiveCommand struct {
	Executable string
	Args       []string
}

// Argv returns the full argument vector for the given request.
func (c ArchiveCommand) Argv(req ArchiveRequest) []string {
	argv := make([]string, 0, len(c.Args)+3)
	argv = append(argv, c.Executable)
	argv = append(argv, c.Args...)
	argv = append(argv, "-", req.Name)
	return argv
}

// DefaultArchiveCommand runs zip recursively and quietly. Symbolic links are
// stored as links (-y) rather than followed, so a link inside an archive
// directory cannot pull in files from outside the archive root.
var DefaultArchiveCommand = ArchiveCommand{
	Executable: "zip",
	Args:       []string{"-r", "-q", "-y"},
}

type ProcessState int

const (
	StateCreated ProcessState = iota
	StateRunning
	StateExited
	StateKilled
	StateReaped
)

func (s ProcessState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	case StateReaped:
		return "reaped"
	default:
		return "unknown"
	}
}

// ExitStatus is the collected result of a reaped process.
type ExitStatus struct {
	Code     int
	Signaled bool
	Killed   bool
}

// Success reports whether the process exited on its own with code 0.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && !s.Signaled
}

// StreamSession tracks the progress of one pumped response.
type StreamSession struct {
	ChunkSize   int
	PacingDelay time.Duration
	BytesSent   int64
	ChunkIndex  int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Duration returns how long the session streamed.
func (s StreamSession) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Outcome labels how an archive job ended.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeDisconnected Outcome = "disconnected"
	OutcomeCanceled     Outcome = "canceled"
	OutcomeFailed       Outcome = "failed"
	OutcomeRejected     Outcome = "rejected"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeSpawnError   Outcome = "spawn_error"
)

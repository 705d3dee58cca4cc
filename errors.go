package zipstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an archive identifier resolves to no directory
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when an archive identifier fails validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrSpawn is returned when the compression executable cannot be started
	ErrSpawn = errors.New("spawn archive process")
	// ErrPeerDisconnected is returned when writing to the client fails mid-stream
	ErrPeerDisconnected = errors.New("peer disconnected")
	// ErrProcessOutput is returned when reading the archive process output fails
	ErrProcessOutput = errors.New("read archive process output")
	// ErrCanceled is returned when the request context is canceled while streaming
	ErrCanceled = errors.New("stream canceled")
	// ErrTooManyJobs is returned when the concurrent job limit is reached
	ErrTooManyJobs = errors.New("too many archive jobs")
	// ErrProcessExit matches any *ProcessExitError
	ErrProcessExit = errors.New("archive process failed")
)

// ProcessExitError reports a compression process that exited unsuccessfully.
type ProcessExitError struct {
	Code   int
	Stderr string
}

func (e *ProcessExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("archive process exited with code %d", e.Code)
	}
	return fmt.Sprintf("archive process exited with code %d: %s", e.Code, e.Stderr)
}

func (e *ProcessExitError) Is(target error) bool {
	return target == ErrProcessExit
}

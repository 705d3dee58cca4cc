package zipstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const historyTimeout = 5 * time.Second

// Recorder observes archive jobs. The metrics package provides the
// Prometheus implementation.
type Recorder interface {
	// JobStarted is called once the archive process is running.
	JobStarted()
	// JobFinished is called once per started job after the process is reaped.
	JobFinished(outcome Outcome, bytes int64, elapsed time.Duration)
	// JobRejected is called when a job never reached the running state.
	JobRejected(outcome Outcome)
	// BytesStreamed is called for every chunk written to a client.
	BytesStreamed(n int)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) JobStarted()                                {}
func (NopRecorder) JobFinished(Outcome, int64, time.Duration) {}
func (NopRecorder) JobRejected(Outcome)                        {}
func (NopRecorder) BytesStreamed(int)                          {}

// ArchiveJob is one running archive download. It is returned by
// ArchiveService.Open and must be closed by the caller.
type ArchiveJob interface {
	// ID returns the unique job id used in logs and response headers.
	ID() string
	// Filename returns the attachment file name.
	Filename() string
	// Stream pumps the archive into w. It may be called once.
	Stream(ctx context.Context, w io.Writer) (StreamSession, error)
	// Close stops and reaps the archive process. It is safe to call more than once.
	Close() error
}

// ServiceConfig holds configuration options for ArchiveService.
type ServiceConfig struct {
	Command     ArchiveCommand
	ChunkSize   int
	PacingDelay time.Duration
	GracePeriod time.Duration // default: 5s
	MaxJobs     int64         // concurrent job limit, 0 means unlimited
	Recorder    Recorder
	History     JobHistory // optional, finished jobs are not stored when nil
	Logger      *slog.Logger
}

// ArchiveService turns archive identifiers into running archive jobs.
type ArchiveService struct {
	resolver *Resolver
	lister   ArchiveLister
	command  ArchiveCommand
	pump     Pump
	grace    time.Duration
	jobs     *semaphore.Weighted
	recorder Recorder
	history  JobHistory
	logger   *slog.Logger
}

func NewArchiveService(resolver *Resolver, lister ArchiveLister, cfg ServiceConfig) (*ArchiveService, error) {
	if resolver == nil {
		return nil, errors.New("new archive service: resolver cannot be nil")
	}
	if cfg.Command.Executable == "" {
		return nil, errors.New("new archive service: executable cannot be empty")
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("new archive service: invalid chunk size: %d", cfg.ChunkSize)
	}
	if cfg.PacingDelay < 0 {
		return nil, fmt.Errorf("new archive service: invalid pacing delay: %s", cfg.PacingDelay)
	}

	grace := cfg.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var jobs *semaphore.Weighted
	if cfg.MaxJobs > 0 {
		jobs = semaphore.NewWeighted(cfg.MaxJobs)
	}

	return &ArchiveService{
		resolver: resolver,
		lister:   lister,
		command:  cfg.Command,
		pump: Pump{
			ChunkSize:   cfg.ChunkSize,
			PacingDelay: cfg.PacingDelay,
		},
		grace:    grace,
		jobs:     jobs,
		recorder: recorder,
		history:  cfg.History,
		logger:   logger,
	}, nil
}

// Open resolves archiveID and starts its archive process. The process is
// bound to ctx: canceling ctx stops it. The returned job must be closed.
//
// Errors wrap ErrNotFound for unknown or invalid identifiers, ErrTooManyJobs
// when the job limit is reached and ErrSpawn when the executable fails to
// start. No process is left behind on error.
func (s *ArchiveService) Open(ctx context.Context, archiveID string) (ArchiveJob, error) {
	req, err := s.resolver.Resolve(ctx, archiveID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.recorder.JobRejected(OutcomeNotFound)
		} else {
			s.recorder.JobRejected(OutcomeFailed)
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if s.jobs != nil && !s.jobs.TryAcquire(1) {
		s.recorder.JobRejected(OutcomeRejected)
		return nil, fmt.Errorf("open archive %q: %w", archiveID, ErrTooManyJobs)
	}

	jobID := uuid.New()
	logger := s.logger.With("job_id", jobID.String(), "archive_id", archiveID)

	proc, err := SpawnProcess(s.command, req, s.grace)
	if err != nil {
		s.releaseSlot()
		s.recorder.JobRejected(OutcomeSpawnError)
		return nil, fmt.Errorf("open archive %q: %w", archiveID, err)
	}
	logger.Info("archive process started", "pid", proc.PID(), "argv", proc.Argv(), "dir", req.Dir)

	guard := NewGuard(proc, s.grace, logger)
	guard.Watch(ctx)
	s.recorder.JobStarted()

	pump := s.pump
	pump.Logger = logger
	pump.OnChunk = s.recorder.BytesStreamed

	return &Job{
		id:       jobID,
		request:  req,
		proc:     proc,
		guard:    guard,
		pump:     pump,
		recorder: s.recorder,
		history:  s.history,
		logger:   logger,
		release:  s.releaseSlot,
		opened:   time.Now(),
	}, nil
}

func (s *ArchiveService) releaseSlot() {
	if s.jobs != nil {
		s.jobs.Release(1)
	}
}

// List returns the archives that can currently be requested.
func (s *ArchiveService) List(ctx context.Context) (ListResult, error) {
	if s.lister == nil {
		return ListResult{Items: []ArchiveEntry{}}, nil
	}
	entries, err := s.lister.List(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("list archives: %w", err)
	}
	if entries == nil {
		entries = []ArchiveEntry{}
	}
	return ListResult{Items: entries}, nil
}

// Job is the ArchiveJob returned by ArchiveService.
type Job struct {
	id       uuid.UUID
	request  ArchiveRequest
	proc     *ArchiveProcess
	guard    *Guard
	pump     Pump
	recorder Recorder
	history  JobHistory
	logger   *slog.Logger
	release  func()
	opened   time.Time

	mu        sync.Mutex
	streamed  bool
	session   StreamSession
	streamErr error

	closeOnce sync.Once
	closeErr  error
}

func (j *Job) ID() string { return j.id.String() }

func (j *Job) Filename() string { return j.request.Filename() }

// Request returns the resolved archive request.
func (j *Job) Request() ArchiveRequest { return j.request }

// Process returns the owned archive process.
func (j *Job) Process() *ArchiveProcess { return j.proc }

// Stream pumps the archive process output into w until the archive is
// complete, the peer disconnects or ctx is canceled.
func (j *Job) Stream(ctx context.Context, w io.Writer) (StreamSession, error) {
	j.mu.Lock()
	if j.streamed {
		j.mu.Unlock()
		return StreamSession{}, fmt.Errorf("stream job %s: already streamed", j.id)
	}
	j.streamed = true
	j.mu.Unlock()

	var session StreamSession
	_, err := j.pump.Run(ctx, j.proc, w, &session)

	j.mu.Lock()
	j.session = session
	j.streamErr = err
	j.mu.Unlock()

	return session, err
}

// Close releases the process guard and the job slot, then records the
// outcome. It returns a *ProcessExitError if the archive process failed on
// its own.
func (j *Job) Close() error {
	j.closeOnce.Do(func() {
		status, err := j.guard.Release()
		j.release()
		finished := time.Now()

		j.mu.Lock()
		streamed, session, streamErr := j.streamed, j.session, j.streamErr
		j.mu.Unlock()

		outcome := classifyOutcome(streamErr)
		switch {
		case !streamed:
			outcome = OutcomeCanceled
		case outcome == OutcomeCompleted && err != nil:
			outcome = OutcomeFailed
		}
		j.recorder.JobFinished(outcome, session.BytesSent, finished.Sub(j.opened))

		attrs := []any{
			"outcome", outcome,
			"bytes", session.BytesSent,
			"chunks", session.ChunkIndex,
			"elapsed", finished.Sub(j.opened),
		}
		switch outcome {
		case OutcomeCompleted:
			j.logger.Info("archive complete", attrs...)
		case OutcomeDisconnected:
			j.logger.Info("download was interrupted, archive process stopped", attrs...)
		case OutcomeCanceled:
			j.logger.Info("archive job canceled", attrs...)
		default:
			logErr := err
			if logErr == nil {
				logErr = streamErr
			}
			j.logger.Warn("archive job failed", append(attrs, "err", logErr)...)
		}

		j.store(JobRecord{
			ID:         j.id,
			ArchiveID:  j.request.ID,
			Outcome:    outcome,
			BytesSent:  session.BytesSent,
			Chunks:     session.ChunkIndex,
			ExitCode:   status.Code,
			StartedAt:  j.opened.UTC(),
			FinishedAt: finished.UTC(),
		})

		j.closeErr = err
	})
	return j.closeErr
}

// store writes the finished job to the history. The request context is
// usually gone by now, so it runs on its own deadline.
func (j *Job) store(record JobRecord) {
	if j.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()

	if err := j.history.Record(ctx, record); err != nil {
		j.logger.Warn("failed to record job history", "err", err)
	}
}

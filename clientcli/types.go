package clientcli

import "time"

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	ArchiveID string
	LocalPath string // empty = file name sent by the server, "-" = stdout
}

// DownloadResult represents the result of downloading an archive.
type DownloadResult struct {
	ArchiveID   string        `json:"archive_id"`
	LocalPath   string        `json:"local_path"`
	JobID       string        `json:"job_id,omitempty"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size_bytes"`
	Duration    time.Duration `json:"duration_ns"`
}

// ListResult contains the archives offered by the server.
type ListResult struct {
	Items []ArchiveInfo `json:"items"`
}

// ArchiveInfo describes one downloadable archive.
type ArchiveInfo struct {
	ID         string    `json:"id"`
	FileCount  int       `json:"file_count"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// TotalSize calculates the total size of all archive contents in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.SizeBytes
	}
	return total
}

// JobsOptions selects a page of the server's job history.
type JobsOptions struct {
	ArchiveID string
	Limit     int
	Cursor    string
}

// JobsResult is one page of finished jobs, newest first.
type JobsResult struct {
	Items      []JobInfo `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// JobInfo describes one finished archive job.
type JobInfo struct {
	ID         string    `json:"id"`
	ArchiveID  string    `json:"archive_id"`
	Outcome    string    `json:"outcome"`
	BytesSent  int64     `json:"bytes_sent"`
	Chunks     int       `json:"chunks"`
	ExitCode   int       `json:"exit_code"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the job ran.
func (j JobInfo) Duration() time.Duration {
	return j.FinishedAt.Sub(j.StartedAt)
}

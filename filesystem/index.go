package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sagarc03/zipstream"
)

// DefaultIndexMaxAge bounds how stale a cached listing can get. fsnotify
// watches only the root and its direct children, so deeper changes are
// picked up when the cache expires.
const DefaultIndexMaxAge = 30 * time.Second

// Lister is the listing source wrapped by Index.
type Lister interface {
	List(ctx context.Context) ([]zipstream.ArchiveEntry, error)
}

// Index caches archive listings and drops the cache when the archive root
// changes.
type Index struct {
	source  Lister
	dir     string
	maxAge  time.Duration
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	mu       sync.RWMutex
	entries  []zipstream.ArchiveEntry
	loadedAt time.Time
	valid    bool
	// generation is bumped by Invalidate; a load only marks the cache valid
	// when no invalidation happened while it ran.
	generation uint64

	done      chan struct{}
	closeOnce sync.Once
}

// NewIndex watches dir and serves listings from source. A zero maxAge uses
// DefaultIndexMaxAge.
func NewIndex(source Lister, dir string, maxAge time.Duration, logger *slog.Logger) (*Index, error) {
	if maxAge <= 0 {
		maxAge = DefaultIndexMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new index: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("new index: watch %s: %w", dir, err)
	}

	idx := &Index{
		source:  source,
		dir:     dir,
		maxAge:  maxAge,
		watcher: watcher,
		logger:  logger,
		done:    make(chan struct{}),
	}

	go idx.run()

	return idx, nil
}

// List returns the cached listing, reloading it from the source when it was
// invalidated or has expired.
func (i *Index) List(ctx context.Context) ([]zipstream.ArchiveEntry, error) {
	i.mu.RLock()
	if i.valid && time.Since(i.loadedAt) < i.maxAge {
		entries := append([]zipstream.ArchiveEntry(nil), i.entries...)
		i.mu.RUnlock()
		return entries, nil
	}
	gen := i.generation
	i.mu.RUnlock()

	entries, err := i.source.List(ctx)
	if err != nil {
		return nil, err
	}

	i.mu.Lock()
	if i.generation == gen {
		i.entries = entries
		i.loadedAt = time.Now()
		i.valid = true
	}
	i.mu.Unlock()

	i.watchChildren(entries)

	return append([]zipstream.ArchiveEntry(nil), entries...), nil
}

// Invalidate drops the cached listing.
func (i *Index) Invalidate() {
	i.mu.Lock()
	i.valid = false
	i.generation++
	i.mu.Unlock()
}

// Close stops watching the archive root.
func (i *Index) Close() error {
	var err error
	i.closeOnce.Do(func() {
		err = i.watcher.Close()
		<-i.done
	})
	return err
}

func (i *Index) watchChildren(entries []zipstream.ArchiveEntry) {
	for _, e := range entries {
		path := filepath.Join(i.dir, e.ID)
		if err := i.watcher.Add(path); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
			i.logger.Debug("failed to watch archive directory", "path", path, "err", err)
		}
	}
}

func (i *Index) run() {
	defer close(i.done)

	for {
		select {
		case event, ok := <-i.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) {
				continue
			}
			i.logger.Debug("archive root changed", "path", event.Name, "op", event.Op.String())
			i.Invalidate()

		case err, ok := <-i.watcher.Errors:
			if !ok {
				return
			}
			i.logger.Warn("archive root watcher error", "err", err)
			i.Invalidate()
		}
	}
}

// Package filesystem provides the archive root for zipstream. Every lookup
// here goes through an os.Root, so archive names and symlinks cannot escape
// the configured directory. This covers the Stat and List done by the server.
// The compression tool reads the directory itself, which is why the default
// zip arguments store links instead of following them.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/sagarc03/zipstream"
)

// Store provides read-only access to archive directories.
type Store struct {
	root *os.Root
}

// NewStore creates a new Store over root.
// The root provides sandboxed file operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// Stat returns info for the archive directory name. Returns
// zipstream.ErrNotFound if name does not exist, escapes the root or is not a
// directory.
func (s *Store) Stat(ctx context.Context, name string) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := s.root.Stat(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("archive stat failed", "name", name, "err", err)
		}
		return nil, fmt.Errorf("stat %s: %w", name, zipstream.ErrNotFound)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("stat %s: not a directory: %w", name, zipstream.ErrNotFound)
	}

	return info, nil
}

// List returns every archive directory directly below the root with its file
// count and total size. Hidden directories and names that are not valid
// archive identifiers are skipped. Entries are sorted by id.
func (s *Store) List(ctx context.Context) ([]zipstream.ArchiveEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list archives: %w", err)
	}

	entries := make([]zipstream.ArchiveEntry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || !zipstream.IsValidArchiveID(name) {
			continue
		}

		info, err := s.root.Stat(name)
		if err != nil || !info.IsDir() {
			continue
		}

		entry := zipstream.ArchiveEntry{ID: name, ModifiedAt: info.ModTime().UTC()}
		if err := s.walkDir(ctx, name, &entry); err != nil {
			return nil, fmt.Errorf("failed to list archives: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entry *zipstream.ArchiveEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return fmt.Errorf("walk dir: %w", err)
	}

	for _, d := range dirEntries {
		entryPath := path.Join(dir, d.Name())

		if d.IsDir() {
			if err := s.walkDir(ctx, entryPath, entry); err != nil {
				return err
			}
			continue
		}

		if !d.Type().IsRegular() {
			continue
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		entry.FileCount++
		entry.SizeBytes += info.Size()
		if mod := info.ModTime().UTC(); mod.After(entry.ModifiedAt) {
			entry.ModifiedAt = mod
		}
	}

	return nil
}

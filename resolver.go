package zipstream

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
)

// DirectoryStore gives sandboxed access to the archive root.
//
// Implementations must confine every lookup to the root directory, including
// symlink targets, and return ErrNotFound for names that do not resolve to a
// directory inside it.
type DirectoryStore interface {
	// Stat returns file info for the directory name directly below the root.
	//
	// Returns:
	//   - fs.FileInfo: info of the directory
	//   - error: ErrNotFound if missing, outside the root, or not a directory
	Stat(ctx context.Context, name string) (fs.FileInfo, error)
}

// ArchiveLister lists the archives that can be requested.
type ArchiveLister interface {
	List(ctx context.Context) ([]ArchiveEntry, error)
}

// Resolver maps archive identifiers to validated directories below a fixed
// base path.
type Resolver struct {
	basePath string
	store    DirectoryStore
}

// NewResolver creates a Resolver for basePath. basePath comes from server
// configuration and is made absolute once here.
func NewResolver(basePath string, store DirectoryStore) (*Resolver, error) {
	if basePath == "" {
		return nil, errors.New("new resolver: base path cannot be empty")
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("new resolver: %w", err)
	}
	return &Resolver{basePath: filepath.Clean(abs), store: store}, nil
}

// BasePath returns the absolute archive root.
func (r *Resolver) BasePath() string {
	return r.basePath
}

// Resolve validates archiveID and checks that it names an existing directory
// directly below the base path. Invalid identifiers are reported as
// ErrNotFound joined with ErrInvalidInput.
func (r *Resolver) Resolve(ctx context.Context, archiveID string) (ArchiveRequest, error) {
	if err := ValidateArchiveID(archiveID); err != nil {
		return ArchiveRequest{}, fmt.Errorf("resolve: %w", errors.Join(ErrNotFound, err))
	}

	if _, err := r.store.Stat(ctx, archiveID); err != nil {
		return ArchiveRequest{}, fmt.Errorf("resolve %q: %w", archiveID, err)
	}

	path := filepath.Join(r.basePath, archiveID)
	if filepath.Dir(path) != r.basePath {
		return ArchiveRequest{}, fmt.Errorf("resolve %q: %w", archiveID, errors.Join(ErrNotFound, ErrInvalidInput))
	}

	return ArchiveRequest{
		ID:       archiveID,
		BasePath: r.basePath,
		Path:     path,
		Dir:      r.basePath,
		Name:     archiveID,
	}, nil
}

// Package storage provides the local-disk blob store that model artifacts are
// written to. Keys are slash-separated paths below a base directory; a group
// of blobs sharing a top-level key is a unit that is swapped in or removed
// with a single rename.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"studentperf/domain/core"
)

// ErrBlobNotFound is returned for keys that do not exist
var ErrBlobNotFound = errors.New("blob not found")

const (
	stagingPrefix = ".staging-"
	trashPrefix   = ".trash-"
)

// BlobMetadata describes a stored blob
type BlobMetadata struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// LocalBlobStore stores blobs on the local filesystem
type LocalBlobStore struct {
	basePath string
}

// NewLocalBlobStore creates a new local blob store
func NewLocalBlobStore(basePath string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalBlobStore{basePath: basePath}, nil
}

// BasePath returns the root directory
func (lbs *LocalBlobStore) BasePath() string { return lbs.basePath }

// StoreBlob writes data under key, replacing any previous blob
func (lbs *LocalBlobStore) StoreBlob(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(lbs.keyToPath(key), data)
}

// GetBlob opens a blob for reading
func (lbs *LocalBlobStore) GetBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(lbs.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return file, nil
}

// ReadBlob returns the full content of a blob
func (lbs *LocalBlobStore) ReadBlob(ctx context.Context, key string) ([]byte, error) {
	rc, err := lbs.GetBlob(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// BlobExists checks if a blob or unit exists
func (lbs *LocalBlobStore) BlobExists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(lbs.keyToPath(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check blob existence: %w", err)
}

// GetBlobMetadata returns metadata for a blob
func (lbs *LocalBlobStore) GetBlobMetadata(ctx context.Context, key string) (*BlobMetadata, error) {
	stat, err := os.Stat(lbs.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	return &BlobMetadata{Key: key, Size: stat.Size(), LastModified: stat.ModTime()}, nil
}

// ListUnits returns the committed top-level keys in lexical order
func (lbs *LocalBlobStore) ListUnits(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(lbs.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	var units []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		units = append(units, e.Name())
	}
	sort.Strings(units)
	return units, nil
}

// Stage starts a new unit in a private directory. Nothing is visible under
// the unit key until Commit.
func (lbs *LocalBlobStore) Stage(ctx context.Context) (*Staging, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(lbs.basePath, stagingPrefix+core.NewID().String())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Staging{store: lbs, dir: dir}, nil
}

// RemoveUnit removes every blob under a top-level key. The unit disappears
// with one rename; the files are then deleted.
func (lbs *LocalBlobStore) RemoveUnit(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	trash := filepath.Join(lbs.basePath, trashPrefix+core.NewID().String())
	if err := os.Rename(lbs.keyToPath(key), trash); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return fmt.Errorf("failed to remove unit %s: %w", key, err)
	}
	if err := os.RemoveAll(trash); err != nil {
		return fmt.Errorf("failed to delete removed unit %s: %w", key, err)
	}
	return nil
}

// CleanupExpired deletes staging and trash directories older than olderThan,
// left behind by interrupted saves or deletes
func (lbs *LocalBlobStore) CleanupExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	entries, err := os.ReadDir(lbs.basePath)
	if err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", lbs.basePath, err)
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, stagingPrefix) && !strings.HasPrefix(name, trashPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(lbs.basePath, name)); err != nil {
			return removed, fmt.Errorf("failed to remove expired %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// keyToPath converts a slash-separated key to a filesystem path
func (lbs *LocalBlobStore) keyToPath(key string) string {
	return filepath.Join(lbs.basePath, filepath.FromSlash(key))
}

// Staging is an uncommitted unit
type Staging struct {
	store *LocalBlobStore
	dir   string
	done  bool
}

// Put writes a blob into the staged unit
func (s *Staging) Put(name string, data []byte) error {
	if s.done {
		return errors.New("staging already finished")
	}
	return writeFile(filepath.Join(s.dir, filepath.FromSlash(name)), data)
}

// Commit publishes the staged unit under key, superseding any unit already
// there. Readers see either the old unit or the new one.
func (s *Staging) Commit(ctx context.Context, key string) error {
	if s.done {
		return errors.New("staging already finished")
	}
	if err := ctx.Err(); err != nil {
		s.Abort()
		return err
	}
	target := s.store.keyToPath(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		s.Abort()
		return fmt.Errorf("failed to create parent of %s: %w", key, err)
	}

	var trash string
	if _, err := os.Stat(target); err == nil {
		trash = filepath.Join(s.store.basePath, trashPrefix+core.NewID().String())
		if err := os.Rename(target, trash); err != nil {
			s.Abort()
			return fmt.Errorf("failed to retire previous unit %s: %w", key, err)
		}
	}
	if err := os.Rename(s.dir, target); err != nil {
		if trash != "" {
			_ = os.Rename(trash, target)
		}
		s.Abort()
		return fmt.Errorf("failed to commit unit %s: %w", key, err)
	}
	s.done = true
	if trash != "" {
		_ = os.RemoveAll(trash)
	}
	return nil
}

// Abort discards the staged unit
func (s *Staging) Abort() {
	if s.done {
		return
	}
	s.done = true
	_ = os.RemoveAll(s.dir)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

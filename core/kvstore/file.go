package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/deployable-tech/deployable-knowledge-web/core/logger"
)

const (
	// fileExt is appended to every sanitized key.
	fileExt = ".json"
	// tmpPrefix marks in-flight writes; such files are invisible to Get and List.
	tmpPrefix = "."
)

// FileStore persists each key as one file in a flat directory.
// Writes go to a unique temporary file in the same directory, are fsynced and
// then renamed over the destination, so readers see either the old or the new
// content and never a mix.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the logger used for best-effort cleanup failures.
func WithFileLogger(l *slog.Logger) FileOption {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFileStore creates the root directory if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...FileOption) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrStorage)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Join(ErrStorage, fmt.Errorf("create store directory %s: %w", dir, err))
	}

	s := &FileStore{
		dir:    dir,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get reads the committed value for key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Join(ErrStorage, fmt.Errorf("read %s: %w", key, err))
	}
	return data, true, nil
}

// Put atomically replaces the value for key.
// On failure the temporary file is removed and the previously committed value
// stays authoritative.
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Join(ErrStorage, fmt.Errorf("create temp file for %s: %w", key, err))
	}
	tmpPath := tmp.Name()

	// discard closes and removes the temp file after a failed step.
	discard := func(step string, cause error) error {
		_ = tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "kvstore: failed to remove temp file",
				logger.Component("kvstore"), slog.String("path", tmpPath), logger.Error(rmErr))
		}
		return errors.Join(ErrStorage, fmt.Errorf("%s %s: %w", step, key, cause))
	}

	if _, err := tmp.Write(data); err != nil {
		return discard("write", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		return discard("chmod", err)
	}
	if err := tmp.Sync(); err != nil {
		return discard("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return discard("close", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return discard("rename", err)
	}

	s.syncDir()
	return nil
}

// Delete removes the file for key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(ErrStorage, fmt.Errorf("delete %s: %w", key, err))
	}
	return nil
}

// List returns committed entries with their modification times.
// In-flight temporary files and anything that is not a regular record file are skipped.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Join(ErrStorage, fmt.Errorf("list %s: %w", s.dir, err))
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, errors.Join(ErrStorage, fmt.Errorf("stat %s: %w", name, err))
		}

		entries = append(entries, Entry{
			Key:     strings.TrimSuffix(name, fileExt),
			ModTime: info.ModTime(),
		})
	}

	return entries, nil
}

// Ping checks that the root directory still exists and is a directory.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrStorage, s.dir)
	}
	return nil
}

func (s *FileStore) path(key string) (string, error) {
	name, err := SanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+fileExt), nil
}

// syncDir flushes the directory entry so a committed rename survives a crash.
// Best effort: some filesystems do not support fsync on directories.
func (s *FileStore) syncDir() {
	d, err := os.Open(s.dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

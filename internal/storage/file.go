// Package storage provides the backends a task store persists through.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// Constants
const (
	DefaultDataFile = "tasks.json"
	BackupSuffix    = ".backup"
	LockSuffix      = ".lock"
	FilePermissions = 0644
)

// FileBackend stores the calendar as one pretty-printed JSON document.
// Reads take a shared and writes an exclusive lock on a sidecar lock file,
// so separate processes on the same file never interleave.
type FileBackend struct {
	path   string
	lock   *flock.Flock
	logger *log.Logger
}

// NewFileBackend returns a backend for path, creating its directory.
func NewFileBackend(path string, logger *log.Logger) (*FileBackend, error) {
	if path == "" {
		path = DefaultDataFile
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &FileBackend{
		path:   path,
		lock:   flock.New(path + LockSuffix),
		logger: logger,
	}, nil
}

// Path returns the data file path.
func (b *FileBackend) Path() string {
	return b.path
}

// Load reads and decodes the data file. A missing file is an empty calendar.
func (b *FileBackend) Load() (*tasks.Calendar, error) {
	if err := b.lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", b.path, err)
	}
	defer b.unlock()

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tasks.NewCalendar(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return tasks.DecodeDocument(data)
}

// Save writes the calendar to a temp file and renames it over the data
// file, keeping the previous content in the backup file.
func (b *FileBackend) Save(cal *tasks.Calendar) error {
	data, err := tasks.EncodeDocument(cal)
	if err != nil {
		return err
	}

	if err := b.lock.Lock(); err != nil {
		return fmt.Errorf("%w: failed to lock %s: %v", tasks.ErrStorageUnavailable, b.path, err)
	}
	defer b.unlock()

	if prev, err := os.ReadFile(b.path); err == nil && !bytes.Equal(prev, data) {
		if err := os.WriteFile(b.path+BackupSuffix, prev, FilePermissions); err != nil {
			b.logger.Warn("failed to create backup", "file", b.path+BackupSuffix, "err", err)
		}
	}

	if err := writeFileAtomic(b.path, data, FilePermissions); err != nil {
		return fmt.Errorf("%w: %v", tasks.ErrStorageUnavailable, err)
	}
	return nil
}

func (b *FileBackend) unlock() {
	if err := b.lock.Unlock(); err != nil {
		b.logger.Warn("failed to release lock", "file", b.lock.Path(), "err", err)
	}
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	// DefaultBackupSuffix is appended to the path to name the backup file.
	DefaultBackupSuffix = ".backup"

	lockRetryDelay = 50 * time.Millisecond
)

// FileStore reads and writes one memory document at a fixed path.
// Every save first moves the previous file aside to the backup path.
type FileStore struct {
	path         string
	backupSuffix string
	locking      bool
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithBackupSuffix changes the suffix used to name the backup file.
func WithBackupSuffix(suffix string) StoreOption {
	return func(fs *FileStore) {
		if suffix != "" {
			fs.backupSuffix = suffix
		}
	}
}

// WithLocking toggles the advisory lock held on <path>.lock while saving.
func WithLocking(enabled bool) StoreOption {
	return func(fs *FileStore) {
		fs.locking = enabled
	}
}

func NewFileStore(path string, opts ...StoreOption) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("memory: invalid store path (empty)")
	}
	fs := &FileStore{
		path:         filepath.Clean(path),
		backupSuffix: DefaultBackupSuffix,
		locking:      true,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs, nil
}

// Path returns the document path.
func (fs *FileStore) Path() string { return fs.path }

// BackupPath returns where the previous document is kept after a save.
func (fs *FileStore) BackupPath() string { return fs.path + fs.backupSuffix }

// LockPath returns the advisory lock file. It is created on the first locked
// save and left in place afterwards; unlinking it would let two processes
// hold locks on different inodes.
func (fs *FileStore) LockPath() string { return fs.path + ".lock" }

// Load reads and validates the document. It returns ErrNotFound if the file
// does not exist, ErrInvalidDocument if it is not a memory document, and
// ErrMarkerMismatch if the marker is wrong.
func (fs *FileStore) Load(_ context.Context) (*Document, error) {
	b, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fs.path)
	}
	if err != nil {
		return nil, fmt.Errorf("memory: read %s: %w", fs.path, err)
	}
	d, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("memory: load %s: %w", fs.path, err)
	}
	return d, nil
}

// Save persists d. An existing file is renamed to BackupPath, replacing any
// older backup, and the new content is written to a temporary file that is
// renamed into place. If writing fails the backup is left where it is.
func (fs *FileStore) Save(ctx context.Context, d *Document) error {
	b, err := Encode(d)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o750); err != nil {
		return fmt.Errorf("memory: create directory: %w", err)
	}

	if fs.locking {
		lock := flock.New(fs.LockPath())
		locked, err := lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("memory: lock %s: %w", fs.path, err)
		}
		if !locked {
			return fmt.Errorf("memory: lock %s: not acquired", fs.path)
		}
		defer func() { _ = lock.Unlock() }()
	}

	if _, err := os.Stat(fs.path); err == nil {
		if err := os.Rename(fs.path, fs.BackupPath()); err != nil {
			return fmt.Errorf("memory: backup %s: %w", fs.path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("memory: stat %s: %w", fs.path, err)
	}

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("memory: write temp file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("memory: atomic rename %s: %w", fs.path, err)
	}
	return nil
}

// Load reads the document at path with default store settings.
func Load(path string) (*Document, error) {
	fs, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return fs.Load(context.Background())
}

// Persist saves d to path with default store settings.
func Persist(d *Document, path string) error {
	fs, err := NewFileStore(path)
	if err != nil {
		return err
	}
	return fs.Save(context.Background(), d)
}

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LockFileName is created inside a data directory while a process owns it
const LockFileName = ".metaweblog.lock"

type FileLock struct {
	file *os.File
	path string
}

// AcquireDataLock takes an exclusive lock on dataDir so only one process
// serves a given post store.
func AcquireDataLock(dataDir string) (*FileLock, error) {
	lockPath := filepath.Join(dataDir, LockFileName)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	// Non-blocking lock - fail fast if another server owns the store
	if err := tryLock(file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("data directory is in use by another process (lock file: %s)", lockPath)
	}

	// Write PID for debugging
	pid := fmt.Sprintf("%d\n%s", os.Getpid(), time.Now().Format(time.RFC3339))
	_ = file.Truncate(0)
	_, _ = file.WriteAt([]byte(pid), 0)

	return &FileLock{file: file, path: lockPath}, nil
}

func (fl *FileLock) Release() error {
	if fl == nil || fl.file == nil {
		return nil
	}

	// Unlock before close
	_ = unlock(fl.file)
	err := fl.file.Close()
	fl.file = nil

	// Best effort cleanup
	_ = os.Remove(fl.path)
	return err
}

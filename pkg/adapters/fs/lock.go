package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// LockFileName is the cross-process lock guarding read-modify-write cycles.
	LockFileName = ".quicknote.lock"

	lockRetry = 10 * time.Millisecond
	// A lock older than this was left behind by a crashed process.
	lockStaleAfter = 30 * time.Second
)

// fileLock is a file-based mutex shared by every process using the store.
type fileLock struct {
	path string
}

func newFileLock(dir string) *fileLock {
	return &fileLock{path: filepath.Join(dir, LockFileName)}
}

// Lock blocks until the lock is acquired or ctx is done.
func (l *fileLock) Lock(ctx context.Context) (func(), error) {
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(l.path)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		if info, statErr := os.Stat(l.path); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			os.Remove(l.path)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock %s: %w", l.path, ctx.Err())
		case <-time.After(lockRetry):
		}
	}
}

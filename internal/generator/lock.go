package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked Lock polls.
const lockRetryDelay = 50 * time.Millisecond

// DefaultLockDir returns ~/.contractgen/locks, where the lock files of
// package directories being rewritten live. Without a home directory it
// falls back to the temp dir.
func DefaultLockDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".contractgen", "locks")
	}
	return filepath.Join(home, ".contractgen", "locks")
}

// DirLock is a cross-process lock on one package directory, so that a watch
// session and a go generate run never rewrite the same files at once.
// The lock file lives outside the source tree.
type DirLock struct {
	dir    string
	path   string
	flock  *flock.Flock
	locked bool
}

// NewDirLock creates the lock for dir. Lock files are named after a hash of
// the cleaned absolute directory and placed in lockDir.
func NewDirLock(lockDir, dir string) *DirLock {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = filepath.Clean(dir)
	}
	sum := sha256.Sum256([]byte(abs))
	path := filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock")
	return &DirLock{
		dir:   abs,
		path:  path,
		flock: flock.New(path),
	}
}

// Lock blocks until the lock is held or ctx is done.
func (l *DirLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	ok, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	if !ok {
		return fmt.Errorf("failed to lock %s: %w", l.dir, ctx.Err())
	}
	l.locked = true
	return nil
}

// TryLock acquires the lock without blocking. It reports false when another
// process holds it.
func (l *DirLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	l.locked = ok
	return ok, nil
}

// Unlock releases the lock. Calling it on an unlocked DirLock is a no-op.
func (l *DirLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.dir, err)
	}
	return nil
}

// Busy returns the directories among dirs whose package lock is held by
// another run, such as a go generate started while watching.
func (g *Generator) Busy(dirs ...string) []string {
	var busy []string
	for _, dir := range dirs {
		lock := NewDirLock(g.opts.LockDir, dir)
		ok, err := lock.TryLock()
		if err != nil {
			slog.Debug("lock probe failed", slog.String("dir", dir), slog.String("error", err.Error()))
			continue
		}
		if !ok {
			busy = append(busy, dir)
			continue
		}
		_ = lock.Unlock()
	}
	return busy
}

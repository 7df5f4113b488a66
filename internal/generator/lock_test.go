package generator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirLock_LockUnlock(t *testing.T) {
	lockDir := t.TempDir()
	lock := NewDirLock(lockDir, t.TempDir())

	require.NoError(t, lock.Lock(context.Background()))
	assert.True(t, lock.locked)
	_, err := os.Stat(lock.path)
	assert.NoError(t, err, "lock file should exist")

	require.NoError(t, lock.Unlock())
	assert.False(t, lock.locked)
}

func TestDirLock_UnlockWithoutLock(t *testing.T) {
	lock := NewDirLock(t.TempDir(), t.TempDir())

	assert.NoError(t, lock.Unlock())
	assert.NoError(t, lock.Unlock())
}

func TestDirLock_SameDirSamePath(t *testing.T) {
	lockDir := t.TempDir()
	dir := t.TempDir()

	a := NewDirLock(lockDir, dir)
	b := NewDirLock(lockDir, dir+"/.")
	c := NewDirLock(lockDir, t.TempDir())

	assert.Equal(t, a.path, b.path)
	assert.NotEqual(t, a.path, c.path)
}

func TestDirLock_TryLockContended(t *testing.T) {
	// Given: one holder of the directory lock
	lockDir := t.TempDir()
	dir := t.TempDir()
	holder := NewDirLock(lockDir, dir)
	require.NoError(t, holder.Lock(context.Background()))
	defer func() { _ = holder.Unlock() }()

	// When: a second lock on the same directory tries
	other := NewDirLock(lockDir, dir)
	ok, err := other.TryLock()

	// Then: it does not get the lock
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, other.locked)
}

func TestDirLock_LockHonorsContext(t *testing.T) {
	lockDir := t.TempDir()
	dir := t.TempDir()
	holder := NewDirLock(lockDir, dir)
	require.NoError(t, holder.Lock(context.Background()))
	defer func() { _ = holder.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := NewDirLock(lockDir, dir).Lock(ctx)

	assert.Error(t, err)
}

func TestDirLock_LockAfterRelease(t *testing.T) {
	lockDir := t.TempDir()
	dir := t.TempDir()
	first := NewDirLock(lockDir, dir)
	require.NoError(t, first.Lock(context.Background()))
	require.NoError(t, first.Unlock())

	second := NewDirLock(lockDir, dir)
	ok, err := second.TryLock()

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, second.Unlock())
}

func TestDefaultLockDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".contractgen", "locks"), DefaultLockDir())
}

func TestGenerator_Busy(t *testing.T) {
	// Given: a package directory locked by another run
	lockDir := t.TempDir()
	held, free := t.TempDir(), t.TempDir()
	holder := NewDirLock(lockDir, held)
	require.NoError(t, holder.Lock(context.Background()))
	defer func() { _ = holder.Unlock() }()

	g := New(Options{LockDir: lockDir})

	// When: probing both directories
	busy := g.Busy(held, free)

	// Then: only the held one is reported, and probing leaves the free one
	// unlocked
	assert.Equal(t, []string{held}, busy)
	ok, err := NewDirLock(lockDir, free).TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
}

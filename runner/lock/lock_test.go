package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsbolt/opsbolt/errors"
)

func TestTryAcquireWritesMarker(t *testing.T) {
	m := NewManager(t.TempDir())

	lease, err := m.TryAcquire("nightlysync")
	require.NoError(t, err)

	entries, err := os.ReadDir(lease.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, strconv.Itoa(os.Getpid()), entries[0].Name())
}

func TestSecondAcquireFails(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.TryAcquire("backup")
	require.NoError(t, err)

	_, err = m.TryAcquire("backup")
	require.Error(t, err)
	assert.True(t, errors.IsLockHeld(err))
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	m := NewManager(t.TempDir())

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.TryAcquire("contended")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won, held int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.IsLockHeld(err):
			held++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, held)
}

func TestDifferentSlugsDoNotContend(t *testing.T) {
	m := NewManager(t.TempDir())

	_, err := m.TryAcquire("joba")
	require.NoError(t, err)
	_, err = m.TryAcquire("jobb")
	require.NoError(t, err)
}

func TestReleaseIdempotent(t *testing.T) {
	m := NewManager(t.TempDir())

	lease, err := m.TryAcquire("backup")
	require.NoError(t, err)

	require.NoError(t, lease.Release())
	require.NoError(t, lease.Release())

	_, err = os.Stat(lease.Dir())
	assert.True(t, os.IsNotExist(err))

	// slug is reusable after release
	_, err = m.TryAcquire("backup")
	assert.NoError(t, err)
}

func TestReleaseToleratesExternalCleanup(t *testing.T) {
	m := NewManager(t.TempDir())

	lease, err := m.TryAcquire("backup")
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(lease.Dir()))
	assert.NoError(t, lease.Release())
}

func TestAge(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	lease, err := m.TryAcquire("old")
	require.NoError(t, err)

	past := time.Now().Add(-90 * time.Minute)
	require.NoError(t, os.Chtimes(lease.Dir(), past, past))

	age, err := m.Age("old")
	require.NoError(t, err)
	assert.InDelta(t, 90*time.Minute, age, float64(time.Minute))
}

func TestAgeMissingLock(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Age("absent")
	assert.Error(t, err)
}

func TestHolder(t *testing.T) {
	m := NewManager(t.TempDir())
	m.pidExists = func(pid int32) (bool, error) { return pid == int32(os.Getpid()), nil }

	_, err := m.TryAcquire("held")
	require.NoError(t, err)

	h, err := m.Holder("held")
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), h.PID)
	assert.True(t, h.Alive)
	assert.False(t, h.MarkerMissing)
}

func TestHolderMarkerMissing(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	// Lock directory with no marker: the narrow window during another
	// run's cleanup, or a crash before the marker write.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "opsbolt-ghost.lock"), 0o755))

	h, err := m.Holder("ghost")
	require.NoError(t, err)
	assert.True(t, h.MarkerMissing)
}

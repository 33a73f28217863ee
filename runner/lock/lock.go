// Package lock implements the per-job exclusive lock used to serialize
// concurrent invocations of the same scheduled job on one host.
//
// The lock is an atomically-created directory named by the job slug. Its
// mere existence means "a run of this job is active". Inside it the holder
// writes one instance marker file named by its PID, for diagnostics only.
// Staleness never triggers forced removal: a run that merely observed the
// lock reports it and leaves it in place for the operator.
package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/opsbolt/opsbolt/errors"
)

// Manager owns the directory under which job locks are created.
type Manager struct {
	dir string

	// pidExists is swappable for tests.
	pidExists func(int32) (bool, error)
}

// NewManager returns a Manager creating locks under dir.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:       dir,
		pidExists: process.PidExists,
	}
}

// Path returns the lock directory path for a job slug.
func (m *Manager) Path(slug string) string {
	return filepath.Join(m.dir, "opsbolt-"+slug+".lock")
}

// TryAcquire atomically creates the lock for slug. There is deliberately no
// existence check beforehand: os.Mkdir either creates a new uniquely-owned
// directory or fails because one exists. On contention it returns
// errors.ErrLockHeld. On success an instance marker named by this process's
// PID is written inside the lock.
func (m *Manager) TryAcquire(slug string) (*Lease, error) {
	dir := m.Path(slug)

	err := os.Mkdir(dir, 0o755)
	if err != nil {
		if os.IsExist(err) {
			return nil, errors.Wrapf(errors.ErrLockHeld, "slug %q", slug)
		}
		return nil, errors.Wrapf(err, "creating lock %s", dir)
	}

	pid := os.Getpid()
	marker := filepath.Join(dir, strconv.Itoa(pid))
	if err := os.WriteFile(marker, []byte(time.Now().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		// Lock exists but is unusable without its marker; undo the acquisition.
		os.Remove(dir)
		return nil, errors.Wrapf(err, "writing instance marker %s", marker)
	}

	return &Lease{dir: dir, marker: marker}, nil
}

// Age returns how long the lock for slug has existed, based on the lock
// directory's modification time (set at creation and never touched again).
func (m *Manager) Age(slug string) (time.Duration, error) {
	info, err := os.Stat(m.Path(slug))
	if err != nil {
		return 0, errors.Wrapf(err, "statting lock for %q", slug)
	}
	return time.Since(info.ModTime()), nil
}

// Holder describes the instance marker found inside an existing lock.
type Holder struct {
	PID           int
	Alive         bool // whether a process with that PID still exists
	MarkerMissing bool // lock exists but no marker: holder mid-cleanup or crashed before write
}

// Holder inspects the lock for slug and reports who holds it. A missing
// marker is a soft anomaly, not an error: it can legitimately happen in the
// window between a runner removing its marker and removing the lock.
func (m *Manager) Holder(slug string) (Holder, error) {
	entries, err := os.ReadDir(m.Path(slug))
	if err != nil {
		return Holder{}, errors.Wrapf(err, "reading lock for %q", slug)
	}

	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		alive := false
		if m.pidExists != nil {
			alive, _ = m.pidExists(int32(pid))
		}
		return Holder{PID: pid, Alive: alive}, nil
	}

	return Holder{MarkerMissing: true}, nil
}

// Lease represents a held lock. Only the run that acquired it may release it.
type Lease struct {
	dir    string
	marker string

	mu       sync.Mutex
	released bool
}

// Dir returns the lock directory this lease owns.
func (l *Lease) Dir() string { return l.dir }

// Release removes the instance marker and then the lock directory. It is
// idempotent and tolerates either already being absent, so it is safe to
// call from both the normal exit path and a deferred cleanup.
func (l *Lease) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}

	if err := os.Remove(l.marker); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing instance marker %s", l.marker)
	}
	if err := os.Remove(l.dir); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing lock %s", l.dir)
	}

	l.released = true
	return nil
}

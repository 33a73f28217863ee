package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opsbolt/opsbolt/errors"
)

// debugLog is the durable per-job trace: one file per job per calendar day,
// appended by every invocation that day. Each line carries a timestamp, the
// invocation's PID, and its run ID so overlapping invocations interleave
// legibly.
type debugLog struct {
	f     *os.File
	pid   int
	runID string
	now   func() time.Time
}

func openDebugLog(dir, slug, runID string, now func() time.Time) (*debugLog, error) {
	name := fmt.Sprintf("%s-%s.log", slug, now().Format("20060102"))
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening debug log %s", path)
	}

	return &debugLog{f: f, pid: os.Getpid(), runID: runID, now: now}, nil
}

func (d *debugLog) printf(format string, args ...interface{}) {
	line := fmt.Sprintf("%s [pid %d run %s] %s\n",
		d.now().Format("2006-01-02 15:04:05"), d.pid, d.runID,
		fmt.Sprintf(format, args...))
	d.f.WriteString(line)
}

// Writer exposes the underlying file for wiring as the child's stdout.
func (d *debugLog) Writer() *os.File { return d.f }

func (d *debugLog) Close() error { return d.f.Close() }

// Package runner implements the locking task runner: a single-host
// mutual-exclusion supervisor for recurring scheduled jobs. Each invocation
// acquires a per-job lock, runs the target command as a supervised child,
// filters captured stderr, and routes failures through a throttled alert
// path. Invocations that lose the lock inspect its age and either exit
// quietly or escalate a stale lock; they never remove another run's lock.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/internal/util"
	"github.com/opsbolt/opsbolt/logger"
	"github.com/opsbolt/opsbolt/notify"
	"github.com/opsbolt/opsbolt/runner/lock"
)

// Options configures one invocation. All fields are immutable once the
// Runner is constructed.
type Options struct {
	JobName string // human-assigned, reduced to the slug coordination key
	WorkDir string // child's working directory
	Command string // command line, shell-quoted

	LogDir  string // default: <WorkDir>/logs
	LockDir string // default: OS temp dir

	EmailTo []string
	SMSTo   []string

	MaxRunMinutes   int // lock older than this is stale (default 60)
	AlertGapMinutes int // min gap between alert dispatches (default 60)

	FilterRules []Rule // extends the always-on blank-line suppression
}

func (o *Options) withDefaults() (Options, error) {
	out := *o
	if out.JobName == "" || out.WorkDir == "" || out.Command == "" {
		return out, errors.WithHint(errors.ErrUsage,
			"job name, working directory, and command are mandatory")
	}
	if util.Slug(out.JobName) == "" {
		return out, errors.WithHintf(errors.ErrUsage,
			"job name %q contains no alphanumeric characters", out.JobName)
	}
	if out.LogDir == "" {
		out.LogDir = filepath.Join(out.WorkDir, "logs")
	}
	if out.LockDir == "" {
		out.LockDir = os.TempDir()
	}
	if out.MaxRunMinutes == 0 {
		out.MaxRunMinutes = 60
	}
	if out.AlertGapMinutes == 0 {
		out.AlertGapMinutes = 60
	}
	return out, nil
}

// Runner executes one supervised invocation of one job.
type Runner struct {
	opts     Options
	slug     string
	runID    string
	locks    *lock.Manager
	throttle *Throttle
	filter   *Filter
	notifier notify.Notifier
	now      func() time.Time
}

// New validates options and builds a Runner. Mandatory-field violations
// return errors.ErrUsage before any side effect.
func New(opts Options, notifier notify.Notifier) (*Runner, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	filter, err := NewFilter(opts.FilterRules)
	if err != nil {
		return nil, err
	}

	slug := util.Slug(opts.JobName)
	return &Runner{
		opts:  opts,
		slug:  slug,
		runID: uuid.NewString()[:8],
		locks: lock.NewManager(opts.LockDir),
		throttle: NewThrottle(opts.LogDir, slug, opts.JobName,
			time.Duration(opts.AlertGapMinutes)*time.Minute,
			notifier, opts.EmailTo, opts.SMSTo),
		filter:   filter,
		notifier: notifier,
		now:      time.Now,
	}, nil
}

// Run performs the whole invocation. A nil return means exit 0 (clean run,
// or lock young and legitimately held elsewhere); errors.ErrJobFailed means
// the scheduler should see a failure; anything else is an environment error.
func (r *Runner) Run(ctx context.Context) error {
	if err := os.MkdirAll(r.opts.LogDir, 0o755); err != nil {
		return r.environmentError(ctx, errors.Wrapf(err, "creating log directory %s", r.opts.LogDir))
	}

	dlog, err := openDebugLog(r.opts.LogDir, r.slug, r.runID, r.now)
	if err != nil {
		return r.environmentError(ctx, err)
	}
	defer dlog.Close()

	dlog.printf("start job=%q command=%q workdir=%s", r.opts.JobName, r.opts.Command, r.opts.WorkDir)

	lease, err := r.locks.TryAcquire(r.slug)
	if errors.IsLockHeld(err) {
		return r.handleLockHeld(ctx, dlog)
	}
	if err != nil {
		return r.environmentError(ctx, err)
	}
	// Backstop: the lock is always released when this invocation ends,
	// normal or not. Release is idempotent.
	defer lease.Release()
	dlog.printf("lock acquired at %s", lease.Dir())

	errBuf, err := os.CreateTemp(r.opts.LogDir, r.slug+"-stderr-*")
	if err != nil {
		return r.environmentError(ctx, errors.Wrap(err, "creating stderr buffer"))
	}
	defer os.Remove(errBuf.Name())
	defer errBuf.Close()

	res, execErr := Execute(ctx, r.opts.Command, r.opts.WorkDir, dlog.Writer(), errBuf)
	if execErr != nil {
		dlog.printf("execution error: %v", execErr)
		return r.jobFailed(ctx, dlog, execErr.Error()+"\n")
	}

	if res.Interrupted {
		dlog.printf("signalType=interrupt: termination forwarded to child, lock released, no alert")
		lease.Release()
		return nil
	}

	raw, err := os.ReadFile(errBuf.Name())
	if err != nil {
		return r.environmentError(ctx, errors.Wrap(err, "reading stderr buffer"))
	}

	cleaned := r.filter.Apply(string(raw))
	if cleaned != "" {
		dlog.printf("captured error output (%d bytes after filtering), exit=%d", len(cleaned), res.ExitCode)
		return r.jobFailed(ctx, dlog, cleaned)
	}

	dlog.printf("completed cleanly exit=%d", res.ExitCode)
	if err := lease.Release(); err != nil {
		logger.Warnw("lock release failed", "job", r.opts.JobName, "error", err)
	}
	return nil
}

// handleLockHeld is the loser path: inspect the existing lock's age and
// either exit quietly or escalate. The lock itself is never touched.
func (r *Runner) handleLockHeld(ctx context.Context, dlog *debugLog) error {
	maxAge := time.Duration(r.opts.MaxRunMinutes) * time.Minute

	age, err := r.locks.Age(r.slug)
	if err != nil {
		// Lock vanished between acquire failure and the stat: the holder
		// finished in the window. Treat as a young lock.
		dlog.printf("lock disappeared during age check, treating as active run")
		return nil
	}

	holderNote := r.describeHolder(dlog)

	if age <= maxAge {
		dlog.printf("lock held (age %s <= max %s)%s, exiting quietly", age.Round(time.Second), maxAge, holderNote)
		logger.Infow("another run is active", "job", r.opts.JobName, "lock_age", age.Round(time.Second))
		return nil
	}

	msg := fmt.Sprintf("job %q lock is stale: held for %s, configured maximum is %s%s (lock left in place at %s for inspection)",
		r.opts.JobName, age.Round(time.Minute), maxAge, holderNote, r.locks.Path(r.slug))
	dlog.printf("stale lock: %s", msg)

	if _, err := r.throttle.Report(ctx, msg+"\n"); err != nil {
		logger.Errorw("alert dispatch failed", "job", r.opts.JobName, "error", err)
	}
	return errors.Wrap(errors.ErrJobFailed, "stale lock")
}

// describeHolder annotates log lines with instance-marker diagnostics.
// Log annotation only: a missing marker or dead holder never changes
// control flow.
func (r *Runner) describeHolder(dlog *debugLog) string {
	holder, err := r.locks.Holder(r.slug)
	switch {
	case err != nil:
		return ""
	case holder.MarkerMissing:
		return " (no instance marker: holder mid-cleanup or crashed before write)"
	case holder.Alive:
		return fmt.Sprintf(" (held by live pid %d)", holder.PID)
	default:
		return fmt.Sprintf(" (held by pid %d, no longer running)", holder.PID)
	}
}

// jobFailed routes error text through the alert throttle and returns the
// failure the scheduler must see. Suppressed or failed dispatches still
// exit nonzero.
func (r *Runner) jobFailed(ctx context.Context, dlog *debugLog, text string) error {
	sent, err := r.throttle.Report(ctx, text)
	if err != nil {
		logger.Errorw("alert dispatch failed", "job", r.opts.JobName, "error", err)
		dlog.printf("alert dispatch failed: %v", err)
	} else if !sent {
		dlog.printf("alert buffered (within gap)")
	} else {
		dlog.printf("alert dispatched")
	}
	return errors.Wrap(errors.ErrJobFailed, "command produced error output")
}

// environmentError covers failures to create working files before or
// outside the supervised run: best-effort direct notification, then exit 1.
// The throttle's markers may themselves be unwritable here, so this path
// bypasses it.
func (r *Runner) environmentError(ctx context.Context, cause error) error {
	logger.Errorw("environment error", "job", r.opts.JobName, "error", cause)
	subject := fmt.Sprintf("[opsbolt] job %q environment error", r.opts.JobName)
	for _, to := range r.opts.EmailTo {
		if err := r.notifier.SendEmail(ctx, to, subject, cause.Error()); err != nil {
			logger.Warnw("best-effort notification failed", "to", to, "error", err)
		}
	}
	return cause
}

package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opsbolt/opsbolt/errors"
	"github.com/opsbolt/opsbolt/internal/util"
	"github.com/opsbolt/opsbolt/logger"
	"github.com/opsbolt/opsbolt/notify"
)

// Throttle decides whether an observed error is dispatched now or merely
// buffered, based on the time since the last dispatch for this job slug.
//
// Two durable markers per slug survive across invocations: an append-only
// pending error log and a last-sent timestamp file. The pending log is
// cleared exactly when a dispatch succeeds; the timestamp only moves
// forward. Suppression never changes the invocation's exit status — the gap
// exists to stop alert floods, not to hide failures from the scheduler.
type Throttle struct {
	JobName  string
	Gap      time.Duration
	Notifier notify.Notifier
	EmailTo  []string
	SMSTo    []string

	pendingPath string
	markerPath  string

	now func() time.Time
}

// NewThrottle creates a Throttle whose markers live under dir, keyed by slug.
func NewThrottle(dir, slug, jobName string, gap time.Duration, n notify.Notifier, emailTo, smsTo []string) *Throttle {
	return &Throttle{
		JobName:     jobName,
		Gap:         gap,
		Notifier:    n,
		EmailTo:     emailTo,
		SMSTo:       smsTo,
		pendingPath: filepath.Join(dir, slug+".pending-errors.log"),
		markerPath:  filepath.Join(dir, slug+".last-alert"),
		now:         time.Now,
	}
}

// Report appends text to the pending error log and evaluates the gap.
// It returns whether a notification was dispatched. Dispatch failures keep
// the pending log and marker untouched so the next invocation retries.
func (t *Throttle) Report(ctx context.Context, text string) (bool, error) {
	if err := t.appendPending(text); err != nil {
		return false, err
	}

	if lastSent, ok := t.lastSent(); ok && t.now().Sub(lastSent) <= t.Gap {
		logger.Infow("alert suppressed within gap",
			"job", t.JobName,
			"last_sent", lastSent.Format(time.RFC3339),
			"gap", t.Gap)
		return false, nil
	}

	pending, err := os.ReadFile(t.pendingPath)
	if err != nil {
		return false, errors.Wrapf(err, "reading pending error log %s", t.pendingPath)
	}

	if err := t.dispatch(ctx, string(pending)); err != nil {
		return false, err
	}

	// Clear exactly on successful dispatch.
	if err := os.WriteFile(t.pendingPath, nil, 0o644); err != nil {
		return true, errors.Wrapf(err, "clearing pending error log %s", t.pendingPath)
	}
	if err := os.WriteFile(t.markerPath, []byte(t.now().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		return true, errors.Wrapf(err, "writing last-alert marker %s", t.markerPath)
	}
	return true, nil
}

// Pending returns the accumulated unsent error text.
func (t *Throttle) Pending() string {
	raw, err := os.ReadFile(t.pendingPath)
	if err != nil {
		return ""
	}
	return string(raw)
}

func (t *Throttle) appendPending(text string) error {
	f, err := os.OpenFile(t.pendingPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening pending error log %s", t.pendingPath)
	}
	defer f.Close()

	stamped := fmt.Sprintf("[%s] %s", t.now().Format(time.RFC3339), text)
	if len(text) == 0 || text[len(text)-1] != '\n' {
		stamped += "\n"
	}
	if _, err := f.WriteString(stamped); err != nil {
		return errors.Wrapf(err, "appending to pending error log %s", t.pendingPath)
	}
	return nil
}

// lastSent reads the marker; absent or unparsable means "never sent".
func (t *Throttle) lastSent() (time.Time, bool) {
	raw, err := os.ReadFile(t.markerPath)
	if err != nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, trimNewline(string(raw)))
	if err != nil {
		logger.Warnw("unparsable last-alert marker, treating as never sent",
			"path", t.markerPath, "error", err)
		return time.Time{}, false
	}
	return ts, true
}

// dispatch fans the full pending log out to every email recipient and an
// SMS-sized digest to every SMS recipient. Any failed send aborts and is
// reported; successful recipients may receive the same text again on retry.
func (t *Throttle) dispatch(ctx context.Context, pending string) error {
	subject := fmt.Sprintf("[opsbolt] job %q failed", t.JobName)

	for _, to := range t.EmailTo {
		if err := t.Notifier.SendEmail(ctx, to, subject, pending); err != nil {
			return errors.Wrapf(err, "emailing %s", to)
		}
	}

	digest := util.TruncateBytes(pending, notify.MaxSMSBytes)
	for _, to := range t.SMSTo {
		if err := t.Notifier.SendSMS(ctx, to, digest); err != nil {
			return errors.Wrapf(err, "texting %s", to)
		}
	}

	logger.Infow("alert dispatched",
		"job", t.JobName,
		"email_recipients", len(t.EmailTo),
		"sms_recipients", len(t.SMSTo))
	return nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

package runner

import (
	"context"
	"io"
	"os/exec"
	"syscall"

	"github.com/kballard/go-shellquote"

	"github.com/opsbolt/opsbolt/errors"
)

// ExecResult describes one supervised command execution.
type ExecResult struct {
	Interrupted bool // runner was cancelled and forwarded termination to the child
	ExitCode    int  // -1 when the child died to a signal or never ran
}

// Execute runs the command string as a supervised child process in workDir,
// with stdout appended to the debug stream and stderr captured into the
// error buffer. The child runs in the background; the cancellable wait is
// the runner's sole blocking point. On cancellation, SIGTERM is forwarded
// to the child and the wait continues so the child is always reaped.
//
// A nonzero exit code is not itself a failure: whether the job failed is
// judged on the filtered error buffer by the caller.
func Execute(ctx context.Context, command, workDir string, stdout, stderr io.Writer) (ExecResult, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return ExecResult{ExitCode: -1}, errors.Wrapf(err, "parsing command %q", command)
	}
	if len(words) == 0 {
		return ExecResult{ExitCode: -1}, errors.New("empty command")
	}

	cmd := exec.Command(words[0], words[1:]...)
	cmd.Dir = workDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return ExecResult{ExitCode: -1}, errors.Wrapf(err, "starting command %q", words[0])
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		cmd.Process.Signal(syscall.SIGTERM)
		<-done
		return ExecResult{Interrupted: true, ExitCode: -1}, nil
	case waitErr := <-done:
		var exitErr *exec.ExitError
		switch {
		case waitErr == nil:
			return ExecResult{ExitCode: 0}, nil
		case errors.As(waitErr, &exitErr):
			return ExecResult{ExitCode: exitErr.ExitCode()}, nil
		default:
			return ExecResult{ExitCode: -1}, errors.Wrap(waitErr, "waiting for command")
		}
	}
}

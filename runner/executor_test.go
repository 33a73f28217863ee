package runner

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteCapturesStreams(t *testing.T) {
	var out, errBuf bytes.Buffer

	res, err := Execute(context.Background(),
		`sh -c 'echo to-stdout; echo to-stderr 1>&2'`, t.TempDir(), &out, &errBuf)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Interrupted)
	assert.Equal(t, "to-stdout\n", out.String())
	assert.Equal(t, "to-stderr\n", errBuf.String())
}

func TestExecuteRunsInWorkDir(t *testing.T) {
	dir := t.TempDir()
	var out, errBuf bytes.Buffer

	_, err := Execute(context.Background(), "pwd", dir, &out, &errBuf)
	require.NoError(t, err)
	assert.Contains(t, out.String(), dir)
}

func TestExecuteNonzeroExitNotAnError(t *testing.T) {
	var out, errBuf bytes.Buffer

	res, err := Execute(context.Background(), `sh -c 'exit 3'`, t.TempDir(), &out, &errBuf)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestExecuteStartFailure(t *testing.T) {
	var out, errBuf bytes.Buffer

	_, err := Execute(context.Background(), "definitely-not-a-command-xyz", t.TempDir(), &out, &errBuf)
	assert.Error(t, err)
}

func TestExecuteEmptyCommand(t *testing.T) {
	var out, errBuf bytes.Buffer
	_, err := Execute(context.Background(), "   ", t.TempDir(), &out, &errBuf)
	assert.Error(t, err)
}

func TestExecuteBadQuoting(t *testing.T) {
	var out, errBuf bytes.Buffer
	_, err := Execute(context.Background(), `echo "unterminated`, t.TempDir(), &out, &errBuf)
	assert.Error(t, err)
}

func TestExecuteForwardsInterrupt(t *testing.T) {
	var out, errBuf bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := Execute(ctx, "sleep 30", t.TempDir(), &out, &errBuf)
	require.NoError(t, err)

	assert.True(t, res.Interrupted)
	assert.Less(t, time.Since(start), 5*time.Second, "child must be terminated, not waited out")
}

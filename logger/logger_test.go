package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilSafeBeforeInitialize(t *testing.T) {
	// Must not panic even if Initialize was never called.
	Infow("startup", "k", "v")
	Errorw("boom", "k", "v")
	Debugw("detail")
	Cleanup()
}

func TestInitializeConsole(t *testing.T) {
	require.NoError(t, Initialize(false, false))
	assert.False(t, JSONOutput)
	assert.NotNil(t, Logger)
}

func TestInitializeJSON(t *testing.T) {
	require.NoError(t, Initialize(true, true))
	assert.True(t, JSONOutput)
	assert.NotNil(t, Logger)
}

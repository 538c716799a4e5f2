package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerbosityFiltersMessages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Verbosity: int(Info), Console: &buf}))
	defer SetVerbosity(int(Info))

	Infof("event=visible leg=%d", 1)
	Debugf("event=hidden")

	out := buf.String()
	assert.Contains(t, out, "event=visible leg=1")
	assert.NotContains(t, out, "event=hidden")

	SetVerbosity(int(Trace))
	Tracef("event=trace_now")
	assert.Contains(t, buf.String(), "event=trace_now")
}

func TestSetVerbosityClamps(t *testing.T) {
	defer SetVerbosity(int(Info))

	SetVerbosity(-5)
	assert.Equal(t, Error, Verbosity())

	SetVerbosity(42)
	assert.Equal(t, Trace, Verbosity())
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "picker.log")
	var console bytes.Buffer

	require.NoError(t, Init(Options{Verbosity: int(Info), Console: &console, FilePath: path, MaxSize: 1}))
	Errorf("event=file_check")
	require.NoError(t, Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "event=file_check")
}

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(" info "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(""))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("bogus"))
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "warn", Console: &buf})
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown", zap.String("path", "a.go"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "a.go")
}

func TestVerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "error", Verbose: true, Console: &buf})
	require.NoError(t, err)
	defer closeFn()

	logger.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestFileOutput(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "cmtscan.log")

	logger, closeFn, err := New(Options{Console: &buf, File: path})
	require.NoError(t, err)
	logger.Debug("to file only")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file only")
	assert.NotContains(t, buf.String(), "to file only")
}

func TestGlobalHelpersAreSafeWithoutLogger(t *testing.T) {
	SetGlobal(nil)
	assert.NotPanics(t, func() {
		Debug("x")
		Info("x")
		Warn("x")
		Error("x")
	})

	var buf bytes.Buffer
	closeFn, err := Init(Options{Level: "info", Console: &buf})
	require.NoError(t, err)
	defer func() {
		closeFn()
		SetGlobal(nil)
	}()

	Info("global message")
	assert.Contains(t, buf.String(), "global message")
}

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud", Encoding: "xml"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	l, err := New(Config{Level: "debug", OutputPath: path})
	require.NoError(t, err)

	l.Debug("passage resolved", zap.String("passageID", "p-1"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"DEBUG"`)
	assert.Contains(t, string(data), `"timestamp"`)
	assert.Contains(t, string(data), `"passageID":"p-1"`)
}

func TestNew_AddsServiceField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svc.log")
	l, err := New(Config{OutputPath: path, Service: "passage-server"})
	require.NoError(t, err)

	l.Info("started")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"passage-server"`)
	assert.NotContains(t, string(data), `"caller"`)
}

func TestEncodingFallsBackToJSON(t *testing.T) {
	assert.Equal(t, EncodingConsole, encoding("Console"))
	assert.Equal(t, EncodingJSON, encoding("xml"))
	assert.Equal(t, EncodingJSON, encoding(""))
}

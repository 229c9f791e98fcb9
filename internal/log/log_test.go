package log

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := GetZapLogger()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })
	return logs
}

func TestLogHTTPRequest(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		level  zapcore.Level
	}{
		{"ok", 200, nil, zapcore.InfoLevel},
		{"not found", 404, nil, zapcore.InfoLevel},
		{"server error", 500, nil, zapcore.ErrorLevel},
		{"handler error", 200, errors.New("broken pipe"), zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t)
			LogHTTPRequest("GET", "/manifest", tt.status, 3*time.Millisecond, 42, "127.0.0.1:5000", "curl", tt.err)

			require.Equal(t, 1, logs.Len())
			e := logs.All()[0]
			assert.Equal(t, tt.level, e.Level)
			assert.Equal(t, "http request", e.Message)
			fields := e.ContextMap()
			assert.Equal(t, "/manifest", fields["path"])
			assert.EqualValues(t, tt.status, fields["status"])
			assert.EqualValues(t, 3, fields["duration_ms"])
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), fields["error"])
			}
		})
	}
}

func TestInitWithFile(t *testing.T) {
	prev := GetZapLogger()
	t.Cleanup(func() { SetLogger(prev) })

	path := filepath.Join(t.TempDir(), "amrvtk.log")
	require.NoError(t, Init(Options{File: path, MaxSizeMB: 1}))
	Infow("snapshot processed", "step", 3)
	Sync()

	assert.FileExists(t, path)
}

package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		enabled zapcore.Level
		wantErr bool
	}{
		{"default", DefaultConfig(), zapcore.InfoLevel, false},
		{"debug development", Config{Level: "debug", Development: true}, zapcore.DebugLevel, false},
		{"empty level", Config{}, zapcore.InfoLevel, false},
		{"bad level", Config{Level: "loud"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.enabled-1))
		})
	}
}

func TestNew_WritesToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, path)
}

func TestNewOrNop(t *testing.T) {
	logger := NewOrNop(Config{Level: "loud"})
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.FatalLevel), "falls back to a no-op logger")
}

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLogLevels(t *testing.T) {
	defer InitWithFileConfig("info", FileConfig{}, false)
	dir := t.TempDir()

	for _, tt := range []struct {
		level    string
		expected []string
		excluded []string
	}{
		{level: "error", expected: []string{"ERROR"}, excluded: []string{"WARN", "INFO", "DEBUG"}},
		{level: "warn", expected: []string{"ERROR", "WARN"}, excluded: []string{"INFO", "DEBUG"}},
		{level: "info", expected: []string{"ERROR", "WARN", "INFO"}, excluded: []string{"DEBUG"}},
		{level: "debug", expected: []string{"ERROR", "WARN", "INFO", "DEBUG"}},
	} {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(dir, tt.level+".log")
			InitWithFileConfig(tt.level, FileConfig{Path: path, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}, false)

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, exp := range tt.expected {
				assert.Contains(t, string(content), exp)
			}
			for _, exc := range tt.excluded {
				assert.NotContains(t, string(content), exc)
			}
		})
	}
}

func TestNamedLogger(t *testing.T) {
	defer InitWithFileConfig("info", FileConfig{}, false)

	path := filepath.Join(t.TempDir(), "named.log")
	log := InitWithFileConfig("debug", FileConfig{Path: path, MaxSizeMB: 1}, false)
	log.Named("processor").Info("vertices reduced")
	Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(content))
	assert.Contains(t, line, "[processor]")
	assert.Contains(t, line, "vertices reduced")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")
	assert.Equal(t, FileConfig{Path: "/tmp/test.log", MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}, cfg)
}

package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		entries = append(entries, entry)
	}
	return entries
}

func TestZerologLogger_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: "debug", Service: "gitlab-mcp", Output: &buf})

	logger.Info("Tool call completed", map[string]interface{}{
		"tool":      "gitlab_list_mrs",
		"exit_code": 0,
	})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "Tool call completed", entries[0]["message"])
	assert.Equal(t, "gitlab_list_mrs", entries[0]["tool"])
	assert.Equal(t, "gitlab-mcp", entries[0]["service"])
	assert.EqualValues(t, 0, entries[0]["exit_code"])
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: "warn", Output: &buf})

	logger.Debug("hidden", nil)
	logger.Info("hidden", nil)
	logger.Warnf("visible %d", 1)
	logger.Error("visible", nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "visible 1", entries[0]["message"])
	assert.Equal(t, "error", entries[1]["level"])
}

func TestZerologLogger_WithPrefixAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &buf})

	logger.WithPrefix("executor").With(map[string]interface{}{"backend": "sonarqube"}).Info("ready", nil)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "executor", entries[0]["component"])
	assert.Equal(t, "sonarqube", entries[0]["backend"])
}

func TestZerologLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Format: "console", Output: &buf})

	logger.Info("starting", map[string]interface{}{"tools": 7})

	out := buf.String()
	assert.Contains(t, out, "starting")
	assert.Contains(t, out, "tools=7")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))))
}

func TestZerologLogger_StdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Output: &buf})

	logger.StdLogger("stdio").Printf("read error: %s", "EOF")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0]["level"])
	assert.Equal(t, "stdio", entries[0]["component"])
	assert.Equal(t, "read error: EOF", entries[0]["message"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}

	assert.True(t, ValidLevel("Debug"))
	assert.False(t, ValidLevel("verbose"))
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	assert.NotPanics(t, func() {
		logger.Info("x", nil)
		logger.Fatal("x", nil)
		logger.WithPrefix("p").With(nil).Errorf("%s", "y")
	})
}

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONDispatcherLogger(buf *bytes.Buffer) *DispatcherLogger {
	return NewDispatcherLogger(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestDispatcherLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONDispatcherLogger(&buf)

	l.Debug("queued", "command", "throttle")
	l.Info("handled", "command", "rudder", "accepted", true)
	l.Error("failed", "command", "warp", "error", "invalid_time_warp")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 3)

	tests := []struct {
		level, msg, command string
	}{
		{"DEBUG", "queued", "throttle"},
		{"INFO", "handled", "rudder"},
		{"ERROR", "failed", "warp"},
	}
	for i, tt := range tests {
		assert.Equal(t, tt.level, recs[i]["level"])
		assert.Equal(t, tt.msg, recs[i]["msg"])
		assert.Equal(t, "dispatcher", recs[i]["component"])
		assert.Equal(t, tt.command, recs[i]["command"])
	}
	assert.Equal(t, true, recs[1]["accepted"])
	assert.Equal(t, "invalid_time_warp", recs[2]["error"])
}

func TestDispatcherLogger_NoKeyValues(t *testing.T) {
	var buf bytes.Buffer
	newJSONDispatcherLogger(&buf).Info("started")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "started", recs[0]["msg"])
	assert.Equal(t, "dispatcher", recs[0]["component"])
}

func TestDispatcherLogger_OddKeyValues(t *testing.T) {
	var buf bytes.Buffer
	newJSONDispatcherLogger(&buf).Info("dangling", "command", "fuel", "orphan")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "fuel", recs[0]["command"])
	// slog keeps a trailing key without value under !BADKEY
	assert.Equal(t, "orphan", recs[0]["!BADKEY"])
	assert.Equal(t, "dispatcher", recs[0]["component"])
}

func TestDispatcherLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewDispatcherLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	l.Debug("hidden")
	assert.Empty(t, buf.String())
	l.Info("shown")
	assert.Contains(t, buf.String(), `"component":"dispatcher"`)
}

func TestDispatcherLogger_ImplementsInterface(t *testing.T) {
	var _ interface {
		Debug(msg string, keysAndValues ...any)
		Info(msg string, keysAndValues ...any)
		Error(msg string, keysAndValues ...any)
	} = NewDispatcherLogger(slog.Default())
}

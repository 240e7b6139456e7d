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

func TestInitTextOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelInfo, Output: &buf})
	defer Init(DefaultConfig())

	Info("alarm fired", KeyGroup, "08:00-daily")

	out := buf.String()
	assert.Contains(t, out, "alarm fired")
	assert.Contains(t, out, "08:00-daily")
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelDebug, JSON: true, Output: &buf})
	defer Init(DefaultConfig())

	DebugLog("subscription saved", KeyEndpoint, "https://push.example/abc")

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "subscription saved", record["msg"])
	assert.Equal(t, "https://push.example/abc", record[KeyEndpoint])
}

func TestDebugFlag(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelDebug, Output: &buf})
	defer Init(DefaultConfig())
	assert.True(t, Debug)

	Init(Config{Level: slog.LevelInfo, Output: &buf})
	assert.False(t, Debug)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: slog.LevelWarn, Output: &buf})
	defer Init(DefaultConfig())

	Info("should be dropped")
	Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should appear")
}

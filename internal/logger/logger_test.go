package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRenamedKeys(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info("hello")

	entry := parseLine(t, &buf)
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestWarnLevelRendersAsWarning(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)

	log.Warn("careful")

	entry := parseLine(t, &buf)
	assert.Equal(t, "warning", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)

	log.Info("suppressed")
	assert.Zero(t, buf.Len())

	log.Error("kept")
	assert.NotZero(t, buf.Len())
}

func TestWithHelpers(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf).
		WithModule("webhook").
		WithRequestID("req-1").
		WithField("user_id", "U123").
		WithError(errors.New("boom"))

	log.Info("event")

	entry := parseLine(t, &buf)
	assert.Equal(t, "webhook", entry["module"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "U123", entry["user_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf).WithFields(map[string]any{
		"mode":  "speaking",
		"score": 85,
	})

	log.Info("scored")

	entry := parseLine(t, &buf)
	assert.Equal(t, "speaking", entry["mode"])
	assert.Equal(t, float64(85), entry["score"])
}

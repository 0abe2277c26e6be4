package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNew_WritesJSONWithAppAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "skud-attendance", "development", "info")

	log.Debug("hidden")
	log.Info("scan accepted", slog.String("serial", "ABC"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "skud-attendance", entry["app"])
	assert.Equal(t, "ABC", entry["serial"])
}

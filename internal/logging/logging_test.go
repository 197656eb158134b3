package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatText, ParseFormat("Tint"))
	assert.Equal(t, FormatJSON, ParseFormat(" json "))
	assert.Equal(t, FormatAuto, ParseFormat("xml"))
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, l)

	l, ok = ParseLevel("")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, l)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestNewJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Writer: &buf})
	log.Debug("hidden")
	log.Info("shown", "task", 7)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, float64(7), rec["task"])
}

func TestNewLevelSelection(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Writer: &buf, Interactive: true}).Debug("interactive")
	assert.Contains(t, buf.String(), "interactive")

	buf.Reset()
	warn := slog.LevelWarn
	New(Options{Writer: &buf, Interactive: true, Level: &warn}).Info("quiet")
	assert.Empty(t, buf.String())
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Writer: &buf, Format: FormatText}).Info("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

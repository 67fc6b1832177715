package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, b *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestWriterFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "info").With(String("comp", "notion"))

	log.Debug("hidden")
	log.Info("query failed", Int("status", 503), Err(errors.New("down")), Bool("fail_open", true))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	got := lines[0]
	assert.Equal(t, "info", got["level"])
	assert.Equal(t, "query failed", got["message"])
	assert.Equal(t, "notion", got["comp"])
	assert.EqualValues(t, 503, got["status"])
	assert.Equal(t, "down", got["err"])
	assert.Equal(t, true, got["fail_open"])
	assert.Contains(t, got["caller"], "logging_test.go:")
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWriter(&buf, "debug")
	_ = parent.With(String("selector", "recurring"))
	parent.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["selector"]
	assert.False(t, ok)
}

func TestZeroAndNopLoggers(t *testing.T) {
	var zero Logger
	assert.True(t, zero.IsZero())
	zero.Error("dropped")

	nop := Nop()
	assert.False(t, nop.IsZero())
	nop.Info("dropped")
}

func TestServiceApplySwitchesLevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminder.log")
	svc, log := New(Config{Level: "error", File: FileConfig{Enabled: true, Path: path}})
	defer svc.Close()

	assert.False(t, log.Enabled(LevelInfo))
	log.Info("not written")
	log.Error("written", String("run_id", "r1"))

	svc.Apply(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	assert.True(t, log.Enabled(LevelDebug))
	log.Debug("now visible")
	require.NoError(t, svc.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.NotContains(t, out, "not written")
	assert.Contains(t, out, `"run_id":"r1"`)
	assert.Contains(t, out, "now visible")
}

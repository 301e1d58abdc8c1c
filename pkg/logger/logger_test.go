package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestContextFieldsAreCarried(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithSessionID(ctx, "sess-1")
	logg.Info(ctx, "hello")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "hello", entry["message"])
}

func TestErrorIncludesStackAndCause(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("cause"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "cause", entry["error"])
	assert.NotEmpty(t, entry["stack"])
}

func TestLevelFiltersDebug(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf, Level: zerolog.WarnLevel})

	logg.Info(context.Background(), "ignored")
	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestFormatOptionOverridesEnv(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf, Format: FormatConsole})

	logg.Info(context.Background(), "hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestFieldsDoNotLeakBetweenContexts(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf, Format: FormatJSON})

	parent := logg.WithField(context.Background(), "order_id", "o-1")
	_ = logg.WithFields(parent, map[string]any{"checkout_state": "submitting"})
	logg.From(parent).Info().Int("items", 2).Msg("scoped")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "o-1", entry["order_id"])
	assert.Equal(t, float64(2), entry["items"])
	assert.NotContains(t, entry, "checkout_state")
}

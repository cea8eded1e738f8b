package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := InitWriter(Config{Level: "debug", Format: "json"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l.Debug().Str("field", "skills").Msg("extracted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "skills", entry["field"])
	assert.Equal(t, "extracted", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestInitWriter_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := InitWriter(Config{Level: "chatty"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	l := InitWriter(Config{Level: "info", Format: "pretty"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestFor_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(Config{Level: "info"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l := For("pipeline")
	l.Info().Msg("stage")
	assert.Contains(t, buf.String(), `"component":"pipeline"`)
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))

	var buf bytes.Buffer
	custom := zerolog.New(&buf)
	ctx := WithContext(context.Background(), custom)
	Ctx(ctx).Info().Msg("from context")
	assert.Contains(t, buf.String(), "from context")
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "json")

	l.Debug().Str("blog_id", "b1").Msg("saved")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "saved", line["message"])
	assert.Equal(t, "b1", line["blog_id"])
	assert.Equal(t, "debug", line["level"])
	assert.Contains(t, line, "git_revision")
}

func TestNewWithWriterInvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "chatty", "json")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", "console")
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, json.Valid(buf.Bytes()))
}

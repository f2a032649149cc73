package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", false)

	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	l.Warn().Str("component", "chat").Msg("shown")
	assert.Contains(t, buf.String(), `"component":"chat"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNewWithWriterUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "loud", false)

	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

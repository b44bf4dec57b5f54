package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	log.WithComponent("detector").
		WithLanguage("en").
		Debug().Err(errors.New("boom")).Msg("scored")

	out := buf.String()
	assert.Contains(t, out, `"component":"detector"`)
	assert.Contains(t, out, `"language":"en"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"message":"scored"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNopDiscards(t *testing.T) {
	log := NewNop()
	assert.NotPanics(t, func() { log.Error().Msg("nothing") })
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "info", Format: "json", Output: &buf})

	fallback := NewNop().WithComponent("detection")
	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	ctx := NewContext(context.Background(), base.WithRequestID("req-1"))
	FromContext(ctx, fallback).Info().Msg("detected")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"component":"detection"`)
}

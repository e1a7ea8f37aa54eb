package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestWithComponentTagsEntries(t *testing.T) {
	buf := captureGlobal(t)

	l := WithComponent("pipeline")
	l.Info().Msg("batch received")

	assert.Contains(t, buf.String(), `"component":"pipeline"`)
	assert.Contains(t, buf.String(), "batch received")
}

func TestWithBatchIDTagsEntries(t *testing.T) {
	buf := captureGlobal(t)

	l := WithBatchID("b-123")
	l.Info().Msg("batch received")

	assert.Contains(t, buf.String(), `"batch_id":"b-123"`)
}

func TestSetupRejectsBadLevel(t *testing.T) {
	err := Setup(LogConfig{Level: "shouting", Format: "json", Output: "stderr"})
	require.Error(t, err)
}

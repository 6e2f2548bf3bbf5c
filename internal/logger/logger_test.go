package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 修改全局 logger，不能并行

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", false)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	log.Warn().Str("room", "123456").Msg("visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "123456", entry["room"])
	assert.Equal(t, "visible", entry["message"])
}

func TestInitWithWriter_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "loud", false)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestLogPanic(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", false)

	assert.NotPanics(t, func() {
		defer func() {
			if r := recover(); r != nil {
				LogPanic(r)
			}
		}()
		panic("boom")
	})
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "stack")
}

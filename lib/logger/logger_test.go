package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Levels(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_LEVEL_BOT", "debug")

	cfg := NewConfig()
	assert.Equal(t, slog.LevelWarn, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelFor(SubsystemBot))
	assert.Equal(t, slog.LevelWarn, cfg.LevelFor(SubsystemLedger))
}

func TestNewSubsystemLogger_TagsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{DefaultLevel: slog.LevelInfo, Output: &buf}

	log := NewSubsystemLogger(SubsystemLedger, cfg, nil)
	log.Info("stored", "user_id", 42)
	log.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "LEDGER", rec["subsystem"])
	assert.Equal(t, "stored", rec["msg"])
	assert.EqualValues(t, 42, rec["user_id"])
}

func TestNewSubsystemLogger_Fanout(t *testing.T) {
	var primary, secondary bytes.Buffer
	cfg := Config{DefaultLevel: slog.LevelInfo, Output: &primary}
	other := slog.NewJSONHandler(&secondary, nil)

	log := NewSubsystemLogger(SubsystemBot, cfg, other)
	log.Warn("both")

	assert.Contains(t, primary.String(), `"msg":"both"`)
	assert.Contains(t, secondary.String(), `"msg":"both"`)
	assert.Contains(t, secondary.String(), `"subsystem":"BOT"`)
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := AddToContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
}

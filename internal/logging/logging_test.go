package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := Setup(&buf, "warn", "json")
		require.NoError(t, err)

		logger.Info("dropped")
		slog.Warn("kept", "nodes", 3)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "kept", rec["msg"])
		assert.Equal(t, float64(3), rec["nodes"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Setup(&buf, "DEBUG", "text")
		require.NoError(t, err)
		slog.Debug("scene built", "edges", 2)
		assert.Contains(t, buf.String(), "msg=\"scene built\" edges=2")
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Setup(&bytes.Buffer{}, "chatty", "text")
		assert.Error(t, err)
		_, err = Setup(&bytes.Buffer{}, "info", "xml")
		assert.Error(t, err)
	})
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}

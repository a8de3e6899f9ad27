package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
		wantWarn  bool
	}{
		{"default is warn", "", false, true},
		{"debug", "debug", true, true},
		{"error hides warn", "error", false, false},
		{"unknown falls back to warn", "loud", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: tt.level, Out: &buf})

			logger.Debug().Msg("debug")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte(`"debug"`)))

			buf.Reset()
			logger.Warn().Msg("warn")
			assert.Equal(t, tt.wantWarn, buf.Len() > 0)
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(New(Config{Level: "info", Out: &buf}), "fetch")

	logger.Info().Str("ip", "1.1.1.1").Msg("dispatched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "fetch", entry["component"])
	assert.Equal(t, "1.1.1.1", entry["ip"])
	assert.Equal(t, "dispatched", entry["message"])
}

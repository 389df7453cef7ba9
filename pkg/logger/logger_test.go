package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		format        string
		expectedLevel logrus.Level
	}{
		{name: "debug_json", level: "debug", format: "json", expectedLevel: logrus.DebugLevel},
		{name: "warn_text", level: "warn", format: "text", expectedLevel: logrus.WarnLevel},
		{name: "unknown_level_defaults_to_info", level: "verbose", format: "", expectedLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Init(tt.level, tt.format))
			assert.Equal(t, tt.expectedLevel, Logger().GetLevel())
		})
	}
}

func TestWithFieldsWritesJSON(t *testing.T) {
	require.NoError(t, Init("info", "json"))
	var buf bytes.Buffer
	SetOutput(&buf)

	WithFields(Fields{"session_id": "abc"}).Info("submitted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["session_id"])
	assert.Equal(t, "submitted", entry["msg"])
}

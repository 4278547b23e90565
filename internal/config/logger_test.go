package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production")

	logger.Debug("hidden")
	logger.Info("visible", "entry_id", "e-1")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "visible", line["msg"])
	assert.Equal(t, "facegate", line["service"])
	assert.Equal(t, "e-1", line["entry_id"])
}

func TestNewLogger_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "development")

	logger.Debug("staging upload")

	assert.Contains(t, buf.String(), "staging upload")
	assert.Contains(t, buf.String(), "service=facegate")
}

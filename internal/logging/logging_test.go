package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithOutput(&buf, "info")
	require.NoError(t, err)

	log.WithField("requestId", "req-1").Info("Request received")
	log.Debug("dropped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Request received", line["message"])
	assert.Equal(t, "req-1", line["requestId"])
	assert.Equal(t, "info", line["level"])
}

func TestNewWithOutput_BadLevel(t *testing.T) {
	_, err := NewWithOutput(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}

package log

import (
	"bytes"
	"testing"

	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFiltersLevel(t *testing.T) {
	var lvl dslog.Level
	require.NoError(t, lvl.Set("warn"))

	var buf bytes.Buffer
	logger, err := New(Config{Level: lvl, Format: "logfmt"}, &buf)
	require.NoError(t, err)

	level.Info(logger).Log("msg", "dropped")
	level.Warn(logger).Log("msg", "kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=kept")
	assert.Contains(t, out, "level=warn")
}

func TestNewJSON(t *testing.T) {
	var lvl dslog.Level
	require.NoError(t, lvl.Set("debug"))

	var buf bytes.Buffer
	logger, err := New(Config{Level: lvl, Format: "json"}, &buf)
	require.NoError(t, err)

	level.Debug(logger).Log("msg", "hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestNewInvalidFormat(t *testing.T) {
	_, err := New(Config{Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)
}

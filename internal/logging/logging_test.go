package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"e":     Error,
		"WARN":  Warn,
		"info":  Info,
		"D":     Debug,
		"trace": MaxLevel,
		"3":     Level(3),
	} {
		got, err := parseLevel(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	_, err := parseLevel("loud")
	assert.Error(t, err)
	_, err = parseLevel("12")
	assert.Error(t, err)
}

func TestTaggedLevel(t *testing.T) {
	require.NoError(t, Configure("loggingtest=debug"))

	var out bytes.Buffer
	root := &Logger{Level: Info, out: &sink{w: &out}, fallback: Info}
	log := root.WithTag("loggingtest")
	assert.Equal(t, Debug, log.Level)

	log.Debug("frame %d", 7)
	log.Trace(5, "hidden")
	assert.Contains(t, out.String(), "frame 7")
	assert.NotContains(t, out.String(), "hidden")
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestConfigureUpdatesExistingLoggers(t *testing.T) {
	var out bytes.Buffer
	root := &Logger{Level: Info, out: &sink{w: &out}, fallback: Info}
	log := root.WithTag("latecomer")
	assert.Equal(t, Info, log.Level)

	require.NoError(t, Configure("latecomer=warn"))
	assert.Equal(t, Warn, log.Level)

	log.Info("quiet")
	assert.Empty(t, out.String())
}

func TestCheckDirectives(t *testing.T) {
	assert.NoError(t, CheckDirectives(""))
	assert.NoError(t, CheckDirectives("debug, surface=trace"))
	assert.Error(t, CheckDirectives("surface=loud"))
}

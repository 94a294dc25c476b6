package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := L()
	require.NotNil(t, first)

	Init()
	assert.Same(t, first, L())
	assert.NotNil(t, S())
}

func TestBuildConfigCarriesServiceField(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		cfg := buildConfig(env)
		assert.Equal(t, serviceName, cfg.InitialFields["service"], "env %q", env)
	}
}

func TestBuildConfigEnvironmentSplit(t *testing.T) {
	prod := buildConfig("production")
	assert.Equal(t, "json", prod.Encoding)
	assert.Equal(t, "ts", prod.EncoderConfig.TimeKey)

	dev := buildConfig("development")
	assert.Equal(t, "console", dev.Encoding)
}

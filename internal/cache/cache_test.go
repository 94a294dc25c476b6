package cache

import (
	"context"
	"testing"
	"time"

	"codescope/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeyIsStableAndDistinct(t *testing.T) {
	k1 := Key("print(1)", "python")
	k2 := Key("print(1)", "python")
	assert.Equal(t, k1, k2)

	assert.NotEqual(t, k1, Key("print(2)", "python"))
	assert.NotEqual(t, k1, Key("print(1)", "go"))
	// The separator keeps (code, lang) pairs from colliding on concatenation.
	assert.NotEqual(t, Key("ab", "c"), Key("b", "ca"))
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := New("", time.Minute, zap.NewNop())
	ctx := context.Background()

	key := Key("x = 1", "python")
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	report := &analysis.Report{DetectedLanguage: "python", QualityScore: 70}
	c.Set(ctx, key, report)

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "python", got.DetectedLanguage)
	assert.Equal(t, 70, got.QualityScore)

	// The cached copy is independent of the caller's report.
	got.QualityScore = 1
	again, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, 70, again.QualityScore)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := New("", time.Millisecond, zap.NewNop())
	ctx := context.Background()

	key := Key("y", "go")
	c.Set(ctx, key, &analysis.Report{DetectedLanguage: "go"})

	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestSetNilReportIsNoop(t *testing.T) {
	c := New("", time.Minute, zap.NewNop())
	c.Set(context.Background(), Key("z", ""), nil)

	_, ok := c.Get(context.Background(), Key("z", ""))
	assert.False(t, ok)
}

func TestInvalidRedisURLFallsBackToMemory(t *testing.T) {
	c := New("not-a-url", time.Minute, zap.NewNop())
	ctx := context.Background()

	key := Key("a", "b")
	c.Set(ctx, key, &analysis.Report{DetectedLanguage: "go"})
	_, ok := c.Get(ctx, key)
	assert.True(t, ok)
}

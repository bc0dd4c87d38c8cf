package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/phishing-filter/internal/core"
)

func newTestResult() *core.PredictionResult {
	return core.RebuildResult(1, 0.85, 42, time.Now())
}

func TestMemoryCacheSetAndGet(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	stored := newTestResult()
	c.Set("hash-1", stored, time.Hour)

	result, ok := c.Get("hash-1")
	require.True(t, ok)
	assert.Equal(t, stored.Prediction, result.Prediction)
	assert.Equal(t, stored.Label, result.Label)
	assert.Equal(t, stored.RiskLevel, result.RiskLevel)
	assert.Equal(t, stored.EmailLength, result.EmailLength)
	assert.InDelta(t, stored.Confidence.Phishing, result.Confidence.Phishing, 1e-9)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	result, ok := c.Get("absent")
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestMemoryCacheGetReturnsIndependentCopies(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	c.Set("hash-1", newTestResult(), time.Hour)

	first, ok := c.Get("hash-1")
	require.True(t, ok)
	first.ModelUsed = "cache"

	second, ok := c.Get("hash-1")
	require.True(t, ok)
	assert.NotEqual(t, "cache", second.ModelUsed, "callers must not mutate cached state")
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	c.Set("hash-1", newTestResult(), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("hash-1")
	assert.False(t, ok)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	c.Set("hash-1", newTestResult(), time.Hour)
	require.NoError(t, c.Delete(context.Background(), "hash-1"))

	_, ok := c.Get("hash-1")
	assert.False(t, ok)
}

func TestMemoryCacheCleanupRemovesExpiredOnly(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), time.Hour)
	defer c.Stop()

	c.Set("stale", newTestResult(), 10*time.Millisecond)
	c.Set("fresh", newTestResult(), time.Hour)
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, c.Cleanup(context.Background()))

	_, ok := c.Get("stale")
	assert.False(t, ok)
	_, ok = c.Get("fresh")
	assert.True(t, ok)
}

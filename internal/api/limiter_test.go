package api

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qstudy/pkg/redis"
)

func TestLocalLimiter(t *testing.T) {
	l := NewLocalLimiter()
	cfg := redis.RateLimitConfig{Key: "scan", Limit: 2, Window: time.Hour}
	ctx := context.Background()

	ok, remaining, err := l.Allow(ctx, cfg, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, _, _ = l.Allow(ctx, cfg, "10.0.0.1")
	assert.True(t, ok)

	ok, remaining, _ = l.Allow(ctx, cfg, "10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 0, remaining)

	// subjects are independent
	ok, _, _ = l.Allow(ctx, cfg, "10.0.0.2")
	assert.True(t, ok)
}

func TestLocalLimiter_DropsIdleBuckets(t *testing.T) {
	l := NewLocalLimiter()
	clock := time.Date(2008, 3, 3, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	cfg := redis.RateLimitConfig{Key: "scan", Limit: 1, Window: 10 * time.Minute}
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		ok, _, err := l.Allow(ctx, cfg, fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 1000, l.Len())

	// an exhausted subject stays limited while its window is open
	ok, _, _ := l.Allow(ctx, cfg, "10.0.0.0")
	assert.False(t, ok)

	clock = clock.Add(5 * time.Minute)
	_, _, _ = l.Allow(ctx, cfg, "10.0.0.0")
	assert.Equal(t, 1000, l.Len())

	clock = clock.Add(11 * time.Minute)
	ok, _, _ = l.Allow(ctx, cfg, "10.9.9.9")
	assert.True(t, ok)
	assert.Equal(t, 1, l.Len())

	// a dropped subject starts again with a full bucket
	ok, _, _ = l.Allow(ctx, cfg, "10.0.0.1")
	assert.True(t, ok)
}

func TestLocalLimiter_ThroughRouter(t *testing.T) {
	router := newTestRouter(NewLocalLimiter())
	for i := 0; i < redis.ScanRateLimit.Limit; i++ {
		rec := do(t, router, "POST", "/api/events/run", map[string]string{"study": "mini"})
		require.Equal(t, 200, rec.Code, "request %d", i)
	}
	rec := do(t, router, "POST", "/api/events/run", map[string]string{"study": "mini"})
	assert.Equal(t, 429, rec.Code)
}

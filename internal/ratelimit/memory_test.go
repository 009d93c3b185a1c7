package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base

	l := NewMemoryLimiter(time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow(ctx, "42", 3)
		assert.True(t, allowed, "command %d", i)
		now = now.Add(time.Second)
	}

	allowed, resetAt := l.Allow(ctx, "42", 3)
	assert.False(t, allowed)
	assert.Equal(t, base.Add(time.Minute), resetAt)

	other, _ := l.Allow(ctx, "99", 3)
	assert.True(t, other, "limits are per key")

	now = base.Add(time.Minute + time.Millisecond)
	allowed, _ = l.Allow(ctx, "42", 3)
	assert.True(t, allowed, "oldest command left the window")
}

func TestMemoryLimiter_RejectedCommandsDoNotCount(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l := NewMemoryLimiter(time.Minute)
	l.now = func() time.Time { return now }

	allowed, _ := l.Allow(ctx, "42", 1)
	assert.True(t, allowed)
	for i := 0; i < 5; i++ {
		now = now.Add(5 * time.Second)
		allowed, _ = l.Allow(ctx, "42", 1)
		assert.False(t, allowed)
	}

	now = now.Add(35 * time.Second)
	allowed, _ = l.Allow(ctx, "42", 1)
	assert.True(t, allowed)
}

func TestMemoryLimiter_CleanupDropsIdleEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l := NewMemoryLimiter(time.Minute)
	l.now = func() time.Time { return now }
	l.lastCleanup = now

	l.Allow(ctx, "idle", 5)
	now = now.Add(entryTTL + cleanupInterval)
	l.Allow(ctx, "active", 5)

	_, idleKept := l.store["idle"]
	assert.False(t, idleKept)
	assert.Len(t, l.store, 1)
}

func TestDisabled(t *testing.T) {
	allowed, _ := Disabled{}.Allow(context.Background(), "42", 0)
	assert.True(t, allowed)
}

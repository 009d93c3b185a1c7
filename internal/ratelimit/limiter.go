// Package ratelimit throttles chat commands per Discord user with a sliding
// one-minute window.
package ratelimit

import (
	"context"
	"time"
)

// Limiter reports whether key may run another command within limit per
// window. resetAt is when the oldest counted command leaves the window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (allowed bool, resetAt time.Time)
}

// Disabled never throttles. It is used when the configured limit is zero.
type Disabled struct{}

func (Disabled) Allow(ctx context.Context, key string, limit int) (bool, time.Time) {
	return true, time.Time{}
}

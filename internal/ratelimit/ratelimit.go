// Package ratelimit bounds how often a single identity may write comments.
package ratelimit

import (
	"context"
	"time"
)

// Defaults applied to comment writes.
const (
	DefaultMax    = 5
	DefaultWindow = time.Minute
)

// Limiter decides whether an identity may perform one more write in its
// current fixed window.
type Limiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

// Config holds the fixed-window parameters shared by all backends.
type Config struct {
	Max    int
	Window time.Duration
}

func (c Config) withDefaults() Config {
	if c.Max <= 0 {
		c.Max = DefaultMax
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

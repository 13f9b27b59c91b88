// Package timeouts holds the deadlines wrapped around store calls in
// handlers and startup hooks. There are four tiers:
//
//   - Ping: health checks
//   - Short: single-document reads (get by id, parent lookup, login)
//   - Medium: chart listings and single writes
//   - Long: multi-step writes (reparent with cycle walk, delete with child
//     reparenting) and audit listings
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Built-in tier values, active until Configure overrides them.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config is one set of tier values. A zero field means "keep the current value".
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

func defaults() Config {
	return Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

// overlay returns c with every positive field of o applied.
func (c Config) overlay(o Config) Config {
	if o.Ping > 0 {
		c.Ping = o.Ping
	}
	if o.Short > 0 {
		c.Short = o.Short
	}
	if o.Medium > 0 {
		c.Medium = o.Medium
	}
	if o.Long > 0 {
		c.Long = o.Long
	}
	return c
}

var active atomic.Pointer[Config]

func init() { Reset() }

func load() Config { return *active.Load() }

// Ping returns the health check timeout.
func Ping() time.Duration { return load().Ping }

// Short returns the single-document timeout.
func Short() time.Duration { return load().Short }

// Medium returns the listing and single-write timeout.
func Medium() time.Duration { return load().Medium }

// Long returns the multi-step write timeout.
func Long() time.Duration { return load().Long }

// Configure overlays cfg on the active values. Call it before handlers are built.
func Configure(cfg Config) {
	for {
		cur := active.Load()
		next := cur.overlay(cfg)
		if active.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// Reset restores the built-in values.
func Reset() {
	d := defaults()
	active.Store(&d)
}

// Current returns the active values.
func Current() Config { return load() }

// WithTimeout derives a context bounded by timeout. The returned cancel
// logs a warning naming operation when the deadline was what ended it.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "orgchart.update")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}

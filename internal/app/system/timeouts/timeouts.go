// Package timeouts holds the process-wide deadlines used around store calls.
//
//   - Ping: health checks
//   - Read: single-document reads and small lists
//   - Write: single-document writes
//   - Txn: one engine transaction including its retries (move, echo)
//   - Scan: full-store passes such as member reconciliation
//
// Values start at their defaults and may be changed once at startup with
// Configure or ConfigureFromEnv.
package timeouts

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing  = 2 * time.Second
	DefaultRead  = 5 * time.Second
	DefaultWrite = 10 * time.Second
	DefaultTxn   = 15 * time.Second
	DefaultScan  = 2 * time.Minute
)

// Config holds timeout values. Zero fields are ignored by Configure.
type Config struct {
	Ping  time.Duration
	Read  time.Duration
	Write time.Duration
	Txn   time.Duration
	Scan  time.Duration
}

func defaults() Config {
	return Config{Ping: DefaultPing, Read: DefaultRead, Write: DefaultWrite, Txn: DefaultTxn, Scan: DefaultScan}
}

var (
	mu  sync.RWMutex
	cur = defaults()
)

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(cur)
}

func Ping() time.Duration  { return get(func(c Config) time.Duration { return c.Ping }) }
func Read() time.Duration  { return get(func(c Config) time.Duration { return c.Read }) }
func Write() time.Duration { return get(func(c Config) time.Duration { return c.Write }) }
func Txn() time.Duration   { return get(func(c Config) time.Duration { return c.Txn }) }
func Scan() time.Duration  { return get(func(c Config) time.Duration { return c.Scan }) }

// Configure overrides the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, f := range fields(&cur) {
		if v := f.pick(cfg); v > 0 {
			*f.dst = v
		}
	}
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = defaults()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// ConfigureFromEnv reads CIRCLEHUB_TIMEOUT_PING, _READ, _WRITE, _TXN and
// _SCAN as Go durations ("500ms", "2m"). Unset, invalid or non-positive
// values are skipped. It returns how many values were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, f := range fields(&cur) {
		v := os.Getenv("CIRCLEHUB_TIMEOUT_" + f.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*f.dst = d
			n++
		}
	}
	return n
}

type field struct {
	env  string
	dst  *time.Duration
	pick func(Config) time.Duration
}

func fields(c *Config) []field {
	return []field{
		{"PING", &c.Ping, func(x Config) time.Duration { return x.Ping }},
		{"READ", &c.Read, func(x Config) time.Duration { return x.Read }},
		{"WRITE", &c.Write, func(x Config) time.Duration { return x.Write }},
		{"TXN", &c.Txn, func(x Config) time.Duration { return x.Txn }},
		{"SCAN", &c.Scan, func(x Config) time.Duration { return x.Scan }},
	}
}

// WithTimeout derives a context with timeout. Its cancel func logs a warning
// when the deadline was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Txn(), h.Log, "move card")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}

// Package network simulates an unreliable network in front of store
// operations: a random delay, then an optional injected failure, then the
// real operation. It never touches the operation's inputs or outputs.
package network

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"gymbooking/internal/domain/settings"
)

// ErrSimulatedNetwork is the injected failure. It is always safe to retry:
// it is returned before the wrapped operation runs.
var ErrSimulatedNetwork = errors.New("network request failed, please try again")

// IsRetryable reports whether err came from failure injection.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSimulatedNetwork)
}

// ConfigSource supplies the current simulation settings. It is read on
// every call so admin changes apply immediately.
type ConfigSource interface {
	GetNetworkConfig(ctx context.Context) (settings.NetworkConfig, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Stats counts what the simulator has done since start.
type Stats struct {
	Calls    int64 `json:"calls"`
	Delayed  int64 `json:"delayed"`
	Injected int64 `json:"injected"`
}

// Simulator is the unreliable execution wrapper.
// A nil *Simulator passes every operation straight through.
type Simulator struct {
	source ConfigSource
	sleep  SleepFunc

	mu  sync.Mutex
	rng *rand.Rand

	calls    atomic.Int64
	delayed  atomic.Int64
	injected atomic.Int64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRand sets the random source, for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithSleep replaces the real timer, for tests.
func WithSleep(fn SleepFunc) Option {
	return func(s *Simulator) { s.sleep = fn }
}

// NewSimulator creates a Simulator reading settings from source.
func NewSimulator(source ConfigSource, opts ...Option) *Simulator {
	s := &Simulator{
		source: source,
		sleep:  sleepContext,
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Do runs op under the current simulation settings.
// PRE: op is safe to call once
// POST: when disabled, op runs immediately. When enabled, a delay in
// [min, max] ms elapses, then with probability failureRate
// ErrSimulatedNetwork is returned and op never runs; otherwise op's result
// is returned unchanged. If ctx ends during the delay, ctx.Err() is
// returned and op never runs.
func (s *Simulator) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if s == nil {
		return op(ctx)
	}
	s.calls.Add(1)
	cfg := s.config(ctx)
	if !cfg.Enabled {
		return op(ctx)
	}

	delay, fail := s.draw(cfg)
	if delay > 0 {
		s.delayed.Add(1)
		slog.Debug("network_sim", "event", "delay", "delay_ms", delay.Milliseconds())
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
	if fail {
		s.injected.Add(1)
		slog.Warn("network_sim", "event", "failure_injected", "failure_rate", cfg.FailureRate)
		return ErrSimulatedNetwork
	}
	return op(ctx)
}

// Run is Do for operations that return a value.
func Run[T any](ctx context.Context, s *Simulator, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = op(ctx)
		return err
	})
	return out, err
}

// Stats returns counters since the Simulator was created.
func (s *Simulator) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		Calls:    s.calls.Load(),
		Delayed:  s.delayed.Load(),
		Injected: s.injected.Load(),
	}
}

// config reads the settings, falling back to defaults when the source fails
// or holds nothing valid.
func (s *Simulator) config(ctx context.Context) settings.NetworkConfig {
	if s.source == nil {
		return settings.DefaultNetworkConfig()
	}
	cfg, err := s.source.GetNetworkConfig(ctx)
	if err != nil {
		slog.Debug("network_sim", "event", "config_fallback", "error", err)
		return settings.DefaultNetworkConfig()
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("network_sim", "event", "config_invalid", "error", err)
		return settings.DefaultNetworkConfig()
	}
	return cfg
}

// draw picks the delay uniformly from [min, max] whole milliseconds and
// decides the failure from a uniform value in [0, 1).
func (s *Simulator) draw(cfg settings.NetworkConfig) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := cfg.MinDelayMs + s.rng.IntN(cfg.MaxDelayMs-cfg.MinDelayMs+1)
	fail := s.rng.Float64() < cfg.FailureRate
	return time.Duration(ms) * time.Millisecond, fail
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package network_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymbooking/internal/adapters/network"
	"gymbooking/internal/domain/settings"
)

type staticSource struct {
	cfg settings.NetworkConfig
	err error
}

func (s staticSource) GetNetworkConfig(ctx context.Context) (settings.NetworkConfig, error) {
	return s.cfg, s.err
}

type recordingSleep struct {
	calls []time.Duration
	err   error
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func newSim(cfg settings.NetworkConfig, sleeper *recordingSleep) *network.Simulator {
	return network.NewSimulator(staticSource{cfg: cfg},
		network.WithRand(rand.New(rand.NewPCG(1, 2))),
		network.WithSleep(sleeper.sleep),
	)
}

func TestSimulator_DisabledRunsImmediately(t *testing.T) {
	sleeper := &recordingSleep{}
	sim := newSim(settings.NetworkConfig{Enabled: false, MinDelayMs: 500, MaxDelayMs: 2000, FailureRate: 1}, sleeper)

	ran := false
	err := sim.Do(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Empty(t, sleeper.calls, "disabled simulator must not delay")
}

func TestSimulator_FailureRateOneNeverInvokes(t *testing.T) {
	sleeper := &recordingSleep{}
	sim := newSim(settings.NetworkConfig{Enabled: true, MinDelayMs: 10, MaxDelayMs: 20, FailureRate: 1}, sleeper)

	for i := 0; i < 50; i++ {
		ran := false
		err := sim.Do(context.Background(), func(ctx context.Context) error {
			ran = true
			return nil
		})
		require.ErrorIs(t, err, network.ErrSimulatedNetwork)
		assert.True(t, network.IsRetryable(err))
		assert.False(t, ran, "operation must not run when a failure is injected")
	}
	assert.Len(t, sleeper.calls, 50, "failure is injected after the delay")
	assert.Equal(t, int64(50), sim.Stats().Injected)
}

func TestSimulator_FailureRateZeroAlwaysInvokes(t *testing.T) {
	sleeper := &recordingSleep{}
	sim := newSim(settings.NetworkConfig{Enabled: true, MinDelayMs: 0, MaxDelayMs: 0, FailureRate: 0}, sleeper)

	got, err := network.Run(context.Background(), sim, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Empty(t, sleeper.calls, "zero delay should not sleep")
}

func TestSimulator_DelayWithinBounds(t *testing.T) {
	sleeper := &recordingSleep{}
	sim := newSim(settings.NetworkConfig{Enabled: true, MinDelayMs: 100, MaxDelayMs: 105, FailureRate: 0}, sleeper)

	for i := 0; i < 200; i++ {
		require.NoError(t, sim.Do(context.Background(), func(ctx context.Context) error { return nil }))
	}
	seen := map[time.Duration]bool{}
	for _, d := range sleeper.calls {
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 105*time.Millisecond)
		assert.Zero(t, d%time.Millisecond)
		seen[d] = true
	}
	assert.Len(t, seen, 6, "both bounds are inclusive")
}

func TestSimulator_PassesResultThrough(t *testing.T) {
	sim := newSim(settings.NetworkConfig{Enabled: true, MaxDelayMs: 1}, &recordingSleep{})
	want := errors.New("already booked")

	err := sim.Do(context.Background(), func(ctx context.Context) error { return want })
	assert.ErrorIs(t, err, want)
	assert.False(t, network.IsRetryable(err))
}

func TestSimulator_ContextCancelledDuringDelay(t *testing.T) {
	sleeper := &recordingSleep{err: context.Canceled}
	sim := newSim(settings.NetworkConfig{Enabled: true, MinDelayMs: 5, MaxDelayMs: 5}, sleeper)

	ran := false
	err := sim.Do(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}

func TestSimulator_RealSleepHonoursContext(t *testing.T) {
	sim := network.NewSimulator(staticSource{cfg: settings.NetworkConfig{Enabled: true, MinDelayMs: 5000, MaxDelayMs: 5000}})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sim.Do(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSimulator_SourceErrorFallsBackToDefaults(t *testing.T) {
	sleeper := &recordingSleep{}
	sim := network.NewSimulator(staticSource{err: errors.New("db locked")}, network.WithSleep(sleeper.sleep))

	ran := false
	require.NoError(t, sim.Do(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran, "defaults are disabled, so the operation runs")
	assert.Empty(t, sleeper.calls)
}

func TestSimulator_NilPassesThrough(t *testing.T) {
	var sim *network.Simulator
	ran := false
	require.NoError(t, sim.Do(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, network.Stats{}, sim.Stats())
}

func TestSimulator_OversizedStoredDelayFallsBackToDefaults(t *testing.T) {
	sleeper := &recordingSleep{}
	sim := newSim(settings.NetworkConfig{Enabled: true, MaxDelayMs: math.MaxInt, FailureRate: 0}, sleeper)

	ran := false
	require.NotPanics(t, func() {
		require.NoError(t, sim.Do(context.Background(), func(ctx context.Context) error {
			ran = true
			return nil
		}))
	})
	assert.True(t, ran)
	assert.Empty(t, sleeper.calls, "defaults are disabled, so nothing sleeps")
}

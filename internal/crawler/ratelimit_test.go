package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchingest/internal/clock"
)

func TestGate_SpacesConsecutiveRequests(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	gate := NewGate(2*time.Second, clk)

	require.NoError(t, gate.Wait(ctx))
	first := clk.Now()
	require.NoError(t, gate.Wait(ctx))
	second := clk.Now()
	require.NoError(t, gate.Wait(ctx))
	third := clk.Now()

	assert.GreaterOrEqual(t, second.Sub(first), 2*time.Second)
	assert.GreaterOrEqual(t, third.Sub(second), 2*time.Second)
}

func TestGate_NoWaitAfterInterval(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	gate := NewGate(time.Second, clk)

	require.NoError(t, gate.Wait(ctx))
	clk.Advance(1500 * time.Millisecond)
	require.NoError(t, gate.Wait(ctx))

	assert.Empty(t, clk.Sleeps())
}

func TestGate_PartialWait(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	gate := NewGate(2*time.Second, clk)

	require.NoError(t, gate.Wait(ctx))
	clk.Advance(500 * time.Millisecond)
	require.NoError(t, gate.Wait(ctx))

	sleeps := clk.Sleeps()
	require.Len(t, sleeps, 1)
	assert.InDelta(t, float64(1500*time.Millisecond), float64(sleeps[0]), float64(time.Millisecond))
}

func TestGate_ZeroIntervalNeverWaits(t *testing.T) {
	clk := clock.NewFake(time.Now())
	gate := NewGate(0, clk)

	for i := 0; i < 5; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}
	assert.Empty(t, clk.Sleeps())
}

func TestGate_IndependentInstances(t *testing.T) {
	clk := clock.NewFake(time.Now())
	a := NewGate(time.Second, clk)
	b := NewGate(time.Second, clk)

	require.NoError(t, a.Wait(context.Background()))
	require.NoError(t, b.Wait(context.Background()))

	assert.Empty(t, clk.Sleeps(), "a second gate must not wait on the first one")
}

func TestGate_CancelledContext(t *testing.T) {
	clk := clock.NewFake(time.Now())
	gate := NewGate(time.Second, clk)
	require.NoError(t, gate.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, gate.Wait(ctx), context.Canceled)
}

package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTasks_RunsAndWaits(t *testing.T) {
	logger := zerolog.Nop()
	tasks := NewTasks(&logger)

	var done atomic.Int32

	for i := 0; i < 5; i++ {
		tasks.Go(context.Background(), "count", func(_ context.Context) {
			done.Add(1)
		})
	}

	tasks.Wait()

	assert.Equal(t, int32(5), done.Load())
}

func TestTasks_RecoversPanic(t *testing.T) {
	tasks := NewTasks(nil)

	assert.NotPanics(t, func() {
		tasks.Go(context.Background(), "boom", func(_ context.Context) {
			panic("boom")
		})
		tasks.Wait()
	})
}

func TestWait_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWait_ZeroDuration(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
}

func TestSingleTickerLoop_TicksOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	errCh := make(chan error, 1)

	go func() {
		errCh <- SingleTickerLoop(ctx, SingleTickerConfig{
			Name:     "test",
			Interval: time.Minute,
			Clock:    clock,
			OnTick:   func(_ context.Context) { ticks.Add(1) },
		})
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(59 * time.Second)
	assert.Never(t, func() bool { return ticks.Load() > 0 }, 50*time.Millisecond, 10*time.Millisecond)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSingleTickerLoop_RunOnStart(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	stopped := make(chan struct{})

	go func() {
		_ = SingleTickerLoop(ctx, SingleTickerConfig{
			Name:       "test",
			Interval:   time.Minute,
			Clock:      clock,
			RunOnStart: true,
			OnTick:     func(_ context.Context) { ticks.Add(1) },
			OnStop:     func() { close(stopped) },
		})
	}()

	require.Eventually(t, func() bool { return ticks.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped
}

func TestSingleTickerLoop_RejectsNonPositiveInterval(t *testing.T) {
	err := SingleTickerLoop(context.Background(), SingleTickerConfig{Name: "bad"})
	assert.ErrorIs(t, err, ErrNonPositiveInterval)
}

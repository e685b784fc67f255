package engine_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/aretw0/metta/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	abandoned atomic.Int32
	reclaimed atomic.Int32
}

func (o *countingObserver) WorkerAbandoned() { o.abandoned.Add(1) }
func (o *countingObserver) WorkerReclaimed() { o.reclaimed.Add(1) }

func values(v string) engine.Job {
	return func(ctx context.Context) domain.Outcome {
		return domain.Values([][]string{{v}})
	}
}

func TestDispatcher_NotBusyAfterDelivery(t *testing.T) {
	d := engine.NewDispatcher()
	for i := 0; i < 3; i++ {
		d.Run(context.Background(), values("ok"))
		assert.False(t, d.Busy())
	}
}

func TestDispatcher_ReturnsJobOutcome(t *testing.T) {
	d := engine.NewDispatcher()
	out := d.Run(context.Background(), values("3"))
	assert.Equal(t, domain.OutcomeValues, out.Kind)
	assert.Equal(t, [][]string{{"3"}}, out.Results)
}

func TestDispatcher_CancelledBeforeStart(t *testing.T) {
	d := engine.NewDispatcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	out := d.Run(ctx, func(ctx context.Context) domain.Outcome {
		ran.Store(true)
		return domain.Values(nil)
	})
	assert.Equal(t, domain.OutcomeCancelled, out.Kind)
	assert.False(t, ran.Load())
}

func TestDispatcher_CooperativeCancellation(t *testing.T) {
	obs := &countingObserver{}
	d := engine.NewDispatcher(engine.WithGrace(time.Second), engine.WithObserver(obs))
	ctx, cancel := context.WithCancel(context.Background())

	time.AfterFunc(20*time.Millisecond, cancel)
	start := time.Now()
	out := d.Run(ctx, func(ctx context.Context) domain.Outcome {
		<-ctx.Done()
		return domain.Cancelled()
	})

	assert.Equal(t, domain.OutcomeCancelled, out.Kind)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Zero(t, obs.abandoned.Load())
}

func TestDispatcher_AbandonsStubbornWorker(t *testing.T) {
	obs := &countingObserver{}
	d := engine.NewDispatcher(engine.WithGrace(20*time.Millisecond), engine.WithObserver(obs))

	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	out := d.Run(ctx, func(context.Context) domain.Outcome {
		<-release
		return domain.Values([][]string{{"late"}})
	})
	assert.Equal(t, domain.OutcomeAbandoned, out.Kind)
	assert.True(t, out.IsInterrupted())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), obs.abandoned.Load())
	assert.True(t, d.Busy())

	t.Run("next dispatch waits for the abandoned worker", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		out := d.Run(ctx, values("blocked"))
		assert.Equal(t, domain.OutcomeCancelled, out.Kind)
	})

	close(release)

	assert.Eventually(t, func() bool { return obs.reclaimed.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Busy())

	out = d.Run(context.Background(), values("fresh"))
	assert.Equal(t, [][]string{{"fresh"}}, out.Results, "late result must not leak into the next dispatch")
}

func TestDispatcher_PanicPoisons(t *testing.T) {
	d := engine.NewDispatcher()

	out := d.Run(context.Background(), func(context.Context) domain.Outcome {
		panic("engine state corrupted")
	})
	require.Equal(t, domain.OutcomeFatal, out.Kind)
	assert.ErrorIs(t, out.Fatal, domain.ErrAdapterPoisoned)
	assert.ErrorIs(t, d.Err(), domain.ErrAdapterPoisoned)

	var ran atomic.Bool
	out = d.Run(context.Background(), func(context.Context) domain.Outcome {
		ran.Store(true)
		return domain.Values(nil)
	})
	assert.Equal(t, domain.OutcomeFatal, out.Kind)
	assert.False(t, ran.Load(), "a poisoned dispatcher must not touch the engine again")
}

func TestDispatcher_Wait(t *testing.T) {
	d := engine.NewDispatcher(engine.WithGrace(time.Millisecond))

	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Cancelled before start: the job never runs, the slot stays free.
	d.Run(ctx, func(context.Context) domain.Outcome { <-release; return domain.Values(nil) })
	require.NoError(t, d.Wait(context.Background()))

	ctx, cancel = context.WithCancel(context.Background())
	time.AfterFunc(5*time.Millisecond, cancel)
	out := d.Run(ctx, func(context.Context) domain.Outcome { <-release; return domain.Values(nil) })
	require.Equal(t, domain.OutcomeAbandoned, out.Kind)

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	assert.ErrorIs(t, d.Wait(short), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, d.Wait(context.Background()))
}

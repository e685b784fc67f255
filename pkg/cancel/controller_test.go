package cancel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/metta/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_IdleInterruptTripsReadToken(t *testing.T) {
	c := NewController()
	defer c.Close()

	tok := c.Arm()
	require.False(t, tok.Cancelled())

	action := c.Interrupt()
	assert.Equal(t, ClearInput, action)
	assert.Equal(t, Idle, c.State())
	assert.True(t, tok.Cancelled())

	select {
	case <-tok.Done():
	case <-time.After(time.Second):
		t.Fatal("token context was not cancelled")
	}
	assert.ErrorIs(t, context.Cause(tok.Context()), domain.ErrInterrupted)
}

func TestController_EvaluationLifecycle(t *testing.T) {
	c := NewController()
	defer c.Close()

	read := c.Arm()
	eval := c.Begin()
	assert.Equal(t, EvaluationInFlight, c.State())
	assert.ErrorIs(t, context.Cause(read.Context()), context.Canceled, "previous phase token is released")
	assert.False(t, read.Cancelled(), "release is not an interrupt")

	assert.Equal(t, CancelEvaluation, c.Interrupt())
	assert.True(t, eval.Cancelled())
	assert.Equal(t, EvaluationInFlight, c.State(), "state changes only once the adapter reports")

	c.End()
	assert.Equal(t, Idle, c.State())

	next := c.Arm()
	assert.False(t, next.Cancelled(), "a new phase starts with a clean token")
}

func TestController_RepeatedInterruptEscalates(t *testing.T) {
	var fired atomic.Int32
	c := NewController(WithEscalation(50*time.Millisecond, func() { fired.Add(1) }))
	defer c.Close()

	c.Begin()
	assert.Equal(t, CancelEvaluation, c.Interrupt())
	assert.Equal(t, Escalate, c.Interrupt())

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestController_EscalationDisarmedByEnd(t *testing.T) {
	var fired atomic.Int32
	c := NewController(WithEscalation(100*time.Millisecond, func() { fired.Add(1) }))
	defer c.Close()

	c.Begin()
	c.Interrupt()
	c.Interrupt()
	c.End()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestController_ObserverSeesEveryInterrupt(t *testing.T) {
	var seen []Action
	c := NewController(WithObserver(func(_ State, a Action) { seen = append(seen, a) }))
	defer c.Close()

	c.Arm()
	c.Interrupt()
	c.Begin()
	c.Interrupt()
	c.End()

	assert.Equal(t, []Action{ClearInput, CancelEvaluation}, seen)
}

func TestController_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	c := NewController(WithParent(parent))
	defer c.Close()

	tok := c.Arm()
	cancel()

	select {
	case <-tok.Done():
	case <-time.After(time.Second):
		t.Fatal("token did not follow parent")
	}
	assert.False(t, tok.Cancelled())
}

package cancel

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/metta/pkg/domain"
)

// Token is the cooperative cancellation flag for one phase of the session
// (a line read or an evaluation). It is written by the interrupt path and
// read by the session loop and engine adapters.
type Token struct {
	flag   atomic.Bool
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func newToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancelCause(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Context returns a context cancelled with domain.ErrInterrupted when the
// token is tripped.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Cancelled reports whether the token has been tripped.
func (t *Token) Cancelled() bool {
	return t.flag.Load()
}

// Done is closed once the token is tripped or its parent is cancelled.
func (t *Token) Done() <-chan struct{} {
	return t.ctx.Done()
}

// trip sets the flag and reports whether this call was the first to do so.
func (t *Token) trip() bool {
	first := t.flag.CompareAndSwap(false, true)
	t.cancel(domain.ErrInterrupted)
	return first
}

func (t *Token) release() {
	t.cancel(context.Canceled)
}

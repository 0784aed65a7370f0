package client

import (
	"context"
	"sync"
)

// Ready is a one-shot readiness signal. Bootstrap resolves it once; waiters
// block until then instead of polling.
type Ready struct {
	once sync.Once
	done chan struct{}
	err  error
}

func NewReady() *Ready {
	return &Ready{done: make(chan struct{})}
}

// Resolve releases all waiters with err. Only the first call has any effect.
func (r *Ready) Resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Wait blocks until Resolve is called or ctx is done.
func (r *Ready) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReady_WaitBlocksUntilResolve(t *testing.T) {
	r := NewReady()
	done := make(chan error, 1)
	go func() { done <- r.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned before Resolve")
	case <-time.After(20 * time.Millisecond):
	}

	r.Resolve(nil)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Resolve")
	}
}

func TestReady_FirstResolveWins(t *testing.T) {
	r := NewReady()
	boom := errors.New("config missing")
	r.Resolve(boom)
	r.Resolve(nil)

	assert.ErrorIs(t, r.Wait(context.Background()), boom)
	assert.ErrorIs(t, r.Wait(context.Background()), boom)
}

func TestReady_WaitHonoursContext(t *testing.T) {
	r := NewReady()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

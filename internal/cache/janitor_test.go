package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanupExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestRunJanitor(t *testing.T) {
	t.Run("runs until cancelled", func(t *testing.T) {
		cleaner := &countingCleaner{}
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			RunJanitor(ctx, cleaner, 5*time.Millisecond, discardLogger())
			close(done)
		}()

		assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("janitor did not stop")
		}
	})

	t.Run("keeps going after errors", func(t *testing.T) {
		cleaner := &countingCleaner{err: errors.New("boom")}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go RunJanitor(ctx, cleaner, 5*time.Millisecond, discardLogger())

		assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	})

	t.Run("disabled interval returns immediately", func(t *testing.T) {
		cleaner := &countingCleaner{}
		RunJanitor(context.Background(), cleaner, 0, discardLogger())
		assert.Zero(t, cleaner.calls.Load())
	})
}

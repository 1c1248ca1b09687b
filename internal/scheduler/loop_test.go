package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func TestLoop_Do(t *testing.T) {
	t.Run("Runs function on the loop", func(t *testing.T) {
		loop := NewLoop(clock.NewMock())
		t.Cleanup(loop.Close)

		ran := false
		err := loop.Do(context.Background(), func() { ran = true })

		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("Returns ErrLoopClosed after Close", func(t *testing.T) {
		loop := NewLoop(clock.NewMock())
		loop.Close()

		err := loop.Do(context.Background(), func() {})

		require.ErrorIs(t, err, ErrLoopClosed)
	})
}

func TestLoop_AfterFunc(t *testing.T) {
	t.Run("Fires when the clock passes the delay", func(t *testing.T) {
		// Given: a loop on a mock clock with a callback after 550ms
		mock := clock.NewMock()
		loop := NewLoop(mock)
		t.Cleanup(loop.Close)

		var calls atomic.Int32
		require.NoError(t, loop.Do(context.Background(), func() {
			loop.AfterFunc(550*time.Millisecond, func() { calls.Add(1) })
		}))

		// When: the clock moves past the delay
		mock.Add(600 * time.Millisecond)

		// Then: the callback runs once
		assert.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	})

	t.Run("Stopped timer does not fire", func(t *testing.T) {
		mock := clock.NewMock()
		loop := NewLoop(mock)
		t.Cleanup(loop.Close)

		var calls atomic.Int32
		require.NoError(t, loop.Do(context.Background(), func() {
			timer := loop.AfterFunc(time.Second, func() { calls.Add(1) })
			timer.Stop()
		}))

		mock.Add(2 * time.Second)

		assert.Never(t, func() bool { return calls.Load() > 0 }, 50*time.Millisecond, tick)
	})
}

func TestLoop_Every(t *testing.T) {
	// Given: a ticker every second on a mock clock
	mock := clock.NewMock()
	loop := NewLoop(mock)
	t.Cleanup(loop.Close)

	var calls atomic.Int32
	var ticker Timer
	require.NoError(t, loop.Do(context.Background(), func() {
		ticker = loop.Every(time.Second, func() { calls.Add(1) })
	}))

	// When: three seconds pass one by one
	for i := int32(1); i <= 3; i++ {
		mock.Add(time.Second)
		want := i
		require.Eventually(t, func() bool { return calls.Load() == want }, waitFor, tick)
	}

	// Then: after Stop no more ticks are delivered
	require.NoError(t, loop.Do(context.Background(), ticker.Stop))
	mock.Add(5 * time.Second)
	assert.Never(t, func() bool { return calls.Load() > 3 }, 50*time.Millisecond, tick)
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const queueSize = 64

var ErrLoopClosed = errors.New("scheduler loop is closed")

// Loop executes submitted functions and timer callbacks one at a time on a
// single goroutine.
type Loop struct {
	clock clock.Clock

	queue chan func()
	done  chan struct{}
	once  sync.Once
}

func NewLoop(clk clock.Clock) *Loop {
	loop := &Loop{
		clock: clk,
		queue: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}

	go loop.run()

	return loop
}

func (that *Loop) run() {
	for {
		select {
		case fn := <-that.queue:
			fn()
		case <-that.done:
			return
		}
	}
}

// Do - runs fn on the loop goroutine and waits for it to return.
// It must not be called from the loop goroutine itself.
func (that *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case that.queue <- task:
	case <-that.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-that.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close - stops the loop. Pending callbacks are dropped.
func (that *Loop) Close() {
	that.once.Do(func() {
		close(that.done)
	})
}

func (that *Loop) post(fn func()) {
	select {
	case that.queue <- fn:
	case <-that.done:
	}
}

// AfterFunc - schedules fn once after d. Stop must be called from the loop goroutine.
func (that *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}

	inner := that.clock.AfterFunc(d, func() {
		that.post(func() {
			if t.stopped {
				return
			}
			t.stopped = true
			fn()
		})
	})

	t.stop = func() { inner.Stop() }

	return t
}

// Every - schedules fn every d until stopped. Stop must be called from the loop goroutine.
func (that *Loop) Every(d time.Duration, fn func()) Timer {
	t := &loopTimer{}

	ticker := that.clock.Ticker(d)
	quit := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				that.post(func() {
					if !t.stopped {
						fn()
					}
				})
			case <-quit:
				return
			case <-that.done:
				ticker.Stop()
				return
			}
		}
	}()

	t.stop = func() {
		ticker.Stop()
		close(quit)
	}

	return t
}

type loopTimer struct {
	stopped bool
	stop    func()
}

func (that *loopTimer) Stop() {
	if that.stopped {
		return
	}

	that.stopped = true
	that.stop()
}

// Package scheduler runs delayed and periodic callbacks for the game engine.
//
// The engine is single threaded: every command and every timer callback of a
// session runs on the same logical thread. Loop provides that thread on top of
// a clock.Clock, Manual provides it in virtual time for tests.
package scheduler

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. A stopped timer never runs its callback again.
	Stop()
}

// Scheduler schedules callbacks on the owner's logical thread.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

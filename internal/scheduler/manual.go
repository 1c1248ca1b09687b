package scheduler

import "time"

// Manual is a Scheduler driven by virtual time. Callbacks run synchronously
// inside Advance, ordered by due time and then by scheduling order.
type Manual struct {
	now     time.Duration
	seq     int
	entries []*manualEntry
}

func NewManual() *Manual {
	return &Manual{}
}

type manualEntry struct {
	owner  *Manual
	due    time.Duration
	period time.Duration
	seq    int
	fn     func()
}

func (that *manualEntry) Stop() {
	that.owner.remove(that)
}

func (that *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	return that.add(d, 0, fn)
}

func (that *Manual) Every(d time.Duration, fn func()) Timer {
	return that.add(d, d, fn)
}

// Now returns the virtual time elapsed since creation.
func (that *Manual) Now() time.Duration {
	return that.now
}

// Pending returns the number of scheduled callbacks.
func (that *Manual) Pending() int {
	return len(that.entries)
}

// Advance - moves virtual time forward by d, running every callback that
// becomes due, including callbacks scheduled by other callbacks.
func (that *Manual) Advance(d time.Duration) {
	target := that.now + d

	for {
		next := that.next(target)
		if next == nil {
			break
		}

		that.now = next.due
		if next.period > 0 {
			that.seq++
			next.due += next.period
			next.seq = that.seq
		} else {
			that.remove(next)
		}

		next.fn()
	}

	that.now = target
}

func (that *Manual) add(d, period time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}

	that.seq++
	entry := &manualEntry{
		owner:  that,
		due:    that.now + d,
		period: period,
		seq:    that.seq,
		fn:     fn,
	}
	that.entries = append(that.entries, entry)

	return entry
}

func (that *Manual) next(target time.Duration) *manualEntry {
	var next *manualEntry
	for _, entry := range that.entries {
		if entry.due > target {
			continue
		}
		if next == nil || entry.due < next.due || (entry.due == next.due && entry.seq < next.seq) {
			next = entry
		}
	}

	return next
}

func (that *Manual) remove(entry *manualEntry) {
	for i, candidate := range that.entries {
		if candidate == entry {
			that.entries = append(that.entries[:i], that.entries[i+1:]...)
			return
		}
	}
}

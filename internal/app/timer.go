package app

import "time"

// timer tracks when the next collection is due.
type timer struct {
	stamp time.Time
	now   func() time.Time
}

func newTimer() *timer {
	return &timer{now: time.Now}
}

// Stamp starts a new interval.
func (t *timer) Stamp() {
	t.stamp = t.now()
}

// Left returns how long until interval has passed since the last stamp,
// zero when it already has.
func (t *timer) Left(interval time.Duration) time.Duration {
	left := t.stamp.Add(interval).Sub(t.now())
	if left < 0 {
		return 0
	}
	return left
}

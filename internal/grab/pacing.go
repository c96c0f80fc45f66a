package grab

import "time"

// pacer keeps the long-run capture interval at timeBase. Each cycle it
// sleeps out whatever the grab left of the frame period, and carries the
// difference between the delay it wanted and the delay it actually got in
// balance, so scheduler jitter cancels out over time instead of
// accumulating.
type pacer struct {
	timeBase time.Duration
	balance  time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

func newPacer(timeBase time.Duration) *pacer {
	return &pacer{
		timeBase: timeBase,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// pace suspends until the current frame period is used up and returns the
// wall-clock time the next iteration should treat as its start. start is
// the timestamp the current iteration began with.
func (p *pacer) pace(start time.Time) time.Time {
	sleepStart := p.now()
	ideal := p.timeBase - sleepStart.Sub(start)
	if request := ideal + p.balance; request > 0 {
		p.sleep(request)
	}
	end := p.now()
	p.balance += ideal - end.Sub(sleepStart)
	// A single long stall must not buy a burst of sleepless catch-up
	// frames; the floor limits catch-up to one period. No ceiling: a fast
	// producer banks balance and sleeps it off later.
	if p.balance < -p.timeBase {
		p.balance = -p.timeBase
	}
	return end
}

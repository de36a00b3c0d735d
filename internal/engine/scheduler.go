package engine

import (
	"time"
)

// Scheduling cadence: the driver re-polls every TickInterval and keeps the
// bus supplied with events up to Lookahead of audio time in advance.
const (
	Lookahead    = 100 * time.Millisecond
	TickInterval = 25 * time.Millisecond
)

// Clock is the audio time source the scheduler follows, in seconds.
type Clock interface {
	Now() float64
}

// Scheduler walks the 16-step cycle against an audio clock. Each Tick
// schedules every step whose trigger time falls inside the lookahead
// window; the fire callback resolves the slot and builds its audio. The
// caller owns the driving goroutine and all locking.
type Scheduler struct {
	clock Clock
	dur   func() float64          // current step duration in seconds
	fire  func(step int, when float64)

	nextDue float64
	counter int
}

// NewScheduler creates a scheduler over the given clock. dur is consulted
// once per scheduled step, so tempo changes take effect from the next step
// onward.
func NewScheduler(clock Clock, dur func() float64, fire func(step int, when float64)) *Scheduler {
	return &Scheduler{clock: clock, dur: dur, fire: fire}
}

// Start anchors the cycle at the current clock time and rewinds the step
// counter to zero. Calling Start on a running scheduler restarts the cycle.
func (s *Scheduler) Start() {
	s.nextDue = s.clock.Now()
	s.counter = 0
}

// Tick schedules all steps due within the lookahead window. Trigger times
// never decrease: each step fires exactly stepDuration after the previous
// one, regardless of when Tick runs.
func (s *Scheduler) Tick() {
	horizon := s.clock.Now() + Lookahead.Seconds()
	for s.nextDue < horizon {
		s.fire(s.counter%stepsPerCycle, s.nextDue)
		s.nextDue += s.dur()
		s.counter++
	}
}

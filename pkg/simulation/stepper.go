package simulation

import "time"

// DefaultMaxFrameTime caps the wall time a single update may account for,
// so a stalled display does not trigger a long burst of catch-up steps.
const DefaultMaxFrameTime = 200 * time.Millisecond

// Stepper turns variable wall-clock intervals into a whole number of fixed
// physics steps. The remainder carries over to the next call.
type Stepper struct {
	MaxFrameTime time.Duration

	acc time.Duration
}

// NewStepper returns a Stepper capped at maxFrameTime, or at
// DefaultMaxFrameTime when maxFrameTime is not positive.
func NewStepper(maxFrameTime time.Duration) *Stepper {
	if maxFrameTime <= 0 {
		maxFrameTime = DefaultMaxFrameTime
	}
	return &Stepper{MaxFrameTime: maxFrameTime}
}

// Advance adds elapsed wall time and returns how many steps of 1/rate
// seconds are due. A rate of 0 runs nothing and drops the accumulated time.
func (s *Stepper) Advance(elapsed time.Duration, rate uint) int {
	if rate == 0 {
		s.acc = 0
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	if s.MaxFrameTime > 0 && elapsed > s.MaxFrameTime {
		elapsed = s.MaxFrameTime
	}
	step := max(time.Second/time.Duration(rate), time.Nanosecond)

	s.acc += elapsed
	n := int(s.acc / step)
	s.acc -= time.Duration(n) * step
	return n
}

// Pending is the accumulated time not yet turned into steps.
func (s *Stepper) Pending() time.Duration { return s.acc }

// Reset drops the accumulated time.
func (s *Stepper) Reset() { s.acc = 0 }

package common

import (
	"time"
)

// Stopwatch counts down its timeout from the moment it is started
type Stopwatch struct {
	Timeout  time.Duration
	deadline time.Time // zero while not running
}

func NewStopwatch(timeout time.Duration) Stopwatch {
	return Stopwatch{Timeout: timeout}
}

func (s *Stopwatch) Start() {
	s.deadline = time.Now().Add(s.Timeout)
}

func (s *Stopwatch) Stop() {
	s.deadline = time.Time{}
}

// Never started, stopped, or out of time
func (s *Stopwatch) Expired() bool {
	return s.Remaining() == 0
}

// Time left until the timeout, zero if not running
func (s *Stopwatch) Remaining() time.Duration {
	if s.deadline.IsZero() {
		return 0
	}
	return max(time.Until(s.deadline), 0)
}

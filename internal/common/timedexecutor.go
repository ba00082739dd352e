package common

import (
	"time"
)

// TimedExecutor runs its task at most once per period,
// no matter how often it is asked to
type TimedExecutor struct {
	period Stopwatch
	task   func()
}

func NewTimedExecutor(period time.Duration, task func()) TimedExecutor {
	return TimedExecutor{period: NewStopwatch(period), task: task}
}

// Run the task unless it already ran within the period.
// Reports if it ran
func (te *TimedExecutor) Execute() bool {
	if !te.period.Expired() {
		return false
	}
	te.period.Start()
	te.task()
	return true
}

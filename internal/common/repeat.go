package common

import (
	"context"
	"time"
)

// Call the task over and over, sleeping the interval between the end of one
// call and the start of the next, until the context is done.
// If immediate is false, the first call happens after one interval
func Repeat(ctx context.Context, interval time.Duration, immediate bool, task func(context.Context)) {

	if immediate {
		task(ctx)
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			task(ctx)
			timer.Reset(interval)
		}
	}
}

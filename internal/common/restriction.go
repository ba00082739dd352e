package common

import (
	"time"

	"golang.org/x/time/rate"
)

// A restriction means that only the specified number of requests
// are allowed for a specific time duration
type Restriction struct {
	Requests int
	Duration time.Duration
}

// Translate the restriction into a token bucket that refills evenly
// over the restriction's duration and allows bursts of the full amount
func (rest *Restriction) limiter() *rate.Limiter {
	if rest.Requests <= 0 || rest.Duration <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(rest.Duration/time.Duration(rest.Requests)), rest.Requests)
}

// Build a list with a single restriction of requests per minute.
// A non positive amount means no restriction at all
func PerMinute(requests int) []Restriction {
	if requests <= 0 {
		return nil
	}
	return []Restriction{{Requests: requests, Duration: time.Minute}}
}

package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Time the rate limiter stays closed to non vital requests
// after the upstream answered with a rate limit status
const DEFAULT_COOLDOWN = 10 * time.Second

var ErrRequestRejected = errors.New("rate limiter is not allowing the request")

type RateLimiter struct {
	mu                   sync.Mutex
	limiters             []*rate.Limiter        // One token bucket per restriction
	pendingVitalRequests map[uuid.UUID]struct{} // Set of pending vital requests
	stopwatch            Stopwatch              // Cooldown after a rate limit response
}

func NewRateLimiter(restrictions []Restriction) *RateLimiter {
	rl := RateLimiter{
		pendingVitalRequests: make(map[uuid.UUID]struct{}),
		stopwatch:            NewStopwatch(DEFAULT_COOLDOWN),
	}
	for i := range restrictions {
		rl.limiters = append(rl.limiters, restrictions[i].limiter())
	}
	return &rl
}

// Decide if request is allowed.
// If the request is not allowed but vital, execution
// will block here until it is allowed or the context is done.
// Non vital requests are rejected while vital ones are waiting
func (rl *RateLimiter) Allowed(ctx context.Context, vital bool) error {

	rl.mu.Lock()
	if !vital && len(rl.pendingVitalRequests) > 0 {
		rl.mu.Unlock()
		log.Warn().Msg("Rejecting non vital request because vital queue is not empty")
		return ErrRequestRejected
	}

	// Reserve a token in every bucket, and find out the longest wait
	now := time.Now()
	reservations := make([]*rate.Reservation, 0, len(rl.limiters))
	wait := rl.stopwatch.Remaining()
	for _, limiter := range rl.limiters {
		reservation := limiter.ReserveN(now, 1)
		if !reservation.OK() {
			cancelAll(reservations, now)
			rl.mu.Unlock()
			return fmt.Errorf("restrictions will never allow this request")
		}
		reservations = append(reservations, reservation)
		if delay := reservation.DelayFrom(now); delay > wait {
			wait = delay
		}
	}

	if wait <= 0 {
		rl.mu.Unlock()
		return nil
	}
	if !vital {
		cancelAll(reservations, now)
		rl.mu.Unlock()
		log.Warn().Msg("Rejecting a non vital request because restrictions do not allow it")
		return ErrRequestRejected
	}

	// Request is vital, so it waits in the queue
	thisuuid := uuid.New()
	rl.pendingVitalRequests[thisuuid] = struct{}{}
	rl.mu.Unlock()
	log.Warn().Msg(fmt.Sprint("Vital request ", thisuuid, " delayed ", wait.Seconds(), " seconds"))

	var err error
	timer := time.NewTimer(wait)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
		cancelAll(reservations, time.Now())
		err = ctx.Err()
	}

	rl.mu.Lock()
	delete(rl.pendingVitalRequests, thisuuid)
	rl.mu.Unlock()
	return err
}

// Close the limiter to non vital requests for the cooldown period
func (rl *RateLimiter) ReceivedRateLimit() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.stopwatch.Start()
	log.Warn().Msg(fmt.Sprintf("Received rate limit, cooling down for %s", rl.stopwatch.Timeout))
}

func cancelAll(reservations []*rate.Reservation, now time.Time) {
	for _, reservation := range reservations {
		reservation.CancelAt(now)
	}
}

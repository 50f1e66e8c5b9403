package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

type Resource string

const (
	ResourceSheets   Resource = "sheets"
	ResourceCalendar Resource = "calendar"
)

const maxAttempts = 4

// Dispatcher keeps outbound API calls under the provider quotas: one token
// bucket per resource, sized from config as calls per rolling minute, plus
// backoff-and-retry for transient provider errors.
type Dispatcher struct {
	limiters map[Resource]*rate.Limiter
	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

func NewDispatcher(config *Config) *Dispatcher {
	return &Dispatcher{
		limiters: map[Resource]*rate.Limiter{
			ResourceSheets:   perMinute(config.SheetsCallsPerMinute),
			ResourceCalendar: perMinute(config.CalendarCallsPerMinute),
		},
		sleep: sleepContext,
	}
}

// sleepContext waits for the duration but wakes up early when the context
// is cancelled, so a cancelled run does not sit through a backoff chain.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func perMinute(n int) *rate.Limiter {
	if n <= 0 {
		n = 60
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60.0), n)
}

// Do waits for a token for the resource, runs fn, and retries transient
// provider errors with exponential backoff. Non-transient errors return
// immediately.
func (d *Dispatcher) Do(ctx context.Context, resource Resource, fn func() error) error {
	limiter, ok := d.limiters[resource]
	if !ok {
		limiter = perMinute(60)
		d.limiters[resource] = limiter
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if werr := limiter.Wait(ctx); werr != nil {
			return werr
		}
		err = fn()
		if err == nil {
			return nil
		}
		if !isTransient(err) || attempt == maxAttempts {
			return err
		}
		backoff := time.Duration(1<<uint(attempt-1)) * time.Second
		printVerbosely(4, "      ⏳ transient API error, retrying in %s: %v\n", backoff, err)
		if serr := d.sleep(ctx, backoff); serr != nil {
			return serr
		}
	}
	return err
}

// isTransient reports whether a Google API error is worth retrying: rate
// limit and quota rejections, plus server-side 5xx.
func isTransient(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == 429 || apiErr.Code >= 500 {
		return true
	}
	if apiErr.Code == 403 {
		for _, e := range apiErr.Errors {
			switch e.Reason {
			case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
				return true
			}
		}
	}
	return false
}

// isNotFound reports whether an error is the provider saying the resource
// is already gone. Deletes treat this as success so re-invocations stay
// idempotent.
func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404 || apiErr.Code == 410
	}
	return errors.Is(err, ErrNotFound)
}

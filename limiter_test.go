package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

func testDispatcher() (*Dispatcher, *[]time.Duration) {
	var sleeps []time.Duration
	d := NewDispatcher(testConfig())
	d.sleep = func(_ context.Context, dur time.Duration) error {
		sleeps = append(sleeps, dur)
		return nil
	}
	return d, &sleeps
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d, sleeps := testDispatcher()

	calls := 0
	err := d.Do(context.Background(), ResourceCalendar, func() error {
		calls++
		if calls < 3 {
			return &googleapi.Error{Code: 503}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(*sleeps) != 2 || (*sleeps)[0] != time.Second || (*sleeps)[1] != 2*time.Second {
		t.Errorf("backoffs = %v, want [1s 2s]", *sleeps)
	}
}

func TestDispatcherGivesUpAfterMaxAttempts(t *testing.T) {
	d, _ := testDispatcher()

	calls := 0
	err := d.Do(context.Background(), ResourceSheets, func() error {
		calls++
		return &googleapi.Error{Code: 429}
	})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != maxAttempts {
		t.Errorf("calls = %d, want %d", calls, maxAttempts)
	}
}

func TestDispatcherBackoffHonorsCancellation(t *testing.T) {
	d := NewDispatcher(testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	start := time.Now()
	err := d.Do(ctx, ResourceCalendar, func() error {
		calls++
		cancel()
		return &googleapi.Error{Code: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry after cancellation)", calls)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("backoff ignored cancellation, took %s", elapsed)
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d, sleeps := testDispatcher()

	permanent := errors.New("bad request")
	calls := 0
	err := d.Do(context.Background(), ResourceCalendar, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 || len(*sleeps) != 0 {
		t.Errorf("permanent error retried: calls=%d sleeps=%v", calls, *sleeps)
	}
}

func TestIsTransient(t *testing.T) {
	transient := []error{
		&googleapi.Error{Code: 429},
		&googleapi.Error{Code: 500},
		&googleapi.Error{Code: 503},
		&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}},
		&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}},
		fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 500}),
	}
	for _, err := range transient {
		if !isTransient(err) {
			t.Errorf("isTransient(%v) = false, want true", err)
		}
	}

	permanent := []error{
		&googleapi.Error{Code: 400},
		&googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "forbidden"}}},
		&googleapi.Error{Code: 404},
		errors.New("plain error"),
	}
	for _, err := range permanent {
		if isTransient(err) {
			t.Errorf("isTransient(%v) = true, want false", err)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	for _, err := range []error{
		&googleapi.Error{Code: 404},
		&googleapi.Error{Code: 410},
		fmt.Errorf("event x: %w", ErrNotFound),
	} {
		if !isNotFound(err) {
			t.Errorf("isNotFound(%v) = false, want true", err)
		}
	}
	if isNotFound(&googleapi.Error{Code: 500}) || isNotFound(errors.New("nope")) {
		t.Error("isNotFound matched a non-404 error")
	}
}

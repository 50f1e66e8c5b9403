package main

import (
	"context"
	"fmt"
)

// DeleteMonth removes every event in the target month, in two sweeps:
// first everything the tracking store knows about, then a direct calendar
// query over the month window to catch events created before tracking
// existed. Already-deleted events count as deleted, so invoking this twice
// is safe and the second run reports zero.
func (r *Reconciler) DeleteMonth(ctx context.Context, month, year int) (result *Result) {
	defer guard(&result)

	windowStart, windowEnd, err := monthWindow(month, year, r.location())
	if err != nil {
		return failure("%v", err)
	}

	tracked, err := r.tracker.GetAll(r.userID())
	if err != nil {
		return failure("failed to load tracking records: %v", err)
	}

	printVerbosely(1, "🚀 Deleting month %d/%d\n", month, year)

	stats := &Stats{}
	monthPrefix := fmt.Sprintf("%04d-%02d-", year, month)
	trackedEventIDs := make(map[string]bool)

	for _, rec := range tracked {
		if rec.EventID == "" || len(rec.Date) < len(monthPrefix) || rec.Date[:len(monthPrefix)] != monthPrefix {
			continue
		}
		trackedEventIDs[rec.EventID] = true
		stats.Requested++

		if err := r.cal.DeleteEvent(ctx, r.config.CalendarID, rec.EventID); err != nil {
			stats.addError(rec.RowIndex, fmt.Errorf("delete event %s failed: %w", rec.EventID, err))
			continue
		}
		printVerbosely(2, "  🗑 Deleted tracked event %s (row %d)\n", rec.EventID, int(rec.RowIndex))

		if err := r.tracker.Delete(r.userID(), rec.RowIndex); err != nil {
			stats.addConsistencyError(rec.RowIndex, rec.EventID, err)
			continue
		}
		stats.Deleted++
	}

	// Second sweep: events sitting in the month window that tracking never
	// saw (created before tracking existed, or left behind by a lost write).
	events, err := r.cal.ListEvents(ctx, r.config.CalendarID, windowStart, windowEnd)
	if err != nil {
		stats.Errored++
		stats.Errors = append(stats.Errors, fmt.Sprintf("calendar sweep failed: %v", err))
	} else {
		for _, event := range events {
			if trackedEventIDs[event.ID] {
				continue
			}
			stats.Requested++
			if err := r.cal.DeleteEvent(ctx, r.config.CalendarID, event.ID); err != nil {
				stats.Errored++
				stats.Errors = append(stats.Errors, fmt.Sprintf("event %s: %v", event.ID, err))
				continue
			}
			printVerbosely(2, "  🗑 Deleted untracked event %s: %s\n", event.ID, event.Summary)
			stats.Deleted++
		}
	}

	return r.finish("delete-month", stats, "month %d/%d: deleted %d events", month, year, stats.Deleted)
}

// DeleteSelectedRows deletes the tracked event for each given row index.
// An index with no tracking record is a silent no-op, not an error.
func (r *Reconciler) DeleteSelectedRows(ctx context.Context, indices []RowIndex) (result *Result) {
	defer guard(&result)

	if len(indices) == 0 {
		return failure("no row indices given")
	}

	printVerbosely(1, "🚀 Deleting events for %d selected rows\n", len(indices))

	stats := &Stats{Requested: len(indices)}
	for _, index := range indices {
		rec, err := r.tracker.Get(r.userID(), index)
		if err == ErrNotFound || (err == nil && rec.EventID == "") {
			printVerbosely(3, "  📋 Row %d has no tracked event, skipping\n", int(index))
			stats.Skipped++
			continue
		}
		if err != nil {
			stats.addError(index, err)
			continue
		}

		if err := r.cal.DeleteEvent(ctx, r.config.CalendarID, rec.EventID); err != nil {
			stats.addError(index, fmt.Errorf("delete event %s failed: %w", rec.EventID, err))
			continue
		}
		printVerbosely(2, "  🗑 Deleted event %s (row %d)\n", rec.EventID, int(index))

		if err := r.tracker.Delete(r.userID(), index); err != nil {
			stats.addConsistencyError(index, rec.EventID, err)
			continue
		}
		stats.Deleted++
	}

	return r.finish("delete-rows", stats, "deleted %d of %d requested rows", stats.Deleted, len(indices))
}

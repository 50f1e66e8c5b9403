package main

import (
	"context"
	"time"
)

// driftWindowDays bounds the scheduled drift scan: only rows dated from
// this many days in the past onward are re-checked, to keep API cost flat.
const driftWindowDays = 7

// FullDriftScan walks every row that has a tracked calendar event, ignoring
// the incremental cursor, and updates the calendar wherever the sheet and
// the event disagree. With checkAll false (the scheduled variant) rows
// older than the drift window are left alone; with checkAll true every
// tracked row is checked.
func (r *Reconciler) FullDriftScan(ctx context.Context, checkAll bool) (result *Result) {
	defer guard(&result)

	rows, err := r.fetchRows(ctx)
	if err != nil {
		return failure("failed to read sheet: %v", err)
	}

	tracked, err := r.tracker.GetAll(r.userID())
	if err != nil {
		return failure("failed to load tracking records: %v", err)
	}

	printVerbosely(1, "🚀 Drift scan over %d tracked rows (all=%v)\n", len(tracked), checkAll)

	floor := time.Now().In(r.location()).AddDate(0, 0, -driftWindowDays)
	floor = time.Date(floor.Year(), floor.Month(), floor.Day(), 0, 0, 0, 0, time.UTC)

	stats := &Stats{}
	for index := RowIndex(0); int(index) < len(rows); index++ {
		tracking := tracked[index]
		if tracking == nil || tracking.EventID == "" {
			continue
		}
		stats.Requested++

		row, disposition, reason := classify(rows[int(index)], index, tracking)
		if disposition == DispositionSkip {
			printVerbosely(3, "  📋 Row %d skipped: %s\n", int(index), reason)
			stats.Skipped++
			continue
		}
		if !checkAll && row.HasDate && row.Date.Before(floor) {
			printVerbosely(3, "  📋 Row %d outside drift window (%s)\n", int(index), row.RawDate)
			stats.Skipped++
			continue
		}

		r.driftCheckRow(ctx, row, tracking, disposition, stats)
	}

	return r.finish("drift", stats, "drift scan complete: %d updated, %d in sync or skipped",
		stats.Updated+stats.Created, stats.Skipped)
}

package main

import "context"

// ReprocessRows unconditionally creates a fresh calendar event for each
// given row index. It deliberately ignores existing tracking: this is the
// explicit "add these rows" action, not a drift-checked update, and a row
// that already had an event will end up with a second one.
func (r *Reconciler) ReprocessRows(ctx context.Context, indices []RowIndex) (result *Result) {
	defer guard(&result)

	if len(indices) == 0 {
		return failure("no row indices given")
	}

	rows, err := r.fetchRows(ctx)
	if err != nil {
		return failure("failed to read sheet: %v", err)
	}

	printVerbosely(1, "🚀 Reprocessing %d rows\n", len(indices))

	stats := &Stats{Requested: len(indices)}
	for _, index := range indices {
		if int(index) < 0 || int(index) >= len(rows) {
			stats.addError(index, errOutOfRange)
			continue
		}
		row := parseRow(rows[int(index)], index)
		if !row.HasDate {
			stats.addError(index, errNoValidDate)
			continue
		}
		r.createEvent(ctx, row, stats)
	}

	return r.finish("reprocess", stats, "reprocessed %d of %d rows", stats.Created, len(indices))
}

// ScanMonth creates events for every row whose date falls in the given
// month and whose type is not excluded. Same unconditional CREATE path as
// ReprocessRows, pre-filtered by date.
func (r *Reconciler) ScanMonth(ctx context.Context, month, year int) (result *Result) {
	defer guard(&result)

	if _, _, err := monthWindow(month, year, r.location()); err != nil {
		return failure("%v", err)
	}

	rows, err := r.fetchRows(ctx)
	if err != nil {
		return failure("failed to read sheet: %v", err)
	}

	printVerbosely(1, "🚀 Scanning month %d/%d over %d rows\n", month, year, len(rows))

	stats := &Stats{}
	for index := RowIndex(0); int(index) < len(rows); index++ {
		if len(rows[int(index)]) < minRowColumns {
			continue
		}
		row := parseRow(rows[int(index)], index)
		if !row.HasDate || int(row.Date.Month()) != month || row.Date.Year() != year {
			continue
		}
		if isExcludedType(row.TypeDetail) {
			printVerbosely(3, "  📋 Row %d excluded type: %s\n", int(index), row.TypeDetail)
			stats.Skipped++
			continue
		}
		stats.Requested++
		r.createEvent(ctx, row, stats)
	}

	return r.finish("scan-month", stats, "month %d/%d: created %d events", month, year, stats.Created)
}

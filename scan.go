package main

import "context"

// ManualScanNextRow processes the single row at the persisted cursor and
// advances the cursor past it — on success, on error and on skip alike, so
// one permanently unparseable row can never wedge the scan.
func (r *Reconciler) ManualScanNextRow(ctx context.Context) (result *Result) {
	defer guard(&result)

	cursor, err := r.tracker.LoadCursor(r.userID())
	if err != nil {
		return failure("failed to load scan cursor: %v", err)
	}

	rows, err := r.fetchRows(ctx)
	if err != nil {
		return failure("failed to read sheet: %v", err)
	}

	if int(cursor) >= len(rows) {
		return success(&Stats{}, "scan cursor at end of sheet (row %d of %d)", int(cursor), len(rows))
	}

	printVerbosely(1, "🚀 Incremental scan: row %d (sheet row %d)\n", int(cursor), int(cursor.SheetRow()))

	stats := &Stats{Requested: 1}
	r.syncRow(ctx, rows[int(cursor)], cursor, stats)

	if err := r.tracker.SaveCursor(r.userID(), cursor+1); err != nil {
		stats.addError(cursor, err)
	}

	return r.finish("scan", stats, "scanned row %d", int(cursor))
}

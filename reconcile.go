package main

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	errOutOfRange  = errors.New("row index outside the fetched data range")
	errNoValidDate = errors.New("no valid date")
)

// Reconciler drives sheet-row ⇄ calendar-event reconciliation. All
// collaborators are injected; it holds no ambient globals and no mutable
// state of its own, so concurrent invocations only share what the tracking
// store persists.
type Reconciler struct {
	config  *Config
	sheets  SheetsAPI
	cal     CalendarAPI
	tracker *TrackingStore
	logs    *LogStore
}

func NewReconciler(config *Config, sheetsAPI SheetsAPI, cal CalendarAPI, tracker *TrackingStore, logs *LogStore) (*Reconciler, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return &Reconciler{
		config:  config,
		sheets:  sheetsAPI,
		cal:     cal,
		tracker: tracker,
		logs:    logs,
	}, nil
}

func (r *Reconciler) userID() string {
	return r.config.AccountName
}

func (r *Reconciler) fetchRows(ctx context.Context) ([][]string, error) {
	return r.sheets.GetValues(ctx, r.config.SpreadsheetID, r.config.SheetName, r.config.DataRange)
}

// resolveCoordLink fetches the hyperlink behind the coordination cell.
// Best effort: a metadata read failing should not block the event itself.
func (r *Reconciler) resolveCoordLink(ctx context.Context, row SheetRow) string {
	if row.CoordCell == "" {
		return ""
	}
	link, err := r.sheets.GetHyperlink(ctx, r.config.SpreadsheetID, r.config.SheetName,
		cellA1(int(colCoordLink), row.Index.SheetRow()))
	if err != nil {
		printVerbosely(3, "      ⚠️ hyperlink lookup failed for row %d: %v\n", int(row.Index), err)
		return ""
	}
	return link
}

func trackingFor(row SheetRow, eventID, status string) *TrackingRecord {
	return &TrackingRecord{
		RowIndex: row.Index,
		EventID:  eventID,
		Status:   status,
		SheetRow: row.Index.SheetRow(),
		Title:    row.Summary(),
		Date:     row.Date.Format("2006-01-02"),
		Location: row.Location,
	}
}

// syncRow classifies one row and applies the resulting calendar mutation.
// Used by the incremental scan; targeted operations have their own paths.
func (r *Reconciler) syncRow(ctx context.Context, cells []string, index RowIndex, stats *Stats) {
	tracking, err := r.tracker.Get(r.userID(), index)
	if err != nil && err != ErrNotFound {
		stats.addError(index, err)
		return
	}
	if err == ErrNotFound {
		tracking = nil
	}

	row, disposition, reason := classify(cells, index, tracking)
	printVerbosely(2, "  📋 Row %d → %s (%s)\n", int(index), disposition, reason)

	switch disposition {
	case DispositionSkip:
		stats.Skipped++

	case DispositionCreate:
		r.createEvent(ctx, row, stats)

	case DispositionUpdate:
		r.driftCheckRow(ctx, row, tracking, DispositionUpdate, stats)

	case DispositionCancel:
		r.cancelEvent(ctx, row, tracking, stats)
	}
}

// createEvent inserts a fresh calendar event for the row and persists
// tracking. The tracking write follows the calendar mutation; if it fails
// the run reports a consistency error instead of pretending the row synced.
func (r *Reconciler) createEvent(ctx context.Context, row SheetRow, stats *Stats) {
	event := buildEvent(row, DispositionCreate, r.resolveCoordLink(ctx, row), r.config)

	eventID, err := r.cal.InsertEvent(ctx, r.config.CalendarID, event)
	if err != nil {
		stats.addError(row.Index, fmt.Errorf("insert failed: %w", err))
		return
	}
	printVerbosely(2, "    ➕ Created event %s: %s\n", eventID, event.Summary)

	if err := r.tracker.Put(r.userID(), trackingFor(row, eventID, StatusProcessed)); err != nil {
		stats.addConsistencyError(row.Index, eventID, err)
		return
	}
	stats.Created++
	r.writeBack(ctx, row.Index, eventID)
}

// driftCheckRow re-derives the desired event and pushes an update only when
// some field actually differs. An event deleted out-of-band is re-created,
// unless the row is itself cancelled.
func (r *Reconciler) driftCheckRow(ctx context.Context, row SheetRow, tracking *TrackingRecord, disposition Disposition, stats *Stats) {
	current, err := r.cal.GetEvent(ctx, r.config.CalendarID, tracking.EventID)
	if err != nil {
		if isNotFound(err) {
			if disposition == DispositionCancel {
				printVerbosely(3, "    ✔️ Cancelled row %d's event is already gone\n", int(row.Index))
				stats.Skipped++
				return
			}
			printVerbosely(2, "    ♻️ Event %s gone from calendar, recreating\n", tracking.EventID)
			r.createEvent(ctx, row, stats)
			return
		}
		stats.addError(row.Index, fmt.Errorf("get event %s failed: %w", tracking.EventID, err))
		return
	}

	desired := buildEvent(row, disposition, r.resolveCoordLink(ctx, row), r.config)
	fields := diffEvents(desired, current)
	if len(fields) == 0 {
		printVerbosely(3, "    ✔️ Row %d in sync, nothing to update\n", int(row.Index))
		stats.Skipped++
		return
	}
	printVerbosely(2, "    🔁 Row %d drifted, updating fields: %v\n", int(row.Index), fields)

	if err := r.cal.UpdateEvent(ctx, r.config.CalendarID, tracking.EventID, desired); err != nil {
		stats.addError(row.Index, fmt.Errorf("update failed: %w", err))
		return
	}
	status := StatusUpdated
	if disposition == DispositionCancel {
		status = StatusCancelled
	}
	if err := r.tracker.Put(r.userID(), trackingFor(row, tracking.EventID, status)); err != nil {
		stats.addConsistencyError(row.Index, tracking.EventID, err)
		return
	}
	stats.Updated++
}

// cancelEvent marks the tracked event cancelled on the calendar. A cancel
// flag on a row that never produced an event is a no-op skip.
func (r *Reconciler) cancelEvent(ctx context.Context, row SheetRow, tracking *TrackingRecord, stats *Stats) {
	if tracking == nil || tracking.EventID == "" {
		printVerbosely(3, "    ⚠️ Row %d flagged cancelled but has no tracked event\n", int(row.Index))
		stats.Skipped++
		return
	}

	event := buildEvent(row, DispositionCancel, r.resolveCoordLink(ctx, row), r.config)
	if err := r.cal.UpdateEvent(ctx, r.config.CalendarID, tracking.EventID, event); err != nil {
		stats.addError(row.Index, fmt.Errorf("cancel failed: %w", err))
		return
	}
	printVerbosely(2, "    🚫 Cancelled event %s: %s\n", tracking.EventID, event.Summary)

	if err := r.tracker.Put(r.userID(), trackingFor(row, tracking.EventID, StatusCancelled)); err != nil {
		stats.addConsistencyError(row.Index, tracking.EventID, err)
		return
	}
	stats.Updated++
}

// writeBack mirrors the processed marker and event id into the sheet.
// The tracking store stays authoritative; write-backs are best effort and
// disabled entirely when update_processed is off.
func (r *Reconciler) writeBack(ctx context.Context, index RowIndex, eventID string) {
	if !r.config.UpdateProcessed {
		return
	}
	sheetRow := index.SheetRow()
	updates := []CellUpdate{
		{
			Range: r.config.SheetName + "!" + cellA1(r.config.ProcessedColumn, sheetRow),
			Value: r.config.ProcessedMarker,
		},
		{
			Range: r.config.SheetName + "!" + cellA1(r.config.EventIDColumn, sheetRow),
			Value: eventID,
		},
	}
	if err := r.sheets.BatchUpdate(ctx, r.config.SpreadsheetID, updates); err != nil {
		printVerbosely(2, "    ⚠️ Sheet write-back failed for row %d: %v\n", int(index), err)
	}
}

// finish persists the processing log and wraps the run into the result
// envelope. A log-write failure downgrades the message but not the result.
func (r *Reconciler) finish(operation string, stats *Stats, format string, a ...interface{}) *Result {
	if err := r.logs.Write(r.userID(), operation, stats); err != nil {
		printVerbosely(1, "⚠️ Failed to persist processing log: %v\n", err)
	}
	res := success(stats, format, a...)
	if stats.Errored > 0 {
		res.Message += fmt.Sprintf(" (%d errors)", stats.Errored)
	}
	return res
}

// guard converts a panic anywhere inside an operation into the
// {success:false} envelope; operations never throw at the caller.
func guard(result **Result) {
	if rec := recover(); rec != nil {
		*result = failure("internal error: %v", rec)
	}
}

func (r *Reconciler) location() *time.Location {
	loc, err := time.LoadLocation(r.config.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

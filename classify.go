package main

import "strings"

type Disposition int

const (
	DispositionSkip Disposition = iota
	DispositionCreate
	DispositionUpdate
	DispositionCancel
)

func (d Disposition) String() string {
	switch d {
	case DispositionCreate:
		return "CREATE"
	case DispositionUpdate:
		return "UPDATE"
	case DispositionCancel:
		return "CANCEL"
	default:
		return "SKIP"
	}
}

// excludedTypeDetails lists the type-detail markers that are never synced
// to the calendar, no matter what: quotes, rentals, tentative options and
// production-only rows.
var excludedTypeDetails = map[string]bool{
	"quote":      true,
	"rental":     true,
	"option":     true,
	"production": true,
}

func isExcludedType(typeDetail string) bool {
	return excludedTypeDetails[strings.ToLower(strings.TrimSpace(typeDetail))]
}

// classify is the single source of truth for what a row means. Rules apply
// in order; the first match wins.
//
// A row whose type-detail becomes excluded after it was already synced is
// NOT cancelled here: excluded classification stops future syncs, but
// removing an existing event goes through the explicit cancel flag or a
// delete operation.
func classify(cells []string, index RowIndex, tracking *TrackingRecord) (SheetRow, Disposition, string) {
	if len(cells) < minRowColumns {
		return SheetRow{Index: index}, DispositionSkip, "insufficient data"
	}

	row := parseRow(cells, index)

	if !row.HasDate {
		return row, DispositionSkip, "no valid date"
	}

	if isExcludedType(row.TypeDetail) {
		return row, DispositionSkip, "excluded type: " + row.TypeDetail
	}

	if row.Cancelled {
		return row, DispositionCancel, "cancellation flag set"
	}

	if tracking != nil && tracking.EventID != "" {
		return row, DispositionUpdate, "tracked event " + tracking.EventID
	}

	return row, DispositionCreate, "new row"
}

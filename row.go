package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RowIndex is the 0-based offset of a row within the fetched data range.
// SheetRowNumber is the 1-based physical spreadsheet row. The two are kept
// as distinct types so the +2 conversion cannot be applied twice or skipped.
type RowIndex int

type SheetRowNumber int

// SheetRow converts a data-range offset to the physical spreadsheet row:
// one for the header row, one for the 0→1-based shift. This is the only
// place the conversion happens.
func (i RowIndex) SheetRow() SheetRowNumber {
	return SheetRowNumber(int(i) + 2)
}

type colIdx int

const (
	colTypeDetail colIdx = 0
	colDate       colIdx = 1
	colDay        colIdx = 2
	colEventType  colIdx = 3
	colTitleA     colIdx = 4
	colTitleB     colIdx = 5
	colLocation   colIdx = 6
	colFee        colIdx = 7
	colNotes      colIdx = 8
	colStartTime  colIdx = 9
	colEndTime    colIdx = 10
	colManager    colIdx = 11
	colCoordLink  colIdx = 12
	colCancelled  colIdx = 13
	colTechFirst  colIdx = 14
	colTechLast   colIdx = 19
	colProcessed  colIdx = 20
	colEventID    colIdx = 21
)

// minRowColumns is the smallest cell count a row must have to be usable:
// everything through the manager column.
const minRowColumns = 12

var rowDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`)

// SheetRow is the named-field view of one positional spreadsheet row.
// parseRow is the only code that touches cells by offset; everything
// downstream works with these fields.
type SheetRow struct {
	Index       RowIndex
	TypeDetail  string
	RawDate     string
	Date        time.Time
	HasDate     bool
	EventType   string
	TitleA      string
	TitleB      string
	Location    string
	Fee         string
	Notes       string
	StartTime   string
	EndTime     string
	Manager     string
	CoordCell   string
	Cancelled   bool
	Technicians []string
	EventID     string
}

func parseRow(cells []string, index RowIndex) SheetRow {
	row := SheetRow{Index: index}
	if len(cells) < int(minRowColumns) {
		return row
	}

	row.TypeDetail = strings.TrimSpace(cell(cells, colTypeDetail))
	row.RawDate = strings.TrimSpace(cell(cells, colDate))
	row.EventType = strings.TrimSpace(cell(cells, colEventType))
	row.TitleA = strings.TrimSpace(cell(cells, colTitleA))
	row.TitleB = strings.TrimSpace(cell(cells, colTitleB))
	row.Location = strings.TrimSpace(cell(cells, colLocation))
	row.Fee = strings.TrimSpace(cell(cells, colFee))
	row.Notes = strings.TrimSpace(cell(cells, colNotes))
	row.StartTime = strings.TrimSpace(cell(cells, colStartTime))
	row.EndTime = strings.TrimSpace(cell(cells, colEndTime))
	row.Manager = strings.TrimSpace(cell(cells, colManager))
	row.CoordCell = strings.TrimSpace(cell(cells, colCoordLink))
	row.Cancelled = isTruthy(cell(cells, colCancelled))
	row.EventID = strings.TrimSpace(cell(cells, colEventID))

	for c := colTechFirst; c <= colTechLast; c++ {
		tech := strings.TrimSpace(cell(cells, c))
		if tech != "" {
			row.Technicians = append(row.Technicians, tech)
		}
	}

	if date, ok := parseRowDate(row.RawDate); ok {
		row.Date = date
		row.HasDate = true
	}

	return row
}

func cell(cells []string, c colIdx) string {
	if int(c) >= len(cells) {
		return ""
	}
	return cells[int(c)]
}

// parseRowDate accepts only the sheet's D/M/YY format. Anything else,
// including full 4-digit years, means the row is not schedulable.
func parseRowDate(raw string) (time.Time, bool) {
	m := rowDatePattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	date := time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject normalized overflows like 31/2.
	if date.Day() != day || int(date.Month()) != month {
		return time.Time{}, false
	}
	return date, true
}

func isTruthy(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`)), "true")
}

// Summary joins the two title fragments the way the sheet's authors expect
// to read them in the calendar.
func (r SheetRow) Summary() string {
	return strings.TrimSpace(strings.TrimSpace(r.TitleA) + " " + strings.TrimSpace(r.TitleB))
}

// columnA1 converts a 0-based column index to its A1 letter(s).
func columnA1(col int) string {
	name := ""
	col++
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	return name
}

// cellA1 names a single physical cell, e.g. row index 7, column 21 → "V9".
func cellA1(col int, row SheetRowNumber) string {
	return fmt.Sprintf("%s%d", columnA1(col), int(row))
}

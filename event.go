package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	cancelPrefix = "Canceled: "

	// techDelimiter is a parsing contract, not decoration: drift detection
	// re-extracts the technician list from previously written descriptions
	// by finding this exact heading. Do not change it.
	techDelimiter  = "--- Technicians ---"
	noneAssigned   = "(none assigned)"
	coordLinkLabel = "Coordination sheet: "
	managerLabel   = "Event manager: "

	eventStatusConfirmed = "confirmed"
	eventStatusCancelled = "cancelled"

	wallClockLayout = "2006-01-02T15:04:05"
)

// Event is the provider-neutral calendar payload. Start and End are local
// wall-clock datetimes; TimeZone carries the IANA zone separately so the
// same wall time is preserved no matter where the process runs.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       string
	End         string
	TimeZone    string
	Status      string
}

// buildEvent maps a classified row to its desired calendar event.
func buildEvent(row SheetRow, disposition Disposition, coordLink string, config *Config) Event {
	summary := row.Summary()
	if disposition == DispositionCancel && !strings.HasPrefix(summary, cancelPrefix) {
		summary = cancelPrefix + summary
	}

	start, end := eventTimes(row, config)

	status := eventStatusConfirmed
	if disposition == DispositionCancel {
		status = eventStatusCancelled
	}

	return Event{
		Summary:     summary,
		Description: buildDescription(row, coordLink),
		Location:    row.Location,
		Start:       start,
		End:         end,
		TimeZone:    config.Timezone,
		Status:      status,
	}
}

// eventTimes renders start/end wall-clock datetimes. Blank start falls back
// to the configured default start; blank end is always start plus the
// configured duration, which is the single end-time policy for every entry
// point.
func eventTimes(row SheetRow, config *Config) (string, string) {
	startH, startM, ok := parseClock(row.StartTime)
	if !ok {
		startH, startM, _ = parseClock(config.DefaultStartTime)
	}

	start := time.Date(row.Date.Year(), row.Date.Month(), row.Date.Day(), startH, startM, 0, 0, time.UTC)

	endH, endM, ok := parseClock(row.EndTime)
	var end time.Time
	if ok {
		end = time.Date(row.Date.Year(), row.Date.Month(), row.Date.Day(), endH, endM, 0, 0, time.UTC)
		if !end.After(start) {
			// Past-midnight events are entered as an end before the start.
			end = end.AddDate(0, 0, 1)
		}
	} else {
		end = start.Add(time.Duration(config.DefaultDurationHours) * time.Hour)
	}

	return start.Format(wallClockLayout), end.Format(wallClockLayout)
}

func parseClock(raw string) (int, int, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// buildDescription assembles the description block in its fixed order:
// coordination link (or the raw cell text), manager line, technician
// delimiter, one line per technician.
func buildDescription(row SheetRow, coordLink string) string {
	var b strings.Builder

	if coordLink != "" {
		b.WriteString(coordLinkLabel + coordLink + "\n")
	} else if row.CoordCell != "" {
		b.WriteString(row.CoordCell + "\n")
	}

	b.WriteString(managerLabel + row.Manager + "\n")
	b.WriteString(techDelimiter + "\n")

	if len(row.Technicians) == 0 {
		b.WriteString(noneAssigned + "\n")
		return b.String()
	}
	for _, tech := range row.Technicians {
		b.WriteString("- " + tech + "\n")
	}
	return b.String()
}

// extractTechnicians recovers the technician list from a description written
// by buildDescription. The description is the only place the list lives on
// the calendar side, so this is the drift-comparison surface.
func extractTechnicians(description string) []string {
	var techs []string
	inBlock := false
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if line == techDelimiter {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if line == "" || line == noneAssigned {
			break
		}
		techs = append(techs, strings.TrimSpace(strings.TrimPrefix(line, "- ")))
	}
	return techs
}

func sameTechnicians(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// diffEvents reports which fields differ between the desired payload and
// the event currently on the calendar. The technician list inside the
// description is compared as a set; the rest of the description verbatim.
func diffEvents(desired, actual Event) []string {
	var fields []string

	if desired.Summary != actual.Summary {
		fields = append(fields, "summary")
	}
	if desired.Location != actual.Location {
		fields = append(fields, "location")
	}
	if wallClock(desired.Start) != wallClock(actual.Start) {
		fields = append(fields, "start")
	}
	if wallClock(desired.End) != wallClock(actual.End) {
		fields = append(fields, "end")
	}
	if desired.Status != actual.Status {
		fields = append(fields, "status")
	}

	if !sameTechnicians(extractTechnicians(desired.Description), extractTechnicians(actual.Description)) {
		fields = append(fields, "technicians")
	} else if stripTechnicianBlock(desired.Description) != stripTechnicianBlock(actual.Description) {
		fields = append(fields, "description")
	}

	return fields
}

func stripTechnicianBlock(description string) string {
	if i := strings.Index(description, techDelimiter); i >= 0 {
		return strings.TrimSpace(description[:i])
	}
	return strings.TrimSpace(description)
}

// wallClock normalizes a datetime string to the wall-clock layout, dropping
// any UTC-offset suffix the calendar API echoes back.
func wallClock(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= len(wallClockLayout) {
		if t, err := time.Parse(wallClockLayout, raw[:len(wallClockLayout)]); err == nil {
			return t.Format(wallClockLayout)
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(wallClockLayout)
	}
	return raw
}

// monthWindow returns the inclusive start and exclusive end of a calendar
// month in the given zone.
func monthWindow(month, year int, loc *time.Location) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month: %d", month)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}

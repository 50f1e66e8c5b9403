package main

import (
	"strings"
	"testing"
)

func testRowCells() []string {
	return []string{"", "15/03/24", "Fri", "כנס", "Conf", "erence", "Hall A", "", "", "09:00", "11:00", "Mgr",
		"", "", "Alice", "Bob"}
}

func TestClassifyInsufficientData(t *testing.T) {
	_, disposition, reason := classify([]string{"", "15/03/24", "Fri"}, 0, nil)
	if disposition != DispositionSkip || !strings.Contains(reason, "insufficient") {
		t.Errorf("got %s (%s), want SKIP insufficient data", disposition, reason)
	}
	_, disposition, _ = classify(nil, 0, nil)
	if disposition != DispositionSkip {
		t.Errorf("nil row: got %s, want SKIP", disposition)
	}
}

func TestClassifyNoValidDate(t *testing.T) {
	for _, raw := range []string{"", "someday", "15/03/2024"} {
		cells := testRowCells()
		cells[int(colDate)] = raw
		_, disposition, reason := classify(cells, 0, nil)
		if disposition != DispositionSkip || !strings.Contains(reason, "date") {
			t.Errorf("date %q: got %s (%s), want SKIP no valid date", raw, disposition, reason)
		}
	}
}

func TestClassifyExcludedTypeBeatsTracking(t *testing.T) {
	// Excluded type-details are never synced, even if the row was already
	// processed into an event earlier.
	for _, typeDetail := range []string{"quote", "Rental", "OPTION", " production "} {
		cells := testRowCells()
		cells[int(colTypeDetail)] = typeDetail
		tracking := &TrackingRecord{RowIndex: 0, EventID: "evt-existing", Status: StatusProcessed}
		_, disposition, reason := classify(cells, 0, tracking)
		if disposition != DispositionSkip || !strings.Contains(reason, "excluded") {
			t.Errorf("type %q: got %s (%s), want SKIP excluded", typeDetail, disposition, reason)
		}
	}
}

func TestClassifyCancelFlag(t *testing.T) {
	cells := testRowCells()
	cells[int(colCancelled)] = "TRUE"
	tracking := &TrackingRecord{RowIndex: 0, EventID: "evt1"}
	_, disposition, _ := classify(cells, 0, tracking)
	if disposition != DispositionCancel {
		t.Errorf("got %s, want CANCEL", disposition)
	}
	// Cancel wins over the tracked-row update path.
	_, disposition, _ = classify(cells, 0, nil)
	if disposition != DispositionCancel {
		t.Errorf("untracked cancel: got %s, want CANCEL", disposition)
	}
}

func TestClassifyTrackedRowIsUpdate(t *testing.T) {
	tracking := &TrackingRecord{RowIndex: 3, EventID: "evt1"}
	_, disposition, _ := classify(testRowCells(), 3, tracking)
	if disposition != DispositionUpdate {
		t.Errorf("got %s, want UPDATE", disposition)
	}

	// Tracking with an empty event id means nothing was created yet.
	empty := &TrackingRecord{RowIndex: 3}
	_, disposition, _ = classify(testRowCells(), 3, empty)
	if disposition != DispositionCreate {
		t.Errorf("empty event id: got %s, want CREATE", disposition)
	}
}

func TestClassifyNewRowIsCreate(t *testing.T) {
	_, disposition, _ := classify(testRowCells(), 0, nil)
	if disposition != DispositionCreate {
		t.Errorf("got %s, want CREATE", disposition)
	}
}

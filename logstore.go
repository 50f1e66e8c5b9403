package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Stats summarizes one reconciliation run. Errors holds per-row failure
// descriptions; one row failing never aborts the rest of a run, so the
// slice can be non-empty on an otherwise successful result.
type Stats struct {
	Requested int      `json:"requested,omitempty"`
	Created   int      `json:"created,omitempty"`
	Updated   int      `json:"updated,omitempty"`
	Skipped   int      `json:"skipped,omitempty"`
	Deleted   int      `json:"deleted,omitempty"`
	Errored   int      `json:"errors"`
	Errors    []string `json:"errorDetails,omitempty"`
}

func (s *Stats) addError(index RowIndex, err error) {
	s.Errored++
	s.Errors = append(s.Errors, fmt.Sprintf("row %d: %v", int(index), err))
}

// addConsistencyError records the one failure mode that needs a human: the
// calendar mutation went through but the tracking write did not, so the two
// stores disagree. It is flagged distinctly so it is never retried blindly
// (a blind retry would duplicate the calendar mutation).
func (s *Stats) addConsistencyError(index RowIndex, eventID string, err error) {
	s.Errored++
	s.Errors = append(s.Errors,
		fmt.Sprintf("INCONSISTENT row %d: calendar event %s mutated but tracking write failed: %v", int(index), eventID, err))
}

func (s *Stats) rowsAffected() int {
	return s.Created + s.Updated + s.Deleted
}

// Result is the envelope every exposed operation returns. Internal errors
// are converted into Success=false at the operation boundary; nothing
// escapes as a panic or a bare error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Stats   *Stats `json:"stats,omitempty"`
}

func failure(format string, a ...interface{}) *Result {
	return &Result{Success: false, Message: fmt.Sprintf(format, a...)}
}

func success(stats *Stats, format string, a ...interface{}) *Result {
	return &Result{Success: true, Message: fmt.Sprintf(format, a...), Stats: stats}
}

type LogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Operation    string    `json:"operation"`
	RowsAffected int       `json:"rowsAffected"`
	Errors       []string  `json:"errors,omitempty"`
	Stats        *Stats    `json:"stats,omitempty"`
}

type LogStore struct {
	db *sql.DB
}

func NewLogStore(db *sql.DB) *LogStore {
	return &LogStore{db: db}
}

func (s *LogStore) Write(userID, operation string, stats *Stats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO logs (user_id, timestamp, operation, rows_affected, errors, stats)
		VALUES (?, ?, ?, ?, ?, ?)`,
		userID, time.Now().UTC(), operation, stats.rowsAffected(),
		strings.Join(stats.Errors, "\n"), string(statsJSON))
	return err
}

func (s *LogStore) Recent(userID string, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT timestamp, operation, rows_affected, errors, stats
		FROM logs WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var entry LogEntry
		var errText, statsJSON string
		if err := rows.Scan(&entry.Timestamp, &entry.Operation, &entry.RowsAffected, &errText, &statsJSON); err != nil {
			return nil, err
		}
		if errText != "" {
			entry.Errors = strings.Split(errText, "\n")
		}
		var stats Stats
		if json.Unmarshal([]byte(statsJSON), &stats) == nil {
			entry.Stats = &stats
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

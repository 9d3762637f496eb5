// Package state persists the last-sent facts per route segment and decides
// whether a freshly computed set differs enough to justify a dynamic report.
//
// One Record per (segment, date) lives under <root>/<date>/<segment>.json.
// Records are written only when a report is actually sent, with a
// write-new-then-rename so a crash cannot leave a half-written file. A
// malformed record reads as absent. Day rollover supersedes records by
// path: a new date directory starts empty.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/henemm/weather-email-autobot/internal/domain"
)

const dateLayout = "2006-01-02"

// Record is the persisted per-segment, per-day send state.
type Record struct {
	SegmentID string `json:"segment_id"`
	Date      string `json:"date"`

	Results map[domain.ParameterID]domain.ExtremumResult `json:"results"`

	LastSentAt        time.Time `json:"last_sent_at"`
	DynamicSendsToday int       `json:"dynamic_sends_today"`
}

// Store reads and writes Records under a root directory.
type Store struct {
	root   string
	logger *slog.Logger
}

func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{root: root, logger: logger}
}

func (s *Store) path(segmentID string, date time.Time) string {
	return filepath.Join(s.root, date.Format(dateLayout), fileName(segmentID)+".json")
}

// fileName makes a segment identifier safe as a file name.
func fileName(segmentID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, segmentID)
}

// Load returns the record for a segment and day, or nil when none exists.
// A corrupt record is logged and treated as absent, never as a failure.
func (s *Store) Load(segmentID string, date time.Time) (*Record, error) {
	path := s.path(segmentID, date)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("discarding corrupt state record",
			"path", path,
			"error", err,
		)
		return nil, nil
	}
	return &rec, nil
}

// Save writes a record atomically.
func (s *Store) Save(rec *Record) error {
	date, err := time.Parse(dateLayout, rec.Date)
	if err != nil {
		return fmt.Errorf("save record: bad date %q: %w", rec.Date, err)
	}
	path := s.path(rec.SegmentID, date)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// NextRecord builds the record to persist after a successful send. A
// dynamic send increments the daily counter; scheduled sends reset the
// facts and timestamp but leave the counter as inherited.
func NextRecord(prev *Record, segmentID string, date time.Time, results map[domain.ParameterID]domain.ExtremumResult, sentAt time.Time, dynamic bool) *Record {
	rec := &Record{
		SegmentID:  segmentID,
		Date:       date.Format(dateLayout),
		Results:    results,
		LastSentAt: sentAt,
	}
	if prev != nil && prev.Date == rec.Date {
		rec.DynamicSendsToday = prev.DynamicSendsToday
	}
	if dynamic {
		rec.DynamicSendsToday++
	}
	return rec
}

package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Scoring constants applied to every daily record.
const (
	BaselineScore    = 80
	ActiveBonus      = 2
	ViolationPenalty = -2
)

// DateLayout is the calendar format used for roster dates.
const DateLayout = "2006-01-02"

// Flag identifies one of the two toggleable conduct markers of a daily record.
type Flag string

const (
	// FlagActive marks a student as having participated actively.
	FlagActive Flag = "active"
	// FlagViolated marks a student as having broken a rule.
	FlagViolated Flag = "violated"
)

// Valid reports whether the flag is one of the known markers.
func (f Flag) Valid() bool {
	return f == FlagActive || f == FlagViolated
}

// DailyRecord is the conduct entry for one student on one date.
type DailyRecord struct {
	Active   bool `json:"active"`
	Violated bool `json:"violated"`
	Score    int  `json:"score"`
}

// ComputeScore derives the total score from the two conduct flags.
func ComputeScore(active, violated bool) int {
	score := BaselineScore
	if active {
		score += ActiveBonus
	}
	if violated {
		score += ViolationPenalty
	}
	return score
}

// NewDailyRecord builds a record whose score matches its flags.
func NewDailyRecord(active, violated bool) DailyRecord {
	return DailyRecord{Active: active, Violated: violated, Score: ComputeScore(active, violated)}
}

// DefaultRecord returns the record used before any flag has been set.
func DefaultRecord() DailyRecord {
	return NewDailyRecord(false, false)
}

// Toggle returns a copy of the record with the flag flipped and the score recomputed.
func (r DailyRecord) Toggle(flag Flag) DailyRecord {
	active, violated := r.Active, r.Violated
	switch flag {
	case FlagActive:
		active = !active
	case FlagViolated:
		violated = !violated
	}
	return NewDailyRecord(active, violated)
}

// UnmarshalJSON accepts both the current field names and the legacy plus/minus
// snapshot format. The stored score is ignored and derived from the flags.
func (r *DailyRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Active   *bool `json:"active"`
		Violated *bool `json:"violated"`
		Plus     *bool `json:"plus"`
		Minus    *bool `json:"minus"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = NewDailyRecord(firstBool(raw.Active, raw.Plus), firstBool(raw.Violated, raw.Minus))
	return nil
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}

// Roster maps student name to date to daily record.
//
// Roster values are treated as immutable: the With* helpers return a new
// Roster that shares untouched per-student maps with the receiver.
type Roster map[string]map[string]DailyRecord

// DayEntry is one row of the per-date table. Present is false when the record
// is the read-only default.
type DayEntry struct {
	Name    string
	Date    string
	Present bool
	Record  DailyRecord
}

// HistoryEntry is one flattened (student, date) record.
type HistoryEntry struct {
	Name     string
	Date     string
	Active   bool
	Violated bool
	Score    int
}

// SeriesPoint is a single chart sample for a student.
type SeriesPoint struct {
	Date  string
	Score int
}

// Record returns the stored record for the pair, or the default and false.
func (r Roster) Record(name, date string) (DailyRecord, bool) {
	if dates, ok := r[name]; ok {
		if record, ok := dates[date]; ok {
			return record, true
		}
	}
	return DefaultRecord(), false
}

// WithRecord returns a roster where the pair holds record.
func (r Roster) WithRecord(name, date string, record DailyRecord) Roster {
	next := r.shallowCopy()
	dates := make(map[string]DailyRecord, len(r[name])+1)
	for d, rec := range r[name] {
		dates[d] = rec
	}
	dates[date] = record
	next[name] = dates
	return next
}

// WithoutStudent returns a roster with every record of name removed.
func (r Roster) WithoutStudent(name string) Roster {
	next := r.shallowCopy()
	delete(next, name)
	return next
}

// Clone returns a deep copy.
func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	for name, dates := range r {
		copied := make(map[string]DailyRecord, len(dates))
		for d, rec := range dates {
			copied[d] = rec
		}
		out[name] = copied
	}
	return out
}

func (r Roster) shallowCopy() Roster {
	out := make(Roster, len(r)+1)
	for name, dates := range r {
		out[name] = dates
	}
	return out
}

// Students returns the student names in ascending order.
func (r Roster) Students() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dates returns every distinct date, most recent first.
func (r Roster) Dates() []string {
	seen := make(map[string]struct{})
	for _, dates := range r {
		for d := range dates {
			seen[d] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return CompareDates(out[i], out[j]) > 0
	})
	return out
}

// ViewForDate lists every student with its record for date, defaulting absent
// records without storing them.
func (r Roster) ViewForDate(date string) []DayEntry {
	names := r.Students()
	entries := make([]DayEntry, 0, len(names))
	for _, name := range names {
		record, present := r.Record(name, date)
		entries = append(entries, DayEntry{Name: name, Date: date, Present: present, Record: record})
	}
	return entries
}

// History flattens the roster, newest date first and names ascending within a date.
func (r Roster) History() []HistoryEntry {
	entries := make([]HistoryEntry, 0)
	for name, dates := range r {
		for d, rec := range dates {
			entries = append(entries, HistoryEntry{
				Name:     name,
				Date:     d,
				Active:   rec.Active,
				Violated: rec.Violated,
				Score:    rec.Score,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if cmp := CompareDates(entries[i].Date, entries[j].Date); cmp != 0 {
			return cmp > 0
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// Series returns the score timeline of name in ascending date order.
func (r Roster) Series(name string) []SeriesPoint {
	dates := r[name]
	points := make([]SeriesPoint, 0, len(dates))
	for d, rec := range dates {
		points = append(points, SeriesPoint{Date: d, Score: rec.Score})
	}
	sort.Slice(points, func(i, j int) bool {
		return CompareDates(points[i].Date, points[j].Date) < 0
	})
	return points
}

// ParseDate validates a YYYY-MM-DD value and returns its canonical form.
func ParseDate(value string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// CompareDates orders two roster dates by calendar, falling back to a string
// comparison for values that do not parse.
func CompareDates(a, b string) int {
	ta, errA := time.Parse(DateLayout, a)
	tb, errB := time.Parse(DateLayout, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}

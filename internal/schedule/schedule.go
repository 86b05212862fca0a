// Package schedule maps a record collection onto calendar send dates.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// ErrInvalidInterval is matched by errors.Is against *InvalidIntervalError.
var ErrInvalidInterval = errors.New("invalid schedule interval")

// InvalidIntervalError reports a non-positive interval.
type InvalidIntervalError struct {
	Days int
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("interval must be a positive number of days, got %d", e.Days)
}

func (e *InvalidIntervalError) Is(target error) bool { return target == ErrInvalidInterval }

// Entry is one planned send.
type Entry struct {
	Number         int       `json:"number"`
	Subject        string    `json:"subject"`
	SendDate       time.Time `json:"send_date"`
	DayOfWeek      string    `json:"day_of_week"`
	DaysFromAnchor int       `json:"days_from_anchor"`
}

// Date formats the send date as YYYY-MM-DD.
func (e Entry) Date() string {
	return e.SendDate.Format(model.AnchorDateLayout)
}

// MarshalJSON writes the send date as YYYY-MM-DD, the form the table and
// CSV use.
func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return json.Marshal(struct {
		plain
		SendDate string `json:"send_date"`
	}{plain(e), e.Date()})
}

// Policy returns the offset in days of the record numbered n from the anchor.
type Policy func(n int) int

// Fixed sends one record every days days, keyed off the record number.
func Fixed(days int) Policy {
	return func(n int) int { return (n - 1) * days }
}

// Tiered front-loads the sequence: daily through #5, every second day
// through #10, every third day through #21, then weekly.
func Tiered() Policy {
	return func(n int) int {
		switch {
		case n <= 1:
			return 0
		case n <= 5:
			return n - 1
		case n <= 10:
			return (n - 1) * 2
		case n <= 21:
			return (n - 1) * 3
		default:
			return (n - 1) * 7
		}
	}
}

// Compute returns the send plan for records with a fixed interval. Entries
// are in ascending number order whatever the input order, and each offset is
// (number-1)*intervalDays so gaps in numbering are preserved.
func Compute(records []model.EmailRecord, anchor time.Time, intervalDays int) ([]Entry, error) {
	if intervalDays <= 0 {
		return nil, &InvalidIntervalError{Days: intervalDays}
	}
	return ComputeWithPolicy(records, anchor, Fixed(intervalDays)), nil
}

// ComputeWithPolicy returns the send plan for records under policy.
func ComputeWithPolicy(records []model.EmailRecord, anchor time.Time, policy Policy) []Entry {
	y, m, d := anchor.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	sorted := record.Sorted(records)
	entries := make([]Entry, len(sorted))
	for i, rec := range sorted {
		days := policy(rec.Number)
		send := start.AddDate(0, 0, days)
		entries[i] = Entry{
			Number:         rec.Number,
			Subject:        rec.Subject,
			SendDate:       send,
			DayOfWeek:      send.Weekday().String(),
			DaysFromAnchor: days,
		}
	}
	return entries
}

// ApplyDelays returns copies of records with DelayDays taken from the
// matching entry. Records without an entry keep their delay.
func ApplyDelays(records []model.EmailRecord, entries []Entry) []model.EmailRecord {
	byNumber := make(map[int]int, len(entries))
	for _, e := range entries {
		byNumber[e.Number] = e.DaysFromAnchor
	}

	out := make([]model.EmailRecord, len(records))
	for i, rec := range records {
		if days, ok := byNumber[rec.Number]; ok {
			rec.DelayDays = days
		}
		out[i] = rec
	}
	return out
}

// ParsePolicy resolves a policy name as used on the command line.
func ParsePolicy(name string, intervalDays int) (Policy, error) {
	switch name {
	case "", "fixed":
		if intervalDays <= 0 {
			return nil, &InvalidIntervalError{Days: intervalDays}
		}
		return Fixed(intervalDays), nil
	case "tiered":
		return Tiered(), nil
	default:
		return nil, fmt.Errorf("unknown schedule policy %q (want fixed or tiered)", name)
	}
}

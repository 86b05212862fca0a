package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of an email record.
type Status string

// Record status constants.
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraft    Status = "draft"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusDraft:
		return true
	}
	return false
}

// Completion selects records by whether their body has been authored.
type Completion string

const (
	CompletionAll       Completion = ""
	CompletionCompleted Completion = "completed"
	CompletionPending   Completion = "pending"
)

// ParseCompletion accepts "", "all", "completed" and "pending" in any case.
func ParseCompletion(s string) (Completion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return CompletionAll, nil
	case "completed", "complete":
		return CompletionCompleted, nil
	case "pending":
		return CompletionPending, nil
	}
	return "", fmt.Errorf("unknown completion filter %q (want all, completed or pending)", s)
}

// Number bounds for a 52-week campaign.
const (
	MinNumber = 1
	MaxNumber = 52
)

// Column names used by the tabular layer and the CSV interchange format.
const (
	ColNumber  = "Email_Number"
	ColTitle   = "Title"
	ColSubject = "Subject_Line"
	ColBody    = "Complete_HTML_Code"
)

// RequiredColumns lists the columns every normalized row carries, in
// export order.
var RequiredColumns = []string{ColNumber, ColTitle, ColSubject, ColBody}

// MissingMarker is the text the tabular layer emits for an absent cell.
const MissingMarker = "nan"

// Row is one raw row from the tabular layer, keyed by column name.
type Row map[string]string

// EmailRecord is one newsletter entry of a campaign.
type EmailRecord struct {
	// Number is the week number, unique within a collection.
	Number int `json:"number" db:"number"`

	Title   string `json:"title" db:"title"`
	Subject string `json:"subject" db:"subject"`

	// Body is the complete HTML of the email. Empty means not yet authored.
	Body string `json:"body" db:"body"`

	// DelayDays is the offset from the campaign anchor date. It is derived
	// by the scheduler and never stored.
	DelayDays int `json:"delay_days" db:"-"`

	Status Status `json:"status" db:"status"`
}

// Row converts the record back into its tabular form.
func (r EmailRecord) Row() Row {
	return Row{
		ColNumber:  strconv.Itoa(r.Number),
		ColTitle:   r.Title,
		ColSubject: r.Subject,
		ColBody:    r.Body,
	}
}

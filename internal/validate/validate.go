// Package validate applies advisory business rules to email records.
//
// Findings never block a save; callers decide how to present them.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nhle/newsletter-manager/internal/content"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// Warning codes, one per rule.
const (
	CodeMissingSubject  = "missing_subject"
	CodeSubjectTooLong  = "subject_too_long"
	CodeSubjectTooShort = "subject_too_short"
	CodeMissingBody     = "missing_body"
	CodeContentShort    = "content_short"
	CodeContentLong     = "content_long"
	CodeNegativeDelay   = "negative_delay"
	CodeStatusMismatch  = "status_mismatch"
)

// Warning is one triggered rule.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w Warning) String() string { return w.Message }

// Rules holds the thresholds a record is checked against. A zero threshold
// disables its rule.
type Rules struct {
	MaxSubjectLength int
	MinSubjectLength int
	MinWords         int
	MaxWords         int
}

// Strict is the rule set for newly authored content.
var Strict = Rules{
	MaxSubjectLength: 100,
	MinSubjectLength: 10,
	MinWords:         50,
	MaxWords:         1000,
}

// Lenient is the rule set for bulk imports. It skips the short-subject rule.
var Lenient = Rules{
	MaxSubjectLength: 100,
	MinWords:         50,
	MaxWords:         1000,
}

// RulesFor returns Strict or Lenient.
func RulesFor(strict bool) Rules {
	if strict {
		return Strict
	}
	return Lenient
}

// Validate checks rec against rules and returns the triggered warnings in
// rule order. An empty result means the record is fully valid.
func Validate(rec model.EmailRecord, rules Rules) []Warning {
	var ws []Warning
	add := func(code, format string, args ...any) {
		ws = append(ws, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	subject := strings.TrimSpace(rec.Subject)
	subjectLen := utf8.RuneCountInString(rec.Subject)
	switch {
	case record.IsEmpty(subject):
		add(CodeMissingSubject, "Missing subject line")
	case rules.MaxSubjectLength > 0 && subjectLen > rules.MaxSubjectLength:
		add(CodeSubjectTooLong, "Subject line is too long (%d characters, max %d)", subjectLen, rules.MaxSubjectLength)
	case rules.MinSubjectLength > 0 && subjectLen < rules.MinSubjectLength:
		add(CodeSubjectTooShort, "Subject line is too short (%d characters, min %d)", subjectLen, rules.MinSubjectLength)
	}

	if !record.IsComplete(rec) {
		add(CodeMissingBody, "Missing email body")
	} else {
		words := content.Analyze(rec.Body).WordCount
		if rules.MinWords > 0 && words < rules.MinWords {
			add(CodeContentShort, "Email content is very short (%d words, min %d)", words, rules.MinWords)
		}
		if rules.MaxWords > 0 && words > rules.MaxWords {
			add(CodeContentLong, "Email content is very long (%d words, max %d)", words, rules.MaxWords)
		}
	}

	if rec.DelayDays < 0 {
		add(CodeNegativeDelay, "Delay cannot be negative (%d days)", rec.DelayDays)
	}

	if rec.Status == model.StatusActive && !record.IsComplete(rec) {
		add(CodeStatusMismatch, "Status is active but the email body is empty")
	}

	return ws
}

// Messages returns the message of each warning.
func Messages(ws []Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Message
	}
	return out
}

// Has reports whether ws contains a warning with code.
func Has(ws []Warning, code string) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}
	return false
}

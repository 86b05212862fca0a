// Package record turns raw tabular rows into email records and answers
// questions about a single record's completion state.
//
// Every function is pure: inputs are never modified and diagnostics are
// returned as values for the caller to log or display.
package record

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/nhle/newsletter-manager/internal/model"
)

// IsEmpty reports whether a cell value carries no content: only whitespace
// or the tabular layer's missing-marker.
func IsEmpty(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed == "" || strings.EqualFold(trimmed, model.MissingMarker)
}

// IsComplete reports whether the record has an authored body.
func IsComplete(rec model.EmailRecord) bool {
	return !IsEmpty(rec.Body)
}

// DeriveStatus computes the status implied by the body alone.
func DeriveStatus(body string) model.Status {
	if IsEmpty(body) {
		return model.StatusDraft
	}
	return model.StatusActive
}

// ParseNumber coerces a raw cell into a week number. Surrounding whitespace
// is ignored and integral floats such as "3.0" are accepted.
func ParseNumber(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Normalize converts one raw row into an EmailRecord. Required fields absent
// from row are treated as empty strings, and missing-markers become empty.
// It returns a *ParseError when the number cannot be parsed and a
// *RangeError when it falls outside 1-52.
func Normalize(row model.Row, required []string) (model.EmailRecord, error) {
	return normalizeAt(row, required, 0)
}

func normalizeAt(row model.Row, required []string, line int) (model.EmailRecord, error) {
	filled := Fill(row, required)

	rawNumber := filled[model.ColNumber]
	n, ok := ParseNumber(rawNumber)
	if !ok {
		return model.EmailRecord{}, &ParseError{Line: line, Value: rawNumber}
	}
	if n < model.MinNumber || n > model.MaxNumber {
		return model.EmailRecord{}, &RangeError{Line: line, Number: n}
	}

	body := filled[model.ColBody]
	return model.EmailRecord{
		Number:  n,
		Title:   filled[model.ColTitle],
		Subject: filled[model.ColSubject],
		Body:    body,
		Status:  DeriveStatus(body),
	}, nil
}

// Fill returns a copy of row in which every required column is present and
// missing-markers are replaced by empty strings. Other values are kept
// verbatim so authored whitespace in HTML survives.
func Fill(row model.Row, required []string) model.Row {
	out := make(model.Row, len(row)+len(required))
	for col, v := range row {
		if strings.EqualFold(strings.TrimSpace(v), model.MissingMarker) {
			v = ""
		}
		out[col] = v
	}
	for _, col := range required {
		if _, ok := out[col]; !ok {
			out[col] = ""
		}
	}
	return out
}

// Result is a normalized snapshot together with its diagnostics.
type Result struct {
	// Records holds the accepted records in ascending number order. When a
	// number repeats, the first occurrence is kept here.
	Records []model.EmailRecord

	// Duplicates holds later occurrences of repeated numbers in input order,
	// left for the caller to merge or discard.
	Duplicates []model.EmailRecord

	// Diagnostics collects *ParseError, *RangeError, *FieldCountError and
	// *DuplicateNumberError values. None of them abort normalization.
	Diagnostics []error
}

// Excluded returns how many rows did not make it into Records.
func (r Result) Excluded() int {
	excluded := len(r.Duplicates)
	for _, d := range r.Diagnostics {
		if _, ok := d.(*DuplicateNumberError); !ok {
			excluded++
		}
	}
	return excluded
}

// DuplicateNumbers returns the distinct repeated numbers in ascending order.
func (r Result) DuplicateNumbers() []int {
	seen := map[int]bool{}
	var out []int
	for _, d := range r.Duplicates {
		if !seen[d.Number] {
			seen[d.Number] = true
			out = append(out, d.Number)
		}
	}
	sort.Ints(out)
	return out
}

// NormalizeRows normalizes a snapshot of rows. Rows are identified in
// diagnostics by their 1-based position in rows.
func NormalizeRows(rows []model.Row) Result {
	return NormalizeNumbered(rows, nil)
}

// NormalizeNumbered is NormalizeRows for a snapshot whose rows were already
// filtered: lines[i] identifies rows[i] in diagnostics. A nil lines falls
// back to positions.
func NormalizeNumbered(rows []model.Row, lines []int) Result {
	var res Result
	seen := make(map[int]bool, len(rows))

	for i, row := range rows {
		line := i + 1
		if i < len(lines) {
			line = lines[i]
		}
		rec, err := normalizeAt(row, model.RequiredColumns, line)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, err)
			continue
		}
		if seen[rec.Number] {
			res.Duplicates = append(res.Duplicates, rec)
			continue
		}
		seen[rec.Number] = true
		res.Records = append(res.Records, rec)
	}

	if len(res.Duplicates) > 0 {
		res.Diagnostics = append(res.Diagnostics, &DuplicateNumberError{Numbers: res.DuplicateNumbers()})
	}
	res.Records = Sorted(res.Records)
	return res
}

// Sorted returns a copy of records ordered by ascending number. The sort is
// stable so records sharing a number keep their relative order.
func Sorted(records []model.EmailRecord) []model.EmailRecord {
	out := make([]model.EmailRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// CheckUnique re-validates the uniqueness invariant of a collection.
func CheckUnique(records []model.EmailRecord) error {
	counts := make(map[int]int, len(records))
	for _, r := range records {
		counts[r.Number]++
	}
	var dups []int
	for n, c := range counts {
		if c > 1 {
			dups = append(dups, n)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Ints(dups)
	return &DuplicateNumberError{Numbers: dups}
}

// Numbers returns the record numbers in collection order.
func Numbers(records []model.EmailRecord) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Number
	}
	return out
}

// Find returns the record with number n.
func Find(records []model.EmailRecord, n int) (model.EmailRecord, bool) {
	for _, r := range records {
		if r.Number == n {
			return r, true
		}
	}
	return model.EmailRecord{}, false
}

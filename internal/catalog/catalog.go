// Package catalog provides the browse and bulk-edit operations over an
// in-memory record collection. Every operation returns a new collection.
package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// Field names a record field.
type Field string

const (
	FieldNumber  Field = "number"
	FieldTitle   Field = "title"
	FieldSubject Field = "subject"
	FieldBody    Field = "body"
)

// ParseField accepts field names and their column names, case-insensitively.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", strings.ToLower(model.ColNumber):
		return FieldNumber, nil
	case "title", strings.ToLower(model.ColTitle):
		return FieldTitle, nil
	case "subject", strings.ToLower(model.ColSubject):
		return FieldSubject, nil
	case "body", "html", strings.ToLower(model.ColBody):
		return FieldBody, nil
	}
	return "", fmt.Errorf("unknown field %q", s)
}

func (f Field) get(rec model.EmailRecord) string {
	switch f {
	case FieldNumber:
		return strconv.Itoa(rec.Number)
	case FieldTitle:
		return rec.Title
	case FieldSubject:
		return rec.Subject
	case FieldBody:
		return rec.Body
	}
	return ""
}

func (f Field) set(rec *model.EmailRecord, v string) {
	switch f {
	case FieldTitle:
		rec.Title = v
	case FieldSubject:
		rec.Subject = v
	case FieldBody:
		rec.Body = v
		rec.Status = record.DeriveStatus(v)
	}
}

var searchFields = []Field{FieldNumber, FieldTitle, FieldSubject, FieldBody}

// FoldCase maps s to its case-folded form so that "STRASSE" and "Straße"
// compare equal. The store's search uses the same folding.
func FoldCase(s string) string {
	return cases.Fold().String(s)
}

// Search returns the records whose number, title, subject or body contains
// term, ignoring case and surrounding whitespace. An empty term matches
// everything.
func Search(records []model.EmailRecord, term string) []model.EmailRecord {
	term = strings.TrimSpace(term)
	if term == "" {
		return clone(records)
	}
	needle := FoldCase(term)

	var out []model.EmailRecord
	for _, rec := range records {
		for _, f := range searchFields {
			if strings.Contains(FoldCase(f.get(rec)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// FilterCompletion keeps the records matching c.
func FilterCompletion(records []model.EmailRecord, c model.Completion) []model.EmailRecord {
	if c == model.CompletionAll {
		return clone(records)
	}
	want := c == model.CompletionCompleted

	var out []model.EmailRecord
	for _, rec := range records {
		if record.IsComplete(rec) == want {
			out = append(out, rec)
		}
	}
	return out
}

// SortBy returns records ordered by field. Text fields compare
// case-insensitively; ties fall back to ascending number.
func SortBy(records []model.EmailRecord, field Field, desc bool) []model.EmailRecord {
	out := clone(records)
	fold := cases.Fold()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if field != FieldNumber && field != "" {
			ka, kb := fold.String(field.get(a)), fold.String(field.get(b))
			if ka != kb {
				if desc {
					return ka > kb
				}
				return ka < kb
			}
			return a.Number < b.Number
		}
		if desc {
			return a.Number > b.Number
		}
		return a.Number < b.Number
	})
	return out
}

// Query combines search, completion filter and ordering.
type Query struct {
	Term       string
	Completion model.Completion
	SortBy     Field
	Desc       bool
}

// Apply runs q over records.
func Apply(records []model.EmailRecord, q Query) []model.EmailRecord {
	out := Search(records, q.Term)
	out = FilterCompletion(out, q.Completion)
	return SortBy(out, q.SortBy, q.Desc)
}

func clone(records []model.EmailRecord) []model.EmailRecord {
	if records == nil {
		return nil
	}
	out := make([]model.EmailRecord, len(records))
	copy(out, records)
	return out
}

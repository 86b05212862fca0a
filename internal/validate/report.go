package validate

import (
	"github.com/nhle/newsletter-manager/internal/content"
	"github.com/nhle/newsletter-manager/internal/model"
)

// Report bundles everything shown for a single record.
type Report struct {
	Number   int             `json:"number"`
	Title    string          `json:"title"`
	Stats    content.Stats   `json:"stats"`
	Warnings []Warning       `json:"warnings"`
	Issues   []content.Issue `json:"issues"`
}

// OK reports whether the record has no warnings and a clean HTML check.
func (r Report) OK() bool {
	return len(r.Warnings) == 0 && content.Valid(r.Issues)
}

// Inspect analyzes and validates rec.
func Inspect(rec model.EmailRecord, rules Rules) Report {
	return Report{
		Number:   rec.Number,
		Title:    rec.Title,
		Stats:    content.Analyze(rec.Body),
		Warnings: Validate(rec, rules),
		Issues:   content.CheckTagBalance(rec.Body),
	}
}

// InspectAll inspects every record, keeping input order.
func InspectAll(records []model.EmailRecord, rules Rules) []Report {
	out := make([]Report, len(records))
	for i, rec := range records {
		out[i] = Inspect(rec, rules)
	}
	return out
}

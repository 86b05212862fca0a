package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// ErrNumberTaken is returned when an edit would reuse an existing number.
var ErrNumberTaken = errors.New("email number already in use")

// Put adds rec, or replaces the record with the same number. The result is
// in ascending number order and reports whether a record was replaced.
func Put(records []model.EmailRecord, rec model.EmailRecord) ([]model.EmailRecord, bool) {
	out := clone(records)
	for i, r := range out {
		if r.Number == rec.Number {
			out[i] = rec
			return record.Sorted(out), true
		}
	}
	return record.Sorted(append(out, rec)), false
}

// Replace swaps the record numbered number for rec, which may carry a new
// number.
func Replace(records []model.EmailRecord, number int, rec model.EmailRecord) ([]model.EmailRecord, error) {
	idx := -1
	for i, r := range records {
		switch {
		case r.Number == number:
			idx = i
		case r.Number == rec.Number:
			return nil, fmt.Errorf("moving %d to %d: %w", number, rec.Number, ErrNumberTaken)
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("email %d not found", number)
	}
	out := clone(records)
	out[idx] = rec
	return record.Sorted(out), nil
}

// Remove drops the given numbers and returns how many were present.
func Remove(records []model.EmailRecord, numbers ...int) ([]model.EmailRecord, int) {
	out := make([]model.EmailRecord, 0, len(records))
	removed := 0
	for _, r := range records {
		if slices.Contains(numbers, r.Number) {
			removed++
			continue
		}
		out = append(out, r)
	}
	return out, removed
}

// selected reports whether rec is part of a selection. An empty selection
// selects everything.
func selected(rec model.EmailRecord, numbers []int) bool {
	return len(numbers) == 0 || slices.Contains(numbers, rec.Number)
}

// edit applies fn to the selected records and returns the numbers it changed.
func edit(
	records []model.EmailRecord,
	numbers []int,
	fn func(*model.EmailRecord) bool,
) ([]model.EmailRecord, []int) {
	out := clone(records)
	var changed []int
	for i := range out {
		if !selected(out[i], numbers) {
			continue
		}
		if fn(&out[i]) {
			changed = append(changed, out[i].Number)
		}
	}
	return out, changed
}

// AddTitlePrefix prepends prefix to the titles of the selected records.
func AddTitlePrefix(records []model.EmailRecord, prefix string, numbers []int) ([]model.EmailRecord, []int) {
	return edit(records, numbers, func(rec *model.EmailRecord) bool {
		if prefix == "" {
			return false
		}
		rec.Title = prefix + rec.Title
		return true
	})
}

// AddTitleSuffix appends suffix to the titles of the selected records.
func AddTitleSuffix(records []model.EmailRecord, suffix string, numbers []int) ([]model.EmailRecord, []int) {
	return edit(records, numbers, func(rec *model.EmailRecord) bool {
		if suffix == "" {
			return false
		}
		rec.Title += suffix
		return true
	})
}

// FindReplace replaces every occurrence of find in field across the
// selected records. Only records whose value changed are reported.
func FindReplace(
	records []model.EmailRecord,
	field Field,
	find, replace string,
	numbers []int,
) ([]model.EmailRecord, []int, error) {
	if find == "" {
		return nil, nil, errors.New("find text must not be empty")
	}
	switch field {
	case FieldTitle, FieldSubject, FieldBody:
	default:
		return nil, nil, fmt.Errorf("field %q cannot be edited in bulk", field)
	}

	out, changed := edit(records, numbers, func(rec *model.EmailRecord) bool {
		old := field.get(*rec)
		updated := strings.ReplaceAll(old, find, replace)
		if updated == old {
			return false
		}
		field.set(rec, updated)
		return true
	})
	return out, changed, nil
}

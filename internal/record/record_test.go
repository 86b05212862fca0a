package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsletter-manager/internal/model"
)

func row(number, title, subject, body string) model.Row {
	return model.Row{
		model.ColNumber:  number,
		model.ColTitle:   title,
		model.ColSubject: subject,
		model.ColBody:    body,
	}
}

func TestIsComplete(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"empty", "", false},
		{"whitespace", "   ", false},
		{"missing marker", "nan", false},
		{"missing marker padded upper", " NaN\n", false},
		{"html", "<p>x</p>", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsComplete(model.EmailRecord{Body: tt.body}))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"7", 7, true},
		{" 12 ", 12, true},
		{"3.0", 3, true},
		{"3.5", 0, false},
		{"", 0, false},
		{"nan", 0, false},
		{"week", 0, false},
		{"-4", -4, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseNumber(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	rec, err := Normalize(model.Row{model.ColNumber: "4", model.ColBody: "nan"}, model.RequiredColumns)
	require.NoError(t, err)
	assert.Equal(t, model.EmailRecord{Number: 4, Status: model.StatusDraft}, rec)

	rec, err = Normalize(row("5", "T", "S", "  <p>hi</p>\n"), model.RequiredColumns)
	require.NoError(t, err)
	assert.Equal(t, "  <p>hi</p>\n", rec.Body, "body is kept verbatim")
	assert.Equal(t, model.StatusActive, rec.Status)

	_, err = Normalize(row("abc", "", "", ""), model.RequiredColumns)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "abc", parseErr.Value)
	assert.ErrorIs(t, err, ErrParse)

	_, err = Normalize(row("53", "", "", ""), model.RequiredColumns)
	assert.ErrorIs(t, err, ErrRange)
}

func TestFillDoesNotModifyInput(t *testing.T) {
	in := model.Row{model.ColTitle: "nan"}
	out := Fill(in, model.RequiredColumns)

	assert.Equal(t, model.Row{model.ColTitle: "nan"}, in)
	assert.Len(t, out, 4)
	assert.Equal(t, "", out[model.ColTitle])
}

func TestNormalizeRows(t *testing.T) {
	rows := []model.Row{
		row("3", "third", "s3", "<p>3</p>"),
		row("x", "bad", "", ""),
		row("1", "first", "s1", ""),
		row("3", "third again", "s3b", ""),
		row("0", "zero", "", ""),
		row("2.0", "second", "s2", "nan"),
	}

	res := NormalizeRows(rows)

	assert.Equal(t, []int{1, 2, 3}, Numbers(res.Records))
	first, ok := Find(res.Records, 3)
	require.True(t, ok)
	assert.Equal(t, "third", first.Title, "first occurrence wins")

	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, "third again", res.Duplicates[0].Title)
	assert.Equal(t, []int{3}, res.DuplicateNumbers())

	require.Len(t, res.Diagnostics, 3)
	var parseErr *ParseError
	require.ErrorAs(t, res.Diagnostics[0], &parseErr)
	assert.Equal(t, 2, parseErr.Line)
	var rangeErr *RangeError
	require.ErrorAs(t, res.Diagnostics[1], &rangeErr)
	assert.Equal(t, 5, rangeErr.Line)
	assert.ErrorIs(t, res.Diagnostics[2], ErrDuplicateNumber)

	assert.Equal(t, 3, res.Excluded())
}

func TestNormalizeRowsEmpty(t *testing.T) {
	res := NormalizeRows(nil)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Diagnostics)
	assert.Zero(t, res.Excluded())
}

func TestSortedReturnsCopy(t *testing.T) {
	in := []model.EmailRecord{{Number: 9}, {Number: 2}, {Number: 5}}
	out := Sorted(in)

	assert.Equal(t, []int{2, 5, 9}, Numbers(out))
	assert.Equal(t, []int{9, 2, 5}, Numbers(in))
}

func TestCheckUnique(t *testing.T) {
	assert.NoError(t, CheckUnique([]model.EmailRecord{{Number: 1}, {Number: 2}}))

	err := CheckUnique([]model.EmailRecord{{Number: 4}, {Number: 1}, {Number: 4}, {Number: 1}})
	var dupErr *DuplicateNumberError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []int{1, 4}, dupErr.Numbers)
	assert.EqualError(t, err, "duplicate email numbers: 1, 4")
}

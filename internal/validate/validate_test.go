package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsletter-manager/internal/model"
)

func words(n int) string {
	return "<html><body><p>" + strings.Repeat("word ", n) + "</p></body></html>"
}

func codes(ws []Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

func TestValidateScenario(t *testing.T) {
	first := model.EmailRecord{Number: 1, Title: "A", Subject: "Hi", Body: ""}
	second := model.EmailRecord{Number: 2, Title: "B", Subject: "Hello there", Body: words(60)}

	ws := Validate(first, Strict)
	assert.True(t, Has(ws, CodeMissingBody))
	assert.Contains(t, Messages(ws), "Missing email body")

	assert.Empty(t, Validate(second, Strict))
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name  string
		rec   model.EmailRecord
		rules Rules
		want  []string
	}{
		{
			name:  "missing subject",
			rec:   model.EmailRecord{Subject: "  ", Body: words(60)},
			rules: Strict,
			want:  []string{CodeMissingSubject},
		},
		{
			name:  "missing marker subject",
			rec:   model.EmailRecord{Subject: "nan", Body: words(60)},
			rules: Strict,
			want:  []string{CodeMissingSubject},
		},
		{
			name:  "long subject",
			rec:   model.EmailRecord{Subject: strings.Repeat("s", 101), Body: words(60)},
			rules: Strict,
			want:  []string{CodeSubjectTooLong},
		},
		{
			name:  "short subject strict",
			rec:   model.EmailRecord{Subject: "Hi", Body: words(60)},
			rules: Strict,
			want:  []string{CodeSubjectTooShort},
		},
		{
			name:  "short subject lenient",
			rec:   model.EmailRecord{Subject: "Hi", Body: words(60)},
			rules: Lenient,
			want:  []string{},
		},
		{
			name:  "short content",
			rec:   model.EmailRecord{Subject: "Hello there", Body: words(49)},
			rules: Strict,
			want:  []string{CodeContentShort},
		},
		{
			name:  "long content",
			rec:   model.EmailRecord{Subject: "Hello there", Body: words(1001)},
			rules: Strict,
			want:  []string{CodeContentLong},
		},
		{
			name:  "negative delay",
			rec:   model.EmailRecord{Subject: "Hello there", Body: words(60), DelayDays: -1},
			rules: Strict,
			want:  []string{CodeNegativeDelay},
		},
		{
			name:  "stored active without body",
			rec:   model.EmailRecord{Subject: "Hello there", Status: model.StatusActive},
			rules: Strict,
			want:  []string{CodeMissingBody, CodeStatusMismatch},
		},
		{
			name:  "everything wrong in rule order",
			rec:   model.EmailRecord{Subject: "", Body: "nan", DelayDays: -3, Status: model.StatusActive},
			rules: Strict,
			want:  []string{CodeMissingSubject, CodeMissingBody, CodeNegativeDelay, CodeStatusMismatch},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate(tt.rec, tt.rules)))
		})
	}
}

func TestSubjectTooLongIncludesLength(t *testing.T) {
	ws := Validate(model.EmailRecord{Subject: strings.Repeat("s", 120), Body: words(60)}, Lenient)
	require.Len(t, ws, 1)
	assert.Contains(t, ws[0].Message, "120")
}

func TestRulesFor(t *testing.T) {
	assert.Equal(t, Strict, RulesFor(true))
	assert.Equal(t, Lenient, RulesFor(false))
}

func TestInspectAll(t *testing.T) {
	records := []model.EmailRecord{
		{Number: 2, Title: "B", Subject: "Hello there", Body: words(60)},
		{Number: 1, Title: "A", Subject: "Hi"},
	}

	reports := InspectAll(records, Strict)
	require.Len(t, reports, 2)

	assert.Equal(t, 2, reports[0].Number)
	assert.True(t, reports[0].OK())
	assert.Equal(t, 60, reports[0].Stats.WordCount)

	assert.Equal(t, 1, reports[1].Number)
	assert.False(t, reports[1].OK())
	assert.Equal(t, "HTML code is empty", reports[1].Issues[0].Detail)
}

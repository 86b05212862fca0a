package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

func sample() []model.EmailRecord {
	return []model.EmailRecord{
		{Number: 3, Title: "cherry", Subject: "Harvest", Body: "<p>Straße</p>", Status: model.StatusActive},
		{Number: 1, Title: "Apple", Subject: "Orchard news", Body: "", Status: model.StatusDraft},
		{Number: 12, Title: "banana", Subject: "Tropical", Body: "<p>yellow</p>", Status: model.StatusActive},
		{Number: 2, Title: "Apple", Subject: "Second apple", Body: "nan", Status: model.StatusDraft},
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		term string
		want []int
	}{
		{"", []int{3, 1, 12, 2}},
		{"APPLE", []int{1, 2}},
		{"1", []int{1, 12}},
		{"STRASSE", []int{3}},
		{"yellow", []int{12}},
		{"nothing", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, record.Numbers(Search(sample(), tt.term)))
		})
	}
}

func TestFilterCompletion(t *testing.T) {
	assert.Equal(t, []int{3, 12}, record.Numbers(FilterCompletion(sample(), model.CompletionCompleted)))
	assert.Equal(t, []int{1, 2}, record.Numbers(FilterCompletion(sample(), model.CompletionPending)))
	assert.Len(t, FilterCompletion(sample(), model.CompletionAll), 4)
}

func TestSortBy(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 12}, record.Numbers(SortBy(sample(), FieldNumber, false)))
	assert.Equal(t, []int{12, 3, 2, 1}, record.Numbers(SortBy(sample(), FieldNumber, true)))
	assert.Equal(t, []int{1, 2, 12, 3}, record.Numbers(SortBy(sample(), FieldTitle, false)))
	assert.Equal(t, []int{3, 12, 1, 2}, record.Numbers(SortBy(sample(), FieldTitle, true)))
}

func TestApply(t *testing.T) {
	in := sample()
	out := Apply(in, Query{Term: "a", Completion: model.CompletionPending, SortBy: FieldNumber, Desc: true})
	assert.Equal(t, []int{2, 1}, record.Numbers(out))
	assert.Equal(t, 3, in[0].Number, "input untouched")
}

func TestParseField(t *testing.T) {
	f, err := ParseField("Subject_Line")
	require.NoError(t, err)
	assert.Equal(t, FieldSubject, f)

	f, err = ParseField("HTML")
	require.NoError(t, err)
	assert.Equal(t, FieldBody, f)

	_, err = ParseField("author")
	assert.Error(t, err)
}

func TestPut(t *testing.T) {
	out, replaced := Put(sample(), model.EmailRecord{Number: 5, Title: "new"})
	assert.False(t, replaced)
	assert.Equal(t, []int{1, 2, 3, 5, 12}, record.Numbers(out))

	out, replaced = Put(out, model.EmailRecord{Number: 5, Title: "newer"})
	assert.True(t, replaced)
	rec, _ := record.Find(out, 5)
	assert.Equal(t, "newer", rec.Title)
}

func TestReplace(t *testing.T) {
	out, err := Replace(sample(), 3, model.EmailRecord{Number: 3, Title: "newer"})
	require.NoError(t, err)
	rec, _ := record.Find(out, 3)
	assert.Equal(t, "newer", rec.Title)

	moved, err := Replace(sample(), 12, model.EmailRecord{Number: 7, Title: "moved"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 7}, record.Numbers(moved))

	_, err = Replace(sample(), 12, model.EmailRecord{Number: 3})
	assert.ErrorIs(t, err, ErrNumberTaken)

	_, err = Replace(sample(), 40, model.EmailRecord{Number: 40})
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	in := sample()
	out, n := Remove(in, 1, 12, 44)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{3, 2}, record.Numbers(out))
	assert.Len(t, in, 4)
}

func TestTitlePrefixSuffix(t *testing.T) {
	in := sample()
	out, changed := AddTitlePrefix(in, "[UPDATED] ", []int{1, 3})
	assert.Equal(t, []int{3, 1}, changed)
	assert.Equal(t, "[UPDATED] cherry", out[0].Title)
	assert.Equal(t, "banana", out[2].Title)
	assert.Equal(t, "cherry", in[0].Title)

	out, changed = AddTitleSuffix(in, " - 2025", nil)
	assert.Len(t, changed, 4)
	assert.Equal(t, "Apple - 2025", out[1].Title)

	_, changed = AddTitleSuffix(in, "", nil)
	assert.Empty(t, changed)
}

func TestFindReplace(t *testing.T) {
	out, changed, err := FindReplace(sample(), FieldBody, "<p>", "<p class=\"x\">", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 12}, changed)
	assert.Equal(t, `<p class="x">yellow</p>`, out[2].Body)

	out, changed, err = FindReplace(sample(), FieldBody, "nan", "<p>now written</p>", []int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, changed)
	assert.Equal(t, model.StatusActive, out[3].Status)

	_, _, err = FindReplace(sample(), FieldTitle, "", "x", nil)
	assert.Error(t, err)
	_, _, err = FindReplace(sample(), FieldNumber, "1", "2", nil)
	assert.Error(t, err)
}

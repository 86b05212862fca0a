package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsletter-manager/internal/content"
	"github.com/nhle/newsletter-manager/internal/model"
)

func sample() []model.EmailRecord {
	return []model.EmailRecord{
		{Number: 1, Title: "Welcome to the list", Body: "<html><body><div><p>hi</p></div></body></html>"},
		{Number: 2, Title: "Spring tips 🌱", Body: strings.Repeat("x", 2500)},
		{Number: 14, Title: "Spring recap", Body: "nan"},
		{Number: 40, Title: "The end", Body: ""},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sample())

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 2, s.Pending)
	assert.InDelta(t, 2.0/52*100, s.Progress, 1e-9)
	assert.InDelta(t, 50.0, s.CompletionRate, 1e-9)
	assert.Equal(t, (46+2500)/2, s.AvgHTMLLength)
	assert.Equal(t, 46+2500+3, s.TotalHTMLLength)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestQuality(t *testing.T) {
	assert.Equal(t, "Low", Quality(2000))
	assert.Equal(t, "Medium", Quality(2001))
	assert.Equal(t, "High", Quality(5001))
}

func TestTimelineAndQuarters(t *testing.T) {
	weeks := Timeline(sample())
	require.Len(t, weeks, 52)

	assert.Equal(t, Week{Number: 1, Title: "Welcome to the list", State: WeekCompleted}, weeks[0])
	assert.Equal(t, WeekDraft, weeks[13].State)
	assert.Equal(t, Week{Number: 3, Title: "Not Created", State: WeekMissing}, weeks[2])

	quarters := Quarters(weeks)
	require.Len(t, quarters, 4)
	for i, q := range quarters {
		assert.Len(t, q.Weeks, 13)
		assert.Equal(t, i*13+1, q.First)
		assert.Equal(t, q.First, q.Weeks[0].Number)
	}
	assert.Equal(t, 52, quarters[3].Last)
	assert.Equal(t, 14, quarters[1].Weeks[0].Number)
}

func TestContentPatterns(t *testing.T) {
	p := ContentPatterns(sample())

	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, content.Elements{Divs: 1, Paragraphs: 1}, p.Totals)
	assert.Equal(t, 1, p.FailingHTML)

	divs, paragraphs, anchors, _ := p.Average()
	assert.InDelta(t, 0.5, divs, 1e-9)
	assert.InDelta(t, 0.5, paragraphs, 1e-9)
	assert.Zero(t, anchors)
}

func TestTitleMetrics(t *testing.T) {
	records := sample()

	assert.Equal(t, []WordCount{{"the", 2}, {"spring", 2}}, TopTitleWords(records, 2))
	assert.Equal(t, 1, NonASCIITitles(records))
	assert.InDelta(t, 0, AvgSubjectLength(records), 1e-9)
	assert.InDelta(t, float64(19+13+12+7)/4, AvgTitleLength(records), 1e-9)
}

func TestStatsCSV(t *testing.T) {
	data, err := StatsCSV(Stats{Total: 2, Completed: 1, Pending: 1, Progress: 1.923, AvgHTMLLength: 1234})
	require.NoError(t, err)
	assert.Equal(t, "Metric,Value\nTotal Emails,2\nCompleted,1\nPending,1\nProgress %,1.9%\nAvg HTML Length,1234\n", string(data))
}

func TestListCSV(t *testing.T) {
	data, err := ListCSV([]model.EmailRecord{
		{Number: 2, Title: "b", Subject: "s, with comma", Body: ""},
		{Number: 1, Title: "a", Subject: "t", Body: "<p>x</p>"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Email_Number,Title,Subject_Line,Status\n1,a,t,Completed\n2,b,\"s, with comma\",Pending\n", string(data))
}

func TestText(t *testing.T) {
	now := time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)
	out := Text(sample(), now)

	assert.Contains(t, out, "Generated: 2025-01-13 10:00:00")
	assert.Contains(t, out, "- Total HTML Content: 2,549 characters")
	assert.Contains(t, out, "- Average HTML per Email: 1,273 characters")
	assert.Contains(t, out, "- Weeks Behind/Ahead: -1")
	assert.Contains(t, out, "- Content Quality: Low")
	assert.Contains(t, out, "✅ Week 1: Welcome to the list")
	assert.Contains(t, out, "⏳ Week 40: The end")
}

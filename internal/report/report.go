// Package report derives campaign-level statistics and summaries from a
// record collection.
package report

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nhle/newsletter-manager/internal/content"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// CampaignWeeks is the length of a full campaign.
const CampaignWeeks = model.MaxNumber

// Stats summarizes completion of a collection.
type Stats struct {
	Total           int     `json:"total"`
	Completed       int     `json:"completed"`
	Pending         int     `json:"pending"`
	Progress        float64 `json:"progress"`
	CompletionRate  float64 `json:"completion_rate"`
	AvgHTMLLength   int     `json:"avg_html_length"`
	TotalHTMLLength int     `json:"total_html_length"`
}

// Summarize computes Stats. Progress is measured against the full campaign
// and the completion rate against the records present.
func Summarize(records []model.EmailRecord) Stats {
	var s Stats
	completedLength := 0
	for _, rec := range records {
		n := utf8.RuneCountInString(rec.Body)
		s.TotalHTMLLength += n
		if record.IsComplete(rec) {
			s.Completed++
			completedLength += n
		}
	}
	s.Total = len(records)
	s.Pending = s.Total - s.Completed
	if s.Total == 0 {
		return s
	}
	s.Progress = float64(s.Completed) / CampaignWeeks * 100
	s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
	if s.Completed > 0 {
		s.AvgHTMLLength = completedLength / s.Completed
	}
	return s
}

// Quality grades average HTML length as High, Medium or Low.
func Quality(avgHTMLLength int) string {
	switch {
	case avgHTMLLength > 5000:
		return "High"
	case avgHTMLLength > 2000:
		return "Medium"
	default:
		return "Low"
	}
}

// WeekState is the state of one campaign week.
type WeekState string

const (
	WeekCompleted WeekState = "Completed"
	WeekDraft     WeekState = "Draft"
	WeekMissing   WeekState = "Missing"
)

// Week is one slot of the campaign timeline.
type Week struct {
	Number int       `json:"week"`
	Title  string    `json:"title"`
	State  WeekState `json:"status"`
}

// Timeline returns one entry per campaign week. Weeks without a record are
// Missing.
func Timeline(records []model.EmailRecord) []Week {
	weeks := make([]Week, CampaignWeeks)
	for i := range weeks {
		weeks[i] = Week{Number: i + 1, Title: "Not Created", State: WeekMissing}
	}
	// Later duplicates never replace the first record of a week.
	seen := make(map[int]bool, len(records))
	for _, rec := range records {
		if rec.Number < model.MinNumber || rec.Number > model.MaxNumber || seen[rec.Number] {
			continue
		}
		seen[rec.Number] = true
		state := WeekDraft
		if record.IsComplete(rec) {
			state = WeekCompleted
		}
		weeks[rec.Number-1] = Week{Number: rec.Number, Title: rec.Title, State: state}
	}
	return weeks
}

// Quarter groups thirteen consecutive weeks.
type Quarter struct {
	Index int    `json:"quarter"`
	First int    `json:"first_week"`
	Last  int    `json:"last_week"`
	Weeks []Week `json:"weeks"`
}

// Quarters splits a timeline into four quarters.
func Quarters(weeks []Week) []Quarter {
	const size = CampaignWeeks / 4
	quarters := make([]Quarter, 4)
	for q := range quarters {
		first, last := q*size+1, (q+1)*size
		quarters[q] = Quarter{Index: q + 1, First: first, Last: last}
		for _, w := range weeks {
			if w.Number >= first && w.Number <= last {
				quarters[q].Weeks = append(quarters[q].Weeks, w)
			}
		}
	}
	return quarters
}

// Patterns describes the HTML structure of the authored records.
type Patterns struct {
	Completed   int              `json:"completed"`
	Totals      content.Elements `json:"totals"`
	FailingHTML int              `json:"failing_html"`
}

// Average returns the per-email average of each element count.
func (p Patterns) Average() (divs, paragraphs, anchors, images float64) {
	if p.Completed == 0 {
		return 0, 0, 0, 0
	}
	n := float64(p.Completed)
	return float64(p.Totals.Divs) / n, float64(p.Totals.Paragraphs) / n,
		float64(p.Totals.Anchors) / n, float64(p.Totals.Images) / n
}

// ContentPatterns totals element counts over authored records and counts
// those whose HTML check reports issues.
func ContentPatterns(records []model.EmailRecord) Patterns {
	var p Patterns
	for _, rec := range records {
		if !record.IsComplete(rec) {
			continue
		}
		p.Completed++
		p.Totals = p.Totals.Add(content.CountElements(rec.Body))
		if !content.Valid(content.CheckTagBalance(rec.Body)) {
			p.FailingHTML++
		}
	}
	return p
}

// AvgTitleLength returns the mean title length in characters.
func AvgTitleLength(records []model.EmailRecord) float64 {
	return avgLength(records, func(r model.EmailRecord) string { return r.Title })
}

// AvgSubjectLength returns the mean subject length in characters.
func AvgSubjectLength(records []model.EmailRecord) float64 {
	return avgLength(records, func(r model.EmailRecord) string { return r.Subject })
}

func avgLength(records []model.EmailRecord, field func(model.EmailRecord) string) float64 {
	if len(records) == 0 {
		return 0
	}
	total := 0
	for _, rec := range records {
		total += utf8.RuneCountInString(field(rec))
	}
	return float64(total) / float64(len(records))
}

// WordCount is a word and how often it occurs.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

var titleWordPattern = regexp.MustCompile(`\b[a-z]+\b`)

// TopTitleWords returns the n most frequent words across titles. Ties keep
// first-appearance order.
func TopTitleWords(records []model.EmailRecord, n int) []WordCount {
	titles := make([]string, len(records))
	for i, rec := range records {
		titles[i] = rec.Title
	}
	words := titleWordPattern.FindAllString(strings.ToLower(strings.Join(titles, " ")), -1)

	index := map[string]int{}
	var counts []WordCount
	for _, w := range words {
		if i, ok := index[w]; ok {
			counts[i].Count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, WordCount{Word: w, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// NonASCIITitles counts titles containing any non-ASCII character, such as
// an emoji.
func NonASCIITitles(records []model.EmailRecord) int {
	n := 0
	for _, rec := range records {
		for _, r := range rec.Title {
			if r > 127 {
				n++
				break
			}
		}
	}
	return n
}

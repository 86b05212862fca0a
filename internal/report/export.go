package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nhle/newsletter-manager/internal/interchange"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
)

// StatsCSV serializes Stats as Metric,Value rows.
func StatsCSV(s Stats) ([]byte, error) {
	return interchange.EncodeCSV([]string{"Metric", "Value"}, [][]string{
		{"Total Emails", strconv.Itoa(s.Total)},
		{"Completed", strconv.Itoa(s.Completed)},
		{"Pending", strconv.Itoa(s.Pending)},
		{"Progress %", fmt.Sprintf("%.1f%%", s.Progress)},
		{"Avg HTML Length", strconv.Itoa(s.AvgHTMLLength)},
	})
}

// CompletionLabel returns "Completed" or "Pending".
func CompletionLabel(rec model.EmailRecord) string {
	if record.IsComplete(rec) {
		return "Completed"
	}
	return "Pending"
}

// ListCSV serializes the record list without bodies.
func ListCSV(records []model.EmailRecord) ([]byte, error) {
	sorted := record.Sorted(records)
	rows := make([][]string, len(sorted))
	for i, rec := range sorted {
		rows[i] = []string{strconv.Itoa(rec.Number), rec.Title, rec.Subject, CompletionLabel(rec)}
	}
	return interchange.EncodeCSV([]string{model.ColNumber, model.ColTitle, model.ColSubject, "Status"}, rows)
}

// Text renders the plain-text campaign report.
func Text(records []model.EmailRecord, now time.Time) string {
	s := Summarize(records)
	_, isoWeek := now.ISOWeek()

	var b strings.Builder
	fmt.Fprintf(&b, "# 52 Week Email Newsletter Campaign Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## Campaign Overview\n")
	fmt.Fprintf(&b, "- Total Emails Created: %d\n", s.Total)
	fmt.Fprintf(&b, "- Completed Emails: %d\n", s.Completed)
	fmt.Fprintf(&b, "- Pending Emails: %d\n", s.Pending)
	fmt.Fprintf(&b, "- Overall Progress: %.1f%%\n", s.Progress)
	fmt.Fprintf(&b, "- Completion Rate: %.1f%%\n\n", s.CompletionRate)

	fmt.Fprintf(&b, "## Content Metrics\n")
	fmt.Fprintf(&b, "- Total HTML Content: %s characters\n", humanize.Comma(int64(s.TotalHTMLLength)))
	fmt.Fprintf(&b, "- Average HTML per Email: %s characters\n", humanize.Comma(int64(s.AvgHTMLLength)))
	fmt.Fprintf(&b, "- Titles with Emojis: %d\n\n", NonASCIITitles(records))

	fmt.Fprintf(&b, "## Campaign Health\n")
	fmt.Fprintf(&b, "- Weeks Behind/Ahead: %+d\n", s.Completed-isoWeek%CampaignWeeks)
	fmt.Fprintf(&b, "- Content Quality: %s\n\n", Quality(s.AvgHTMLLength))

	fmt.Fprintf(&b, "## Newsletter List\n")
	for _, rec := range record.Sorted(records) {
		mark := "✅"
		if !record.IsComplete(rec) {
			mark = "⏳"
		}
		fmt.Fprintf(&b, "%s Week %d: %s\n", mark, rec.Number, rec.Title)
	}
	return b.String()
}

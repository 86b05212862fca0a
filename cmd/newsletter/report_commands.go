package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/report"
	"github.com/nhle/newsletter-manager/internal/store"
	"github.com/nhle/newsletter-manager/internal/theme"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the state of all 52 campaign weeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.SQLiteStore) error {
				res, err := loadCollection(cmd.Context(), st)
				if err != nil {
					return err
				}
				quarters := report.Quarters(report.Timeline(res.Records))
				if asJSON {
					return writeJSON(cmd, quarters)
				}

				out := cmd.OutOrStdout()
				for _, q := range quarters {
					cells := make([]string, len(q.Weeks))
					done := 0
					for i, w := range q.Weeks {
						if w.State == report.WeekCompleted {
							done++
						}
						cells[i] = paint(cmd, theme.WeekStyle(w.State), fmt.Sprintf("%2d%s", w.Number, weekMarker(w.State)))
					}
					fmt.Fprintf(out, "Q%d (weeks %d-%d, %d/%d done)\n  %s\n",
						q.Index, q.First, q.Last, done, len(q.Weeks), strings.Join(cells, " "))
				}
				fmt.Fprintln(out, paint(cmd, theme.HelpStyle, "✓ completed  · draft  - missing"))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func weekMarker(state report.WeekState) string {
	switch state {
	case report.WeekCompleted:
		return "✓"
	case report.WeekDraft:
		return "·"
	default:
		return "-"
	}
}

type statsView struct {
	report.Stats
	Quality          string             `json:"quality"`
	AvgTitleLength   float64            `json:"avg_title_length"`
	AvgSubjectLength float64            `json:"avg_subject_length"`
	Patterns         report.Patterns    `json:"patterns"`
	TopTitleWords    []report.WordCount `json:"top_title_words"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show campaign statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.SQLiteStore) error {
				res, err := loadCollection(cmd.Context(), st)
				if err != nil {
					return err
				}
				s := report.Summarize(res.Records)
				view := statsView{
					Stats:            s,
					Quality:          report.Quality(s.AvgHTMLLength),
					AvgTitleLength:   report.AvgTitleLength(res.Records),
					AvgSubjectLength: report.AvgSubjectLength(res.Records),
					Patterns:         report.ContentPatterns(res.Records),
					TopTitleWords:    report.TopTitleWords(res.Records, 10),
				}
				if asJSON {
					return writeJSON(cmd, view)
				}

				divs, paragraphs, anchors, images := view.Patterns.Average()
				rows := [][]string{
					{"Total emails", strconv.Itoa(s.Total)},
					{"Completed", strconv.Itoa(s.Completed)},
					{"Pending", strconv.Itoa(s.Pending)},
					{"Progress", fmt.Sprintf("%.1f%%", s.Progress)},
					{"Completion rate", fmt.Sprintf("%.1f%%", s.CompletionRate)},
					{"Total HTML", humanize.Comma(int64(s.TotalHTMLLength)) + " chars"},
					{"Average HTML", humanize.Comma(int64(s.AvgHTMLLength)) + " chars"},
					{"Content quality", view.Quality},
					{"Average title length", fmt.Sprintf("%.1f", view.AvgTitleLength)},
					{"Average subject length", fmt.Sprintf("%.1f", view.AvgSubjectLength)},
					{"Average divs", fmt.Sprintf("%.1f", divs)},
					{"Average paragraphs", fmt.Sprintf("%.1f", paragraphs)},
					{"Average links", fmt.Sprintf("%.1f", anchors)},
					{"Average images", fmt.Sprintf("%.1f", images)},
					{"Failing HTML check", strconv.Itoa(view.Patterns.FailingHTML)},
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

				if len(view.TopTitleWords) > 0 {
					words := make([][]string, len(view.TopTitleWords))
					for i, w := range view.TopTitleWords {
						words[i] = []string{w.Word, strconv.Itoa(w.Count)}
					}
					fmt.Fprintln(out, renderTable([]string{"Title word", "Count"}, words, []columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the plain-text campaign report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.SQLiteStore) error {
				res, err := loadCollection(cmd.Context(), st)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), report.Text(res.Records, time.Now()))
				return nil
			})
		},
	}
}

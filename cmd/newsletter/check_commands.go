package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/content"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/schedule"
	"github.com/nhle/newsletter-manager/internal/store"
	"github.com/nhle/newsletter-manager/internal/theme"
	"github.com/nhle/newsletter-manager/internal/validate"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var (
		lenient bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "check [number]...",
		Short: "Validate newsletters and check their HTML structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseNumberArgs(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rules := validate.RulesFor(cfg.Validation.Strict && !lenient)

			return ctx.withStore(func(st *store.SQLiteStore) error {
				// Stored records keep the status override the mismatch rule checks.
				records, err := st.ListRecords(cmd.Context(), store.RecordFilter{})
				if err != nil {
					return err
				}
				if len(numbers) > 0 {
					records = slices.DeleteFunc(records, func(rec model.EmailRecord) bool {
						return !slices.Contains(numbers, rec.Number)
					})
				}
				// Delays come from the configured plan so the delay rule sees them.
				entries, err := (&scheduleFlags{}).plan(cfg, records, time.Now())
				if err != nil {
					return err
				}
				records = schedule.ApplyDelays(records, entries)

				reports := validate.InspectAll(records, rules)
				if asJSON {
					return writeJSON(cmd, reports)
				}
				printReports(cmd, reports)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&lenient, "lenient", false, "Skip the short-subject rule")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printReports(cmd *cobra.Command, reports []validate.Report) {
	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "No newsletters to check")
		return
	}

	passed := 0
	for _, r := range reports {
		if r.OK() {
			passed++
			continue
		}
		fmt.Fprintf(out, "Week %d: %s\n", r.Number, r.Title)
		for _, w := range r.Warnings {
			fmt.Fprintln(out, "  "+paint(cmd, theme.WarningStyle, w.Message))
		}
		if !content.Valid(r.Issues) {
			for _, issue := range r.Issues {
				fmt.Fprintln(out, "  "+paint(cmd, theme.IssueStyle, issue.Detail))
			}
		}
	}

	summary := fmt.Sprintf("%d of %d newsletters pass", passed, len(reports))
	if passed == len(reports) {
		fmt.Fprintln(out, paint(cmd, theme.OKStyle, content.NoIssues.Detail))
		fmt.Fprintln(out, summary)
		return
	}
	fmt.Fprintln(out, paint(cmd, theme.ErrorStyle, summary))
}

type analysis struct {
	Stats    content.Stats    `json:"stats"`
	Elements content.Elements `json:"elements"`
	Issues   []content.Issue  `json:"issues"`
}

func analyze(body string) analysis {
	return analysis{
		Stats:    content.Analyze(body),
		Elements: content.CountElements(body),
		Issues:   content.CheckTagBalance(body),
	}
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [number]",
		Short: "Analyze the content of a newsletter or an HTML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case file != "" && len(args) > 0:
				return errors.New("give either a week number or --file, not both")
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}
				return printAnalysis(cmd, file, analyze(string(data)), asJSON)
			case len(args) == 0:
				return errors.New("a week number or --file is required")
			}

			number, err := parseNumberArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				rec, err := st.GetRecord(cmd.Context(), number)
				if err != nil {
					return err
				}
				return printAnalysis(cmd, fmt.Sprintf("Week %d: %s", rec.Number, rec.Title), analyze(rec.Body), asJSON)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Analyze an HTML file instead of a stored newsletter")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printAnalysis(cmd *cobra.Command, label string, a analysis, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, a)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, paint(cmd, theme.HeaderStyle, label))
	rows := [][]string{
		{"Words", strconv.Itoa(a.Stats.WordCount)},
		{"Characters", strconv.Itoa(a.Stats.CharCount)},
		{"Links", strconv.Itoa(a.Stats.LinkCount)},
		{"Images", strconv.Itoa(a.Stats.ImageCount)},
		{"Reading time (min)", strconv.Itoa(a.Stats.ReadingTimeMinutes)},
		{"Divs", strconv.Itoa(a.Elements.Divs)},
		{"Paragraphs", strconv.Itoa(a.Elements.Paragraphs)},
		{"Anchors", strconv.Itoa(a.Elements.Anchors)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	style := theme.IssueStyle
	if content.Valid(a.Issues) {
		style = theme.OKStyle
	}
	for _, issue := range a.Issues {
		fmt.Fprintln(out, paint(cmd, style, issue.Detail))
	}
	return nil
}

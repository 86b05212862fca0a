package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/catalog"
	"github.com/nhle/newsletter-manager/internal/content"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
	"github.com/nhle/newsletter-manager/internal/report"
	"github.com/nhle/newsletter-manager/internal/store"
	"github.com/nhle/newsletter-manager/internal/theme"
	"github.com/nhle/newsletter-manager/internal/validate"
)

const deleteConfirmation = "DELETE"

func newRecordCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newListCommand(ctx),
		newShowCommand(ctx),
		newAddCommand(ctx),
		newEditCommand(ctx),
		newDeleteCommand(ctx),
		newSetStatusCommand(ctx),
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		search     string
		completion string
		status     string
		sortBy     string
		desc       bool
		limit      int
		offset     int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored newsletters",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := model.ParseCompletion(completion)
			if err != nil {
				return err
			}
			filter := store.RecordFilter{
				Query:      search,
				Completion: c,
				SortBy:     sortBy,
				SortDesc:   desc,
				Limit:      limit,
				Offset:     offset,
			}
			if status != "" {
				s := model.Status(strings.ToLower(status))
				if !s.Valid() {
					return fmt.Errorf("unknown status %q (want active, inactive or draft)", status)
				}
				filter.Status = &s
			}

			return ctx.withStore(func(st *store.SQLiteStore) error {
				records, err := st.ListRecords(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, records)
				}
				total, err := st.CountRecords(cmd.Context(), filter)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No newsletters found")
					return nil
				}
				rows := make([][]string, len(records))
				for i, rec := range records {
					rows[i] = []string{
						strconv.Itoa(rec.Number),
						rec.Title,
						rec.Subject,
						paint(cmd, theme.StatusStyle(rec.Status), string(rec.Status)),
						paint(cmd, theme.CompletionStyle(record.IsComplete(rec)), report.CompletionLabel(rec)),
						strconv.Itoa(content.Analyze(rec.Body).WordCount),
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Week", "Title", "Subject", "Status", "Content", "Words"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Showing %d of %d\n", len(records), total)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Search number, title, subject and body")
	cmd.Flags().StringVar(&completion, "completion", "all", "Filter by content: all, completed or pending")
	cmd.Flags().StringVar(&status, "status", "", "Filter by stored status: active, inactive or draft")
	cmd.Flags().StringVar(&sortBy, "sort", "number", "Sort by number, title, subject, status, created_at or updated_at")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type recordDetail struct {
	model.EmailRecord
	Stats    content.Stats      `json:"stats"`
	Warnings []validate.Warning `json:"warnings"`
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <number>",
		Short: "Show one newsletter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumberArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				rec, err := st.GetRecord(cmd.Context(), number)
				if err != nil {
					return err
				}
				detail := recordDetail{
					EmailRecord: *rec,
					Stats:       content.Analyze(rec.Body),
					Warnings:    validate.Validate(*rec, validate.RulesFor(cfg.Validation.Strict)),
				}
				if asJSON {
					return writeJSON(cmd, detail)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, paint(cmd, theme.HeaderStyle, fmt.Sprintf("Week %d: %s", rec.Number, rec.Title)))
				fmt.Fprintf(out, "Subject: %s\n", rec.Subject)
				fmt.Fprintf(out, "Status:  %s (%s)\n",
					paint(cmd, theme.StatusStyle(rec.Status), string(rec.Status)),
					report.CompletionLabel(*rec),
				)
				fmt.Fprintf(out, "Words:   %d (%d min read)\n", detail.Stats.WordCount, detail.Stats.ReadingTimeMinutes)
				for _, w := range detail.Warnings {
					fmt.Fprintln(out, paint(cmd, theme.WarningStyle, "! "+w.Message))
				}
				if record.IsComplete(*rec) {
					fmt.Fprintln(out, paint(cmd, theme.DetailPanelStyle, rec.Body))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// recordFlags holds the editable fields shared by add and edit.
type recordFlags struct {
	number   int
	title    string
	subject  string
	body     string
	bodyFile string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.number, "number", "n", 0, "Week number (1-52)")
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Title")
	cmd.Flags().StringVar(&f.subject, "subject", "", "Subject line")
	cmd.Flags().StringVar(&f.body, "body", "", "Complete HTML body")
	cmd.Flags().StringVar(&f.bodyFile, "body-file", "", "Read the HTML body from a file")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
}

// apply copies every flag the user set onto rec.
func (f *recordFlags) apply(cmd *cobra.Command, rec *model.EmailRecord) error {
	flags := cmd.Flags()
	if flags.Changed("number") {
		rec.Number = f.number
	}
	if flags.Changed("title") {
		rec.Title = f.title
	}
	if flags.Changed("subject") {
		rec.Subject = f.subject
	}
	bodyChanged := false
	if flags.Changed("body") {
		rec.Body = f.body
		bodyChanged = true
	}
	if flags.Changed("body-file") {
		data, err := os.ReadFile(f.bodyFile)
		if err != nil {
			return fmt.Errorf("reading body file: %w", err)
		}
		rec.Body = string(data)
		bodyChanged = true
	}
	if bodyChanged || rec.Status == "" {
		rec.Status = record.DeriveStatus(rec.Body)
	}
	return nil
}

func printWarnings(cmd *cobra.Command, ws []validate.Warning) {
	for _, w := range ws {
		fmt.Fprintln(cmd.OutOrStdout(), paint(cmd, theme.WarningStyle, "! "+w.Message))
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		flags   recordFlags
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a newsletter",
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec model.EmailRecord
			if err := flags.apply(cmd, &rec); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				records, err := st.ListRecords(cmd.Context(), store.RecordFilter{})
				if err != nil {
					return err
				}
				_, exists := catalog.Put(records, rec)

				action, details := "Add", fmt.Sprintf("Added email #%d: %s", rec.Number, rec.Title)
				switch {
				case exists && !replace:
					return fmt.Errorf("week %d already exists; use `newsletter edit %d` or --replace", rec.Number, rec.Number)
				case exists:
					if err := st.UpdateRecord(cmd.Context(), rec.Number, rec); err != nil {
						return err
					}
					action, details = "Edit", fmt.Sprintf("Replaced email #%d: %s", rec.Number, rec.Title)
				default:
					if err := st.CreateRecord(cmd.Context(), rec); err != nil {
						return err
					}
				}
				recordActivity(cmd.Context(), st, action, details)
				fmt.Fprintln(cmd.OutOrStdout(), details)
				printWarnings(cmd, validate.Validate(rec, validate.RulesFor(cfg.Validation.Strict)))
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace every field of an existing week")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var flags recordFlags

	cmd := &cobra.Command{
		Use:   "edit <number>",
		Short: "Edit a newsletter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumberArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				records, err := st.ListRecords(cmd.Context(), store.RecordFilter{})
				if err != nil {
					return err
				}
				rec, ok := record.Find(records, number)
				if !ok {
					return fmt.Errorf("week %d: %w", number, store.ErrNotFound)
				}
				if err := flags.apply(cmd, &rec); err != nil {
					return err
				}
				if _, err := catalog.Replace(records, number, rec); err != nil {
					if errors.Is(err, catalog.ErrNumberTaken) {
						return fmt.Errorf("week %d already exists; delete it or pick another number", rec.Number)
					}
					return err
				}
				if err := st.UpdateRecord(cmd.Context(), number, rec); err != nil {
					return err
				}
				details := fmt.Sprintf("Updated email #%d: %s", rec.Number, rec.Title)
				if rec.Number != number {
					details = fmt.Sprintf("Moved email #%d to #%d: %s", number, rec.Number, rec.Title)
				}
				recordActivity(cmd.Context(), st, "Edit", details)
				fmt.Fprintln(cmd.OutOrStdout(), details)
				printWarnings(cmd, validate.Validate(rec, validate.RulesFor(cfg.Validation.Strict)))
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <number>...",
		Short: "Delete newsletters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers, err := parseNumberArgs(args)
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirmDelete(cmd, numbers)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled")
					return nil
				}
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				records, err := st.ListRecords(cmd.Context(), store.RecordFilter{})
				if err != nil {
					return err
				}
				var present, missing []int
				for _, n := range numbers {
					if _, ok := record.Find(records, n); ok {
						present = append(present, n)
					} else {
						missing = append(missing, n)
					}
				}
				if len(present) == 0 {
					return fmt.Errorf("deleting %s: %w", formatNumbers(missing), store.ErrNotFound)
				}
				remaining, _ := catalog.Remove(records, present...)

				deleted, err := st.DeleteRecords(cmd.Context(), present...)
				if err != nil {
					return err
				}
				recordActivity(cmd.Context(), st, "Delete", fmt.Sprintf("Deleted %d email(s): %s", deleted, formatNumbers(present)))

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Deleted %d newsletter(s); %d remain\n", deleted, len(remaining))
				if len(missing) > 0 {
					fmt.Fprintf(out, "Not found: %s\n", formatNumbers(missing))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func confirmDelete(cmd *cobra.Command, numbers []int) (bool, error) {
	var answer string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Delete %s?", formatNumbers(numbers))).
				Description("Type " + deleteConfirmation + " to confirm").
				Value(&answer),
		),
	).WithInput(cmd.InOrStdin()).WithOutput(cmd.OutOrStdout())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirming delete: %w", err)
	}
	return strings.TrimSpace(answer) == deleteConfirmation, nil
}

func newSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <number> <active|inactive|draft>",
		Short: "Override the stored status of a newsletter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumberArg(args[0])
			if err != nil {
				return err
			}
			status := model.Status(strings.ToLower(strings.TrimSpace(args[1])))
			if !status.Valid() {
				return fmt.Errorf("unknown status %q (want active, inactive or draft)", args[1])
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				return setStatus(cmd, st, number, status)
			})
		},
	}
}

func setStatus(cmd *cobra.Command, st store.Store, number int, status model.Status) error {
	if err := st.SetStatus(cmd.Context(), number, status); err != nil {
		return err
	}
	recordActivity(cmd.Context(), st, "Status", fmt.Sprintf("Set email #%d to %s", number, status))
	fmt.Fprintf(cmd.OutOrStdout(), "Week %d is now %s\n", number, status)
	return nil
}

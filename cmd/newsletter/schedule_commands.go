package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/interchange"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/schedule"
	"github.com/nhle/newsletter-manager/internal/store"
)

// scheduleFlags holds the send plan parameters shared by the schedule and
// export commands.
type scheduleFlags struct {
	anchor   string
	interval int
	policy   string
}

func (f *scheduleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.anchor, "anchor", "", "First send date YYYY-MM-DD (default schedule.anchor_date or today)")
	cmd.Flags().IntVar(&f.interval, "interval", 0, "Days between sends (default schedule.interval_days)")
	cmd.Flags().StringVar(&f.policy, "policy", "fixed", "Spacing policy: fixed or tiered")
}

// plan computes the send plan for records using flag values over config.
func (f *scheduleFlags) plan(cfg *model.AppConfig, records []model.EmailRecord, now time.Time) ([]schedule.Entry, error) {
	anchor, err := cfg.Anchor(now)
	if err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(f.anchor); raw != "" {
		anchor, err = time.Parse(model.AnchorDateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing --anchor %q: %w", raw, err)
		}
	}

	interval := cfg.Schedule.IntervalDays
	if f.interval != 0 {
		interval = f.interval
	}
	policy, err := schedule.ParsePolicy(strings.ToLower(strings.TrimSpace(f.policy)), interval)
	if err != nil {
		return nil, err
	}
	return schedule.ComputeWithPolicy(records, anchor, policy), nil
}

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	var (
		flags  scheduleFlags
		asCSV  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the send date of every newsletter",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				res, err := loadCollection(cmd.Context(), st)
				if err != nil {
					return err
				}
				entries, err := flags.plan(cfg, res.Records, time.Now())
				if err != nil {
					return err
				}

				switch {
				case asJSON:
					return writeJSON(cmd, entries)
				case asCSV:
					data, err := interchange.ScheduleCSV(entries)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No newsletters to schedule")
					return nil
				}
				rows := make([][]string, len(entries))
				for i, e := range entries {
					rows[i] = []string{
						strconv.Itoa(e.Number),
						e.Subject,
						e.Date(),
						e.DayOfWeek,
						strconv.Itoa(e.DaysFromAnchor),
					}
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Week", "Subject", "Send date", "Day", "Days from anchor"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Output CSV")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.MarkFlagsMutuallyExclusive("csv", "json")
	return cmd
}

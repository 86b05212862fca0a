package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/store"
)

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.SQLiteStore) error {
				entries, err := st.RecentActivity(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, entries)
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No activity yet")
					return nil
				}
				rows := make([][]string, len(entries))
				for i, e := range entries {
					rows[i] = []string{humanize.Time(e.CreatedAt), e.Action, e.Details}
				}
				fmt.Fprintln(out, renderTable([]string{"When", "Action", "Details"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, fmt.Sprintf("Entries to show (at most %d are kept)", model.MaxActivityEntries))
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/catalog"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/store"
)

// bulkEdit transforms the stored records and returns the new collection
// with the numbers it changed.
type bulkEdit func(records []model.EmailRecord, numbers []int) ([]model.EmailRecord, []int, error)

func newBulkCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Edit many newsletters at once",
		Long:  "Edit many newsletters at once. Week numbers after the arguments select records; none selects all.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "prefix <text> [number]...",
		Short: "Prepend text to titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, ctx, "Bulk prefix", args[1:], func(records []model.EmailRecord, numbers []int) ([]model.EmailRecord, []int, error) {
				out, changed := catalog.AddTitlePrefix(records, args[0], numbers)
				return out, changed, nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "suffix <text> [number]...",
		Short: "Append text to titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, ctx, "Bulk suffix", args[1:], func(records []model.EmailRecord, numbers []int) ([]model.EmailRecord, []int, error) {
				out, changed := catalog.AddTitleSuffix(records, args[0], numbers)
				return out, changed, nil
			})
		},
	})

	var fieldName, replace string
	replaceCmd := &cobra.Command{
		Use:   "replace <find> [number]...",
		Short: "Find and replace text in one field",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := catalog.ParseField(fieldName)
			if err != nil {
				return err
			}
			return runBulk(cmd, ctx, "Bulk replace", args[1:], func(records []model.EmailRecord, numbers []int) ([]model.EmailRecord, []int, error) {
				return catalog.FindReplace(records, field, args[0], replace, numbers)
			})
		},
	}
	replaceCmd.Flags().StringVar(&fieldName, "field", "title", "Field to edit: title, subject or body")
	replaceCmd.Flags().StringVar(&replace, "with", "", "Replacement text")
	cmd.AddCommand(replaceCmd)

	return cmd
}

func runBulk(cmd *cobra.Command, ctx *commandContext, action string, args []string, fn bulkEdit) error {
	numbers, err := parseNumberArgs(args)
	if err != nil {
		return err
	}
	return ctx.withStore(func(st *store.SQLiteStore) error {
		records, err := st.ListRecords(cmd.Context(), store.RecordFilter{})
		if err != nil {
			return err
		}
		updated, changed, err := fn(records, numbers)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(changed) == 0 {
			fmt.Fprintln(out, "No newsletters changed")
			return nil
		}
		dirty := slices.DeleteFunc(updated, func(rec model.EmailRecord) bool {
			return !slices.Contains(changed, rec.Number)
		})
		if err := st.SaveRecords(cmd.Context(), dirty); err != nil {
			return err
		}

		details := fmt.Sprintf("Updated %d email(s): %s", len(changed), formatNumbers(changed))
		recordActivity(cmd.Context(), st, action, details)
		fmt.Fprintln(out, details)
		return nil
	})
}

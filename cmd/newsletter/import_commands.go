package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/credential"
	"github.com/nhle/newsletter-manager/internal/interchange"
	"github.com/nhle/newsletter-manager/internal/logging"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
	"github.com/nhle/newsletter-manager/internal/source"
	"github.com/nhle/newsletter-manager/internal/source/mailbox"
	"github.com/nhle/newsletter-manager/internal/store"
	"github.com/nhle/newsletter-manager/internal/sync"
	"github.com/nhle/newsletter-manager/internal/validate"
)

type importOptions struct {
	overwrite bool
	replace   bool
}

func (o *importOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.overwrite, "overwrite", false, "Replace stored weeks that the import also contains")
	cmd.Flags().BoolVar(&o.replace, "replace", false, "Replace the whole stored collection with the import")
	cmd.MarkFlagsMutuallyExclusive("overwrite", "replace")
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import newsletters from a file or a mailbox",
	}

	cmd.AddCommand(newImportFileCommand(ctx, "csv", interchange.FromCSV))
	cmd.AddCommand(newImportFileCommand(ctx, "json", interchange.FromJSON))
	cmd.AddCommand(newImportMailboxCommand(ctx))
	return cmd
}

func newImportFileCommand(
	ctx *commandContext,
	format string,
	decode func(io.Reader) (record.Result, error),
) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   format + " <file>",
		Short: "Import newsletters from a " + strings.ToUpper(format) + " file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != stdoutPath {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			res, err := decode(r)
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				return importResult(cmd.Context(), cmd, st, res, format+" "+args[0], opts)
			})
		},
	}

	opts.register(cmd)
	return cmd
}

func newImportMailboxCommand(ctx *commandContext) *cobra.Command {
	var (
		opts   importOptions
		folder string
		limit  int
		watch  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mailbox",
		Short: "Import newsletters drafted in an IMAP folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			mailboxCfg := cfg.Mailbox
			if folder != "" {
				mailboxCfg.Folder = folder
			}
			if strings.TrimSpace(mailboxCfg.Host) == "" {
				return errors.New("mailbox.host is not configured")
			}

			password, err := credential.Lookup(credential.MailboxPassword, credential.EnvName(credential.MailboxPassword))
			if err != nil {
				return fmt.Errorf("mailbox password: %w (run `newsletter credential set %s`)", err, credential.MailboxPassword)
			}

			var src source.Source = mailbox.NewAdapter(mailboxCfg, password)
			origin := "mailbox " + mailboxCfg.Folder
			if watch > 0 {
				return watchSource(cmd, ctx, src, limit, watch, origin, opts)
			}

			rows, err := fetchRows(cmd.Context(), src, limit)
			if err != nil {
				return err
			}
			return ctx.withStore(func(st *store.SQLiteStore) error {
				return importResult(cmd.Context(), cmd, st, record.NormalizeRows(rows), origin, opts)
			})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&folder, "folder", "", "Mailbox folder (default mailbox.folder)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Read at most this many of the newest messages")
	cmd.Flags().DurationVar(&watch, "watch", 0, "Keep importing on this interval until interrupted (e.g. 5m)")
	return cmd
}

// watchSource imports from src on every tick until interrupted. The store
// is opened per batch so other commands can run in between.
func watchSource(
	cmd *cobra.Command,
	ctx *commandContext,
	src source.Source,
	limit int,
	interval time.Duration,
	origin string,
	opts importOptions,
) error {
	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := sync.New(src, source.FetchOptions{Limit: limit}, interval, func(batchCtx context.Context, rows []model.Row) error {
		return ctx.withStore(func(st *store.SQLiteStore) error {
			return importResult(batchCtx, cmd, st, record.NormalizeRows(rows), origin, opts)
		})
	})
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s every %s; press Ctrl+C to stop\n", origin, interval)
	if err := poller.Run(runCtx); err != nil {
		return fmt.Errorf("%w (check the stored mailbox password)", err)
	}
	status := poller.Status()
	fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %d sync(s)\n", status.Runs)
	return nil
}

func fetchRows(ctx context.Context, src source.Source, limit int) ([]model.Row, error) {
	log := logging.Log.WithField("source", src.Type())
	result, err := src.FetchRows(ctx, source.FetchOptions{Limit: limit})
	if err != nil {
		if source.IsAuthError(err) {
			return nil, fmt.Errorf("%w (check the stored mailbox password)", err)
		}
		return nil, err
	}
	for _, failed := range result.Failed {
		log.WithError(failed).Warn("skipping unreadable message")
	}
	log.WithField("rows", len(result.Rows)).Info("fetched rows")
	return result.Rows, nil
}

// importResult stores a normalized import and reports what happened.
// Imported content is checked with the lenient rules; warnings are logged
// and never block the import.
func importResult(
	ctx context.Context,
	cmd *cobra.Command,
	st store.Store,
	res record.Result,
	origin string,
	opts importOptions,
) error {
	log := logging.Log.WithFields(logrus.Fields{
		"action":   "import",
		"origin":   origin,
		"trace_id": uuid.NewString(),
	})
	logDiagnostics(log, res)
	for _, rec := range res.Records {
		for _, w := range validate.Validate(rec, validate.Lenient) {
			log.WithFields(logrus.Fields{"number": rec.Number, "code": w.Code}).Info(w.Message)
		}
	}

	out := cmd.OutOrStdout()
	var summary store.ImportSummary
	if opts.replace {
		if err := st.ReplaceAll(ctx, res.Records); err != nil {
			return err
		}
		summary.Imported = len(res.Records)
	} else {
		var err error
		summary, err = st.ImportRecords(ctx, res.Records, opts.overwrite)
		if err != nil {
			return err
		}
	}

	details := fmt.Sprintf("Imported %d, updated %d, skipped %d from %s",
		summary.Imported, summary.Updated, summary.Skipped, origin)
	log.WithFields(logrus.Fields{
		"imported": summary.Imported,
		"updated":  summary.Updated,
		"skipped":  summary.Skipped,
		"excluded": res.Excluded(),
		"numbers":  record.Numbers(res.Records),
	}).Info("import finished")
	recordActivity(ctx, st, "Import", details)

	fmt.Fprintln(out, details)
	if n := res.Excluded(); n > 0 {
		fmt.Fprintf(out, "Excluded %d row(s); see the log for details\n", n)
	}
	if dups := res.DuplicateNumbers(); len(dups) > 0 {
		fmt.Fprintf(out, "Kept the first row for duplicate week(s) %s\n", formatNumbers(dups))
	}
	return nil
}

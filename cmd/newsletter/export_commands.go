package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/catalog"
	"github.com/nhle/newsletter-manager/internal/interchange"
	"github.com/nhle/newsletter-manager/internal/logging"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
	"github.com/nhle/newsletter-manager/internal/report"
	"github.com/nhle/newsletter-manager/internal/store"
)

// stdoutPath selects standard output as the export destination.
const stdoutPath = "-"

type exportOptions struct {
	out        string
	pretty     bool
	search     string
	completion string
	schedule   scheduleFlags
}

// exportFile is one rendered export document.
type exportFile struct {
	name        string
	contentType string
	data        []byte
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:       "export <csv|json|backup|html|eml|schedule|list|stats>",
		Short:     "Export newsletters",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"csv", "json", "backup", "html", "eml", "schedule", "list", "stats"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			completion, err := model.ParseCompletion(opts.completion)
			if err != nil {
				return err
			}

			return ctx.withStore(func(st *store.SQLiteStore) error {
				res, err := loadCollection(cmd.Context(), st)
				if err != nil {
					return err
				}
				records := catalog.Apply(res.Records, catalog.Query{
					Term:       opts.search,
					Completion: completion,
					SortBy:     catalog.FieldNumber,
				})

				now := time.Now()
				format := args[0]
				if format == "eml" {
					return exportMessages(cmd, st, cfg, records, opts.out, now)
				}

				file, err := renderExport(format, cfg, records, opts, now)
				if err != nil {
					return err
				}
				path, err := writeExport(cmd.OutOrStdout(), cfg.Export.Dir, opts.out, file)
				if err != nil {
					return err
				}

				logging.Log.WithFields(logrus.Fields{
					"action":       "export",
					"format":       format,
					"content_type": file.contentType,
					"records":      len(records),
					"path":         path,
				}).Info("export written")
				if path != stdoutPath {
					recordActivity(cmd.Context(), st, "Export", fmt.Sprintf("Exported %d email(s) as %s to %s", len(records), format, path))
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file, directory, or - for stdout (default export.dir)")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Export only records matching this text")
	cmd.Flags().StringVar(&opts.completion, "completion", "all", "Export only all, completed or pending records")
	opts.schedule.register(cmd)
	return cmd
}

func renderExport(
	format string,
	cfg *model.AppConfig,
	records []model.EmailRecord,
	opts exportOptions,
	now time.Time,
) (exportFile, error) {
	n := len(records)
	switch format {
	case "csv":
		data, err := interchange.ToCSV(records)
		return exportFile{interchange.FileName("newsletters", n, "csv"), interchange.ContentTypeCSV, data}, err
	case "json":
		data, err := interchange.ToJSON(records, opts.pretty)
		return exportFile{interchange.FileName("newsletters", n, "json"), interchange.ContentTypeJSON, data}, err
	case "backup":
		data, err := interchange.ToBackup(records, now)
		name := "newsletter_backup_" + now.Format("20060102_150405") + ".json"
		return exportFile{name, interchange.ContentTypeJSON, data}, err
	case "html":
		var buf bytes.Buffer
		if _, err := interchange.WriteHTMLArchive(&buf, records, now); err != nil {
			return exportFile{}, err
		}
		return exportFile{interchange.FileName("newsletters_html", n, "zip"), interchange.ContentTypeZip, buf.Bytes()}, nil
	case "schedule":
		entries, err := opts.schedule.plan(cfg, records, now)
		if err != nil {
			return exportFile{}, err
		}
		data, err := interchange.ScheduleCSV(entries)
		return exportFile{interchange.FileName("schedule", n, "csv"), interchange.ContentTypeCSV, data}, err
	case "list":
		data, err := report.ListCSV(records)
		return exportFile{interchange.FileName("newsletter_list", n, "csv"), interchange.ContentTypeCSV, data}, err
	case "stats":
		data, err := report.StatsCSV(report.Summarize(records))
		return exportFile{"newsletter_stats.csv", interchange.ContentTypeCSV, data}, err
	}
	return exportFile{}, fmt.Errorf("unknown export format %q", format)
}

// writeExport writes file to out. An empty out uses dir with the default
// name; an existing directory receives the default name.
func writeExport(stdout io.Writer, dir, out string, file exportFile) (string, error) {
	if out == stdoutPath {
		if file.contentType == interchange.ContentTypeZip {
			return "", errors.New("refusing to write a zip archive to stdout")
		}
		_, err := stdout.Write(file.data)
		return stdoutPath, err
	}

	path := strings.TrimSpace(out)
	switch {
	case path == "":
		path = filepath.Join(dir, file.name)
	case isDir(path):
		path = filepath.Join(path, file.name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, file.data, 0o644); err != nil {
		return "", fmt.Errorf("writing export %s: %w", path, err)
	}
	return path, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// exportMessages writes one .eml file per authored record into a directory.
func exportMessages(
	cmd *cobra.Command,
	st store.Store,
	cfg *model.AppConfig,
	records []model.EmailRecord,
	out string,
	now time.Time,
) error {
	if out == stdoutPath {
		return errors.New("eml export writes one file per week; give a directory with --out")
	}
	dir := strings.TrimSpace(out)
	if dir == "" {
		dir = cfg.Export.Dir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	written := 0
	for _, rec := range records {
		if !record.IsComplete(rec) {
			continue
		}
		var buf bytes.Buffer
		if err := interchange.WriteMessage(&buf, rec, cfg.Export.From, now); err != nil {
			return err
		}
		path := filepath.Join(dir, interchange.MessageFileName(rec.Number))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		written++
	}

	logging.Log.WithFields(logrus.Fields{
		"action":       "export",
		"format":       "eml",
		"content_type": interchange.ContentTypeEML,
		"records":      written,
		"path":         dir,
	}).Info("export written")
	recordActivity(cmd.Context(), st, "Export", fmt.Sprintf("Exported %d email(s) as eml to %s", written, dir))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d message(s) to %s\n", written, dir)
	return nil
}

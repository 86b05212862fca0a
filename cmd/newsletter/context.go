package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/newsletter-manager/internal/logging"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
	"github.com/nhle/newsletter-manager/internal/store"
)

type commandContext struct {
	configFlag   *string
	dbFlag       *string
	logLevelFlag *string

	configOnce sync.Once
	config     *model.AppConfig
	configErr  error
}

func newCommandContext(configFlag, dbFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		dbFlag:       dbFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return path
		}
	}
	return model.DefaultConfigPath()
}

func (c *commandContext) ensureConfig() (*model.AppConfig, error) {
	c.configOnce.Do(func() {
		cfg, err := model.LoadConfig(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.dbFlag != nil && strings.TrimSpace(*c.dbFlag) != "" {
			cfg.Store.Path = strings.TrimSpace(*c.dbFlag)
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := logging.Configure(cfg.Logging.Level, cfg.Logging.Format, nil); err != nil {
			c.configErr = fmt.Errorf("configure logging: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*store.SQLiteStore) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		if errors.Is(err, store.ErrLocked) {
			return fmt.Errorf("open store %s: another newsletter command is running", cfg.Store.Path)
		}
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Log.WithError(err).Warn("closing store")
		}
	}()
	return fn(st)
}

// loadCollection reads the stored rows and normalizes them the same way an
// imported file is normalized.
func loadCollection(ctx context.Context, st store.Store) (record.Result, error) {
	rows, err := st.Rows(ctx)
	if err != nil {
		return record.Result{}, err
	}
	res := record.NormalizeRows(rows)
	logDiagnostics(logging.Log.WithField("action", "load"), res)
	return res, nil
}

func logDiagnostics(log *logrus.Entry, res record.Result) {
	for _, d := range res.Diagnostics {
		entry := log
		var parseErr *record.ParseError
		var rangeErr *record.RangeError
		var countErr *record.FieldCountError
		switch {
		case errors.As(d, &parseErr):
			entry = entry.WithField("line", parseErr.Line)
		case errors.As(d, &rangeErr):
			entry = entry.WithFields(logrus.Fields{"line": rangeErr.Line, "number": rangeErr.Number})
		case errors.As(d, &countErr):
			entry = entry.WithFields(logrus.Fields{"line": countErr.Line, "fields": countErr.Fields})
		}
		entry.Warn(d.Error())
	}
	if n := res.Excluded(); n > 0 {
		log.WithField("excluded", n).Info("rows excluded during normalization")
	}
}

// recordActivity appends to the activity log. A failure is logged rather
// than returned so it never masks the outcome of the command itself.
func recordActivity(ctx context.Context, st store.Store, action, details string) {
	if err := st.LogActivity(ctx, action, details); err != nil {
		logging.Log.WithError(err).WithField("action", action).Warn("recording activity")
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseNumberArg(arg string) (int, error) {
	n, ok := record.ParseNumber(arg)
	if !ok {
		return 0, &record.ParseError{Value: arg}
	}
	if n < model.MinNumber || n > model.MaxNumber {
		return 0, &record.RangeError{Number: n}
	}
	return n, nil
}

func parseNumberArgs(args []string) ([]int, error) {
	numbers := make([]int, 0, len(args))
	for _, arg := range args {
		n, err := parseNumberArg(arg)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

func formatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("#%d", n)
	}
	return strings.Join(parts, ", ")
}

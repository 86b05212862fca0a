package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AnchorDateLayout is the layout of configured and displayed dates.
const AnchorDateLayout = "2006-01-02"

// StoreConfig locates the campaign database.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`
}

// ScheduleConfig holds the default send plan parameters.
type ScheduleConfig struct {
	// AnchorDate is the first send date (YYYY-MM-DD). Empty means today.
	AnchorDate string `mapstructure:"anchor_date" yaml:"anchor_date"`

	// IntervalDays is the number of days between consecutive sends.
	IntervalDays int `mapstructure:"interval_days" yaml:"interval_days"`
}

// ValidationConfig selects the validator rule set.
type ValidationConfig struct {
	// Strict enables the short-subject rule used for newly authored content.
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// LoggingConfig holds log output preferences.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MailboxConfig holds the IMAP settings used to import drafted newsletters.
// The password lives in the system keyring, never in the config file.
type MailboxConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
	Folder   string `mapstructure:"folder" yaml:"folder"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	// Dir is where export files are written when no --out is given.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// From is the sender address written into .eml exports.
	From string `mapstructure:"from" yaml:"from"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Schedule   ScheduleConfig   `mapstructure:"schedule" yaml:"schedule"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Mailbox    MailboxConfig    `mapstructure:"mailbox" yaml:"mailbox"`
	Export     ExportConfig     `mapstructure:"export" yaml:"export"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/newsletter/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "newsletter", "config.yaml")
}

// DefaultStorePath returns the default database location.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "newsletter.db")
	}
	return filepath.Join(home, ".local", "share", "newsletter", "newsletter.db")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{
			Path: DefaultStorePath(),
		},
		Schedule: ScheduleConfig{
			IntervalDays: 7,
		},
		Validation: ValidationConfig{
			Strict: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Mailbox: MailboxConfig{
			Port:   "993",
			TLS:    true,
			Folder: "Drafts",
		},
		Export: ExportConfig{
			Dir:  ".",
			From: "newsletter@example.com",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with NEWSLETTER_ override file values
// (e.g. NEWSLETTER_SCHEDULE_INTERVAL_DAYS). If the file does not exist,
// defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	defaults := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NEWSLETTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("schedule.anchor_date", defaults.Schedule.AnchorDate)
	v.SetDefault("schedule.interval_days", defaults.Schedule.IntervalDays)
	v.SetDefault("validation.strict", defaults.Validation.Strict)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
	v.SetDefault("mailbox.host", defaults.Mailbox.Host)
	v.SetDefault("mailbox.port", defaults.Mailbox.Port)
	v.SetDefault("mailbox.username", defaults.Mailbox.Username)
	v.SetDefault("mailbox.tls", defaults.Mailbox.TLS)
	v.SetDefault("mailbox.folder", defaults.Mailbox.Folder)
	v.SetDefault("export.dir", defaults.Export.Dir)
	v.SetDefault("export.from", defaults.Export.From)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at use time.
func (c *AppConfig) Validate() error {
	if c.Schedule.IntervalDays <= 0 {
		return fmt.Errorf("schedule.interval_days must be positive, got %d", c.Schedule.IntervalDays)
	}
	if _, err := c.Anchor(time.Now()); err != nil {
		return err
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path must not be empty")
	}
	return nil
}

// Anchor returns the configured anchor date, or the date of now when none
// is configured.
func (c *AppConfig) Anchor(now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Schedule.AnchorDate)
	if raw == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(AnchorDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule.anchor_date %q: %w", raw, err)
	}
	return t, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("store", cfg.Store)
	v.Set("schedule", cfg.Schedule)
	v.Set("validation", cfg.Validation)
	v.Set("logging", cfg.Logging)
	v.Set("mailbox", cfg.Mailbox)
	v.Set("export", cfg.Export)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

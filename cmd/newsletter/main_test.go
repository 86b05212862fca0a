package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsletter-manager/internal/interchange"
	"github.com/nhle/newsletter-manager/internal/model"
	"github.com/nhle/newsletter-manager/internal/record"
	"github.com/nhle/newsletter-manager/internal/store"
	"github.com/nhle/newsletter-manager/internal/testutil"
)

type cliTestEnv struct {
	base       string
	configPath string
	exportDir  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfg := model.DefaultAppConfig()
	cfg.Store.Path = filepath.Join(base, "data", "newsletter.db")
	cfg.Export.Dir = filepath.Join(base, "exports")
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "config.yaml")
	require.NoError(t, model.SaveConfig(configPath, cfg))

	return &cliTestEnv{base: base, configPath: configPath, exportDir: cfg.Export.Dir}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, err := runCLI(t, env, args...)
	require.NoError(t, err, "newsletter %s", strings.Join(args, " "))
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const campaignCSV = "Email_Number,Title,Subject_Line,Complete_HTML_Code\n" +
	"1,Intro,Hello and welcome,<html><body><p>Welcome aboard</p></body></html>\n" +
	"3,Third,Third subject,\n" +
	"x,Bad,,\n"

func TestAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "add", "--number", "1", "--title", "Welcome",
		"--subject", "Welcome to the newsletter", "--body", "<html><body><p>hi</p></body></html>")
	assert.Contains(t, out, "Added email #1: Welcome")
	assert.Contains(t, out, "Email content is very short")

	_, err := runCLI(t, env, "add", "--number", "1", "--title", "Again")
	assert.ErrorContains(t, err, "already exists")

	out = mustRunCLI(t, env, "list")
	assert.Contains(t, out, "Welcome")
	assert.Contains(t, out, "Showing 1 of 1")

	out = mustRunCLI(t, env, "show", "1", "--json")
	var detail struct {
		Number int    `json:"number"`
		Status string `json:"status"`
		Stats  struct {
			WordCount int `json:"word_count"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, 1, detail.Number)
	assert.Equal(t, "active", detail.Status)
	assert.Equal(t, 1, detail.Stats.WordCount)

	_, err = runCLI(t, env, "show", "abc")
	assert.ErrorIs(t, err, record.ErrParse)
	_, err = runCLI(t, env, "show", "60")
	assert.ErrorIs(t, err, record.ErrRange)
}

func TestAddReplaceEditDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "add", "-n", "1", "-t", "One", "--body", "<p>one</p>")
	mustRunCLI(t, env, "add", "-n", "2", "-t", "Two", "--subject", "Old subject")

	out := mustRunCLI(t, env, "add", "-n", "2", "-t", "Second", "--replace")
	assert.Contains(t, out, "Replaced email #2: Second")

	out = mustRunCLI(t, env, "list", "--json")
	var records []model.EmailRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Second", records[1].Title)
	assert.Empty(t, records[1].Subject, "replace overwrites every field")

	_, err := runCLI(t, env, "edit", "2", "--number", "1")
	assert.ErrorContains(t, err, "week 1 already exists")

	out = mustRunCLI(t, env, "edit", "2", "--number", "5")
	assert.Contains(t, out, "Moved email #2 to #5")

	_, err = runCLI(t, env, "edit", "9", "--title", "x")
	assert.ErrorIs(t, err, store.ErrNotFound)

	out = mustRunCLI(t, env, "delete", "--yes", "5", "9")
	assert.Contains(t, out, "Deleted 1 newsletter(s); 1 remain")
	assert.Contains(t, out, "Not found: #9")

	_, err = runCLI(t, env, "delete", "--yes", "9")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportStopsWhenCancelled(t *testing.T) {
	st := testutil.NewTestStore(t)
	res, err := interchange.FromCSV(strings.NewReader(campaignCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)

	err = importResult(ctx, cmd, st, res, "csv test", importOptions{})
	require.ErrorIs(t, err, context.Canceled)

	count, err := st.CountRecords(context.Background(), store.RecordFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImportAndSchedule(t *testing.T) {
	env := setupCLITestEnv(t)
	path := writeFile(t, env.base, "campaign.csv", campaignCSV)

	out := mustRunCLI(t, env, "import", "csv", path)
	assert.Contains(t, out, "Imported 2, updated 0, skipped 0")
	assert.Contains(t, out, "Excluded 1 row(s)")

	out = mustRunCLI(t, env, "import", "csv", path)
	assert.Contains(t, out, "Imported 0, updated 0, skipped 2")

	out = mustRunCLI(t, env, "schedule", "--anchor", "2025-01-06", "--interval", "7", "--csv")
	assert.Contains(t, out, "1,Hello and welcome,2025-01-06,Monday,0")
	assert.Contains(t, out, "3,Third subject,2025-01-20,Monday,14")

	_, err := runCLI(t, env, "schedule", "--interval", "-1")
	assert.Error(t, err)
}

func TestExportJSONToStdout(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "import", "csv", writeFile(t, env.base, "campaign.csv", campaignCSV))

	out := mustRunCLI(t, env, "export", "json", "--out", "-")
	var export interchange.Export
	require.NoError(t, json.Unmarshal([]byte(out), &export))
	require.Len(t, export.Emails, 2)
	assert.Equal(t, 3, export.Emails[1].ID)
	assert.Equal(t, 14, export.Emails[1].DelayDays)
	assert.Equal(t, "draft", export.Emails[1].Status)
}

func TestExportFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "import", "csv", writeFile(t, env.base, "campaign.csv", campaignCSV))

	out := mustRunCLI(t, env, "export", "csv")
	assert.Contains(t, out, filepath.Join(env.exportDir, "newsletters_2_emails.csv"))
	data, err := os.ReadFile(filepath.Join(env.exportDir, "newsletters_2_emails.csv"))
	require.NoError(t, err)
	res, err := interchange.FromCSV(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, record.Numbers(res.Records))

	mustRunCLI(t, env, "export", "html", "--completion", "completed")
	assert.FileExists(t, filepath.Join(env.exportDir, "newsletters_html_1_emails.zip"))

	mustRunCLI(t, env, "export", "eml")
	assert.FileExists(t, filepath.Join(env.exportDir, "newsletter_week_1.eml"))
	assert.NoFileExists(t, filepath.Join(env.exportDir, "newsletter_week_3.eml"))

	_, err = runCLI(t, env, "export", "pdf")
	assert.Error(t, err)
}

func TestCheckReportsProblems(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "import", "csv", writeFile(t, env.base, "campaign.csv", campaignCSV))

	out := mustRunCLI(t, env, "check", "--lenient")
	assert.Contains(t, out, "Week 3: Third")
	assert.Contains(t, out, "Missing email body")
	assert.Contains(t, out, "HTML code is empty")
	assert.Contains(t, out, "0 of 2 newsletters pass")

	mustRunCLI(t, env, "set-status", "3", "active")
	out = mustRunCLI(t, env, "check", "3")
	assert.Contains(t, out, "Status is active but the email body is empty")
}

func TestBulkAndActivity(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "import", "csv", writeFile(t, env.base, "campaign.csv", campaignCSV))

	out := mustRunCLI(t, env, "bulk", "prefix", "[Q1] ", "1")
	assert.Contains(t, out, "Updated 1 email(s): #1")

	out = mustRunCLI(t, env, "bulk", "replace", "subject", "--field", "subject", "--with", "topic")
	assert.Contains(t, out, "#3")

	out = mustRunCLI(t, env, "list", "--json")
	var records []model.EmailRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "[Q1] Intro", records[0].Title)
	assert.Equal(t, "Third topic", records[1].Subject)

	out = mustRunCLI(t, env, "delete", "--yes", "3")
	assert.Contains(t, out, "Deleted 1 newsletter(s)")

	out = mustRunCLI(t, env, "activity", "--json")
	var entries []model.Activity
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, "Delete", entries[0].Action)
	assert.Equal(t, "Import", entries[len(entries)-1].Action)
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out := mustRunCLI(t, env, "config", "validate")
	assert.Contains(t, out, "Configuration valid")

	out = mustRunCLI(t, env, "config", "show")
	var cfg model.AppConfig
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 7, cfg.Schedule.IntervalDays)

	fresh := &cliTestEnv{configPath: filepath.Join(t.TempDir(), "new", "config.yaml")}
	out = mustRunCLI(t, fresh, "config", "init")
	assert.Contains(t, out, "Wrote configuration")
	assert.FileExists(t, fresh.configPath)

	_, err := runCLI(t, fresh, "config", "init")
	assert.ErrorContains(t, err, "already exists")
}

func TestTimelineAndStats(t *testing.T) {
	env := setupCLITestEnv(t)
	mustRunCLI(t, env, "import", "csv", writeFile(t, env.base, "campaign.csv", campaignCSV))

	out := mustRunCLI(t, env, "timeline")
	assert.Contains(t, out, "Q1 (weeks 1-13, 1/13 done)")

	out = mustRunCLI(t, env, "stats", "--json")
	var stats struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)

	out = mustRunCLI(t, env, "report")
	assert.Contains(t, out, "- Completed Emails: 1")
}

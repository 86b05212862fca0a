package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger used by the CLI and the store.
var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	Log.SetOutput(os.Stdout)
	Log.SetLevel(logrus.InfoLevel)
}

// Configure applies level and format settings to Log. Output goes to out,
// or stderr when out is nil.
func Configure(level, format string, out io.Writer) error {
	lvl := logrus.InfoLevel
	if trimmed := strings.TrimSpace(level); trimmed != "" {
		parsed, err := logrus.ParseLevel(trimmed)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text", "":
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format: unsupported value %q", format)
	}

	if out == nil {
		out = os.Stderr
	}
	Log.SetOutput(out)
	Log.SetLevel(lvl)
	return nil
}

// Package logging configures the process-wide logrus logger.
//
// Request-scoped entries pick up chi's request id so every line written while
// serving one HTTP call can be correlated.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger.
//
// Level values: "debug", "info", "warn", "error" (default: "info").
// Format values: "text", "json" (default: "text").
func Setup(level, format string) {
	SetupWithOutput(level, format, os.Stdout)
}

// SetupWithOutput is Setup writing to out.
func SetupWithOutput(level, format string, out io.Writer) {
	logrus.SetOutput(out)
	logrus.SetLevel(parseLevel(level))

	if strings.ToLower(format) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// FromContext returns an entry carrying the chi request id, when present.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logrus.StandardLogger())
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		entry = entry.WithField("request_id", reqID)
	}
	return entry
}

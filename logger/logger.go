// Package logger builds the slog loggers used by the API.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Service is attached to every record.
const Service = "flashcards-ai"

const redactedValue = "[redacted]"

// credential keys never reach the log output
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"api_key":       {},
	"authorization": {},
	"cookie":        {},
	"secret":        {},
}

// New writes JSON records to os.Stdout. Debug lowers the level from Info to Debug.
func New(debug bool) *slog.Logger {
	return NewWithWriter(os.Stdout, debug)
}

func NewWithWriter(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	})
	return slog.New(h).With("service", Service)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// Discard returns a logger that drops every record. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

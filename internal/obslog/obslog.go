// Package obslog builds the one *slog.Logger the solver CLI uses: JSON
// lines on stderr, carrying correlation fields (intentId, runId,
// receiptId) when known, matching spec.md §7's logging requirements and
// the slog.NewJSONHandler usage seen across the bureau daemon's commands.
package obslog

import (
	"io"
	"log/slog"
	"os"
)

// New builds the production logger: JSON handler on stderr.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Discard builds a logger that drops every record, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithCorrelation attaches the correlation fields spec.md §7 names. Any
// empty field is omitted rather than logged as "".
func WithCorrelation(l *slog.Logger, intentID, runID, receiptID string) *slog.Logger {
	if intentID != "" {
		l = l.With("intentId", intentID)
	}
	if runID != "" {
		l = l.With("runId", runID)
	}
	if receiptID != "" {
		l = l.With("receiptId", receiptID)
	}
	return l
}

// Package logging provides leveled logging and step tracing for atomspace.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A StepLogger for structured JSONL step traces (steps.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every
// candidate tuple and rule application is logged.
const LevelTrace = slog.LevelDebug - 4

// StepFile is the name of the JSONL trace written by NewStepLogger.
const StepFile = "steps.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Subsystems fall back to
// it when no logger is configured.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// StepLogger writes one JSON line per economy or inference step.
// It is safe for concurrent use. A nil StepLogger is safe to use;
// all methods are no-ops on nil receiver.
type StepLogger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
}

// NewStepLogger creates a step logger writing to dir/steps.jsonl.
// At "info" level and above it returns nil and no file is created.
// At "debug" or "trace" level the file is opened for append.
// Returns nil if the file cannot be opened.
func NewStepLogger(dir string, level string) *StepLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, StepFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &StepLogger{w: f, closer: f}
}

// NewStepWriter creates a step logger writing to w. The caller keeps
// ownership of w; Close does not close it.
func NewStepWriter(w io.Writer) *StepLogger {
	if w == nil {
		return nil
	}
	return &StepLogger{w: w}
}

// Log writes one step record. kind is "economy" or "inference"; record is
// any JSON-marshalable report. A "time" field is added automatically.
// Safe to call on nil receiver.
func (sl *StepLogger) Log(kind string, record any) {
	if sl == nil {
		return
	}

	entry := struct {
		Time   string `json:"time"`
		Kind   string `json:"kind"`
		Record any    `json:"record"`
	}{
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
		Kind:   kind,
		Record: record,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.w == nil {
		return
	}
	_, _ = sl.w.Write(data)
}

// Close closes the underlying file when the logger owns one.
// Safe to call on nil receiver.
func (sl *StepLogger) Close() {
	if sl == nil {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.closer != nil {
		sl.closer.Close()
	}
	sl.w = nil
	sl.closer = nil
}

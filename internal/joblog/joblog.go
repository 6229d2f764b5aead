// Package joblog buffers the log entries of one job attempt so they can be
// counted, annotated and flushed in order once the job reaches its final
// state.
package joblog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vk/rigbuild/internal/ctxlog"
)

// Marker is prepended to warnings and errors that are not section headers.
const Marker = "! "

// Entry is one buffered log line.
type Entry struct {
	Level   slog.Level `json:"level" yaml:"level"`
	Message string     `json:"message" yaml:"message"`
}

// Log is the ordered log buffer of a single job.
type Log struct {
	job     string
	entries []Entry
}

// New returns an empty log for the job with the given id.
func New(job string) *Log {
	return &Log{job: job}
}

// Log records msg at level. With no insertAt, or a negative one, the
// position counts from the end: -1 appends, -2 inserts before the last
// entry. A non-negative insertAt is an index from the front. Positions are
// clamped to the buffer.
func (l *Log) Log(level slog.Level, msg string, insertAt ...int) {
	if level >= slog.LevelWarn && !isSectionHeader(msg) {
		msg = Marker + msg
	}

	at := -1
	if len(insertAt) > 0 {
		at = insertAt[0]
	}
	pos := at
	if at < 0 {
		pos = len(l.entries) + at + 1
	}
	pos = max(0, min(pos, len(l.entries)))

	l.entries = append(l.entries, Entry{})
	copy(l.entries[pos+1:], l.entries[pos:])
	l.entries[pos] = Entry{Level: level, Message: msg}
}

// Debug appends msg at debug level.
func (l *Log) Debug(msg string) {
	l.Log(slog.LevelDebug, msg)
}

// Info appends msg at info level.
func (l *Log) Info(msg string) {
	l.Log(slog.LevelInfo, msg)
}

// Warn appends a warning. Warnings count towards the job's report.
func (l *Log) Warn(msg string) {
	l.Log(slog.LevelWarn, msg)
}

// Error appends msg at error level.
func (l *Log) Error(msg string) {
	l.Log(slog.LevelError, msg)
}

// Entries returns a copy of the buffered entries in order.
func (l *Log) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of buffered entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Reset drops every buffered entry.
func (l *Log) Reset() {
	l.entries = l.entries[:0]
}

// CountWarnings counts entries at warning level or above, plus one when
// the job still has unresolved tags.
func (l *Log) CountWarnings(unresolved []string) int {
	n := l.countAtLeast(slog.LevelWarn)
	if len(unresolved) > 0 {
		n++
	}
	return n
}

// CountErrors counts entries at error level or above.
func (l *Log) CountErrors() int {
	return l.countAtLeast(slog.LevelError)
}

func (l *Log) countAtLeast(level slog.Level) int {
	n := 0
	for _, e := range l.entries {
		if e.Level >= level {
			n++
		}
	}
	return n
}

// FinalizeSummary appends a warning naming every unresolved tag, if any,
// then writes all entries to the context logger in order.
func (l *Log) FinalizeSummary(ctx context.Context, unresolved []string) {
	if len(unresolved) > 0 {
		l.Warn("unresolved tags: " + strings.Join(unresolved, ", "))
	}
	logger := ctxlog.FromContext(ctx).With("job", l.job)
	for _, e := range l.entries {
		logger.Log(ctx, e.Level, e.Message)
	}
}

// isSectionHeader reports whether msg starts like a heading: "#", "[", or
// a run of "=" or "-".
func isSectionHeader(msg string) bool {
	switch {
	case strings.HasPrefix(msg, "#"), strings.HasPrefix(msg, "["):
		return true
	case strings.HasPrefix(msg, "=="), strings.HasPrefix(msg, "--"):
		return true
	}
	return false
}

package calllog

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/getmockd/msm/pkg/logging"
)

// Errors returned by Record.
var (
	ErrAlreadyRecording = errors.New("calllog: already recording")
	ErrUnflushedLogs    = errors.New("calllog: already has unflushed logs, call Flush first or pass bypass")
)

// Log is a recording-gated, append-only list of entries. It is safe for
// concurrent use.
type Log struct {
	logger *slog.Logger

	mu        sync.Mutex
	recording bool
	entries   []*Entry
}

// New creates an idle, empty Log.
func New(logger *slog.Logger) *Log {
	return &Log{logger: logging.OrNop(logger)}
}

// Record starts recording. It fails with ErrAlreadyRecording when already
// recording, and with ErrUnflushedLogs when entries remain from an earlier
// recording unless bypass is true.
func (l *Log) Record(bypass bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.recording {
		return ErrAlreadyRecording
	}
	if len(l.entries) > 0 && !bypass {
		return ErrUnflushedLogs
	}
	l.recording = true
	l.logger.Debug("call log recording started", "bypass", bypass, "entries", len(l.entries))
	return nil
}

// StopRecording stops recording and keeps the entries.
func (l *Log) StopRecording() {
	l.mu.Lock()
	l.recording = false
	l.mu.Unlock()
	l.logger.Debug("call log recording stopped")
}

// Flush stops recording and drops every entry.
func (l *Log) Flush() {
	l.mu.Lock()
	l.recording = false
	l.entries = nil
	l.mu.Unlock()
	l.logger.Debug("call log flushed")
}

// Recording reports whether entries are currently being appended.
func (l *Log) Recording() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recording
}

// Append adds e if recording and reports whether it was added.
func (l *Log) Append(e *Entry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.recording {
		return false
	}
	l.entries = append(l.entries, e)
	return true
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Called returns the entries matching f, oldest first.
func (l *Log) Called(f Filter) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if f.Match(e) {
			out = append(out, *e)
		}
	}
	return out
}

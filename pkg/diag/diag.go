// Package diag is the diagnostics channel through which connect, bake and
// sweep report their terminal outcomes. Reporting is fire-and-forget.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Level is the severity of a diagnostic.
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Message is a single diagnostic.
type Message struct {
	Level Level
	Op    string // "connect", "bake", "sweep", ...
	Text  string
}

func (m Message) String() string {
	return fmt.Sprintf("[%s] %s: %s", m.Level, m.Op, m.Text)
}

// Sink receives diagnostics.
type Sink interface {
	Report(m Message)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Message)

// Report calls f(m).
func (f SinkFunc) Report(m Message) { f(m) }

type discard struct{}

func (discard) Report(Message) {}

// Discard drops every message.
var Discard Sink = discard{}

// Or returns s, or Discard when s is nil.
func Or(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Infof reports an Info message.
func Infof(s Sink, op, format string, args ...any) {
	s.Report(Message{Level: Info, Op: op, Text: fmt.Sprintf(format, args...)})
}

// Warnf reports a Warning message.
func Warnf(s Sink, op, format string, args ...any) {
	s.Report(Message{Level: Warning, Op: op, Text: fmt.Sprintf(format, args...)})
}

// Errorf reports an Error message.
func Errorf(s Sink, op, format string, args ...any) {
	s.Report(Message{Level: Error, Op: op, Text: fmt.Sprintf(format, args...)})
}

// LogSink forwards diagnostics to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink writing to logger, or to slog.Default when
// logger is nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(m Message) {
	level := slog.LevelInfo
	switch m.Level {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, m.Text, slog.String("op", m.Op))
}

// Recorder keeps every message it receives. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Report implements Sink.
func (r *Recorder) Report(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Count returns how many recorded messages have the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Level == level {
			n++
		}
	}
	return n
}

// Reset discards all recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

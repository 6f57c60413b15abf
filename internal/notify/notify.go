package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Level is the severity of a notification
type Level int

const (
	Info Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Sink surfaces messages to the user. Implementations must not block.
type Sink interface {
	Notify(level Level, message string)
}

// Logger writes notifications to a zap logger
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a sink backed by logger
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(level Level, message string) {
	switch level {
	case Error:
		l.logger.Error(message)
	case Warning:
		l.logger.Warn(message)
	default:
		l.logger.Info(message)
	}
}

// Writer prints notifications as lines, prefixing non-info levels
type Writer struct {
	w io.Writer
}

// NewWriter creates a sink printing to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Notify(level Level, message string) {
	if level == Info {
		fmt.Fprintln(p.w, message)
		return
	}
	fmt.Fprintf(p.w, "%s: %s\n", level, message)
}

// Message is a recorded notification
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every notification, for tests
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, Message{Level: level, Text: message})
}

// Messages returns a copy of what was recorded
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Message(nil), r.messages...)
}

// Last returns the most recent notification
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset forgets everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = nil
}

// Multi fans a notification out to several sinks
type Multi []Sink

func (m Multi) Notify(level Level, message string) {
	for _, s := range m {
		s.Notify(level, message)
	}
}

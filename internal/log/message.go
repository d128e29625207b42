// message.go implements the asynchronous message sink behind dock loggers.
//
// Separated from log.go because audit entries and free-form messages have
// different write paths. Audit entries are written inline by the host;
// messages come from dock code on arbitrary goroutines and must never block
// it, so they go through a bounded queue drained by one writer goroutine.
//
// Design: when the queue is full the message is dropped and counted rather
// than applying back-pressure to the dock.

package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Level is a message severity.
type Level int

// Message levels in ascending severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// ParseLevel converts a level name. Unknown names return LevelInfo, false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarning, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// Record is one stored message.
type Record struct {
	Time    time.Time `json:"time"`
	Level   Level     `json:"level"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
}

// queueSize bounds the message queue.
const queueSize = 1024

var (
	echoMu  sync.Mutex
	echoW   io.Writer
	echoMin = LevelWarning
)

// SetEcho copies messages at min level or above to w, for example stderr.
// A nil w disables echoing.
func SetEcho(w io.Writer, min Level) {
	echoMu.Lock()
	defer echoMu.Unlock()
	echoW = w
	echoMin = min
}

func echo(r Record) {
	echoMu.Lock()
	defer echoMu.Unlock()
	if echoW == nil || r.Level < echoMin {
		return
	}
	_, _ = fmt.Fprintf(echoW, "dock: %s [%s] %s\n", r.Level, r.Source, r.Message)
}

// Message queues a message from source. It never blocks: when the logger is
// closed the message is only echoed, and when the queue is full it is
// dropped.
func Message(level Level, source, msg string) {
	r := Record{Time: time.Now(), Level: level, Source: source, Message: msg}
	echo(r)

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		return
	}
	select {
	case global.msgs <- r:
	default:
		global.dropped.Add(1)
	}
}

// Dropped returns how many messages were dropped because the queue was full.
func Dropped() int64 {
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		return 0
	}
	return global.dropped.Load()
}

// Source returns a logger that tags every message with source. It satisfies
// the dock Logger interface.
func Source(source string) *SourceLogger {
	return &SourceLogger{source: source}
}

// SourceLogger forwards to Message with a fixed source.
type SourceLogger struct {
	source string
}

func (s *SourceLogger) Debug(msg string)   { Message(LevelDebug, s.source, msg) }
func (s *SourceLogger) Info(msg string)    { Message(LevelInfo, s.source, msg) }
func (s *SourceLogger) Warning(msg string) { Message(LevelWarning, s.source, msg) }
func (s *SourceLogger) Error(msg string)   { Message(LevelError, s.source, msg) }

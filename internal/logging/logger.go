// Package logging provides the leveled logger used across the FLM
// core. Log lines can be tagged with the component that emitted them
// and the scheduler tick at which they were emitted, so a field trace
// can be correlated against the tick timeline even if C8's counter
// has wrapped since the run started.
package logging

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flm/core/internal/tick"
)

type Level int32

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
)

func (l Level) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case CRITICAL:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// sink is the mutex-guarded write destination shared by every Logger
// derived from the same root via Component or WithTick.
type sink struct {
	mu         sync.Mutex
	minLevel   atomic.Int32
	file       *os.File
	alsoStdout bool
}

func (s *sink) write(level Level, component string, hasTick bool, t uint32, msg string, args ...any) {
	if level < Level(s.minLevel.Load()) {
		return
	}

	var fields string
	if component != "" {
		fields += " component=" + component
	}
	if hasTick {
		fields += fmt.Sprintf(" tick=%d", t)
	}

	ts := time.Now().Format(time.RFC3339Nano)
	line := fmt.Sprintf("%s [%s]%s %s\n", ts, level.String(), fields, fmt.Sprintf(msg, args...))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		_, _ = s.file.WriteString(line)
		_ = s.file.Sync()
	}
	if s.alsoStdout {
		_, _ = os.Stdout.WriteString(line)
	}
}

// Logger is a leveled logger optionally scoped to a component name
// and a tick. Scoped loggers share their root's sink, so SetMinLevel
// and Close act on every Logger derived from the same New/NewFile
// call at once.
type Logger struct {
	s         *sink
	component string
	tickVal   uint32
	hasTick   bool
}

// New creates a stdout-only root logger at the given level.
func New(minLevel Level) *Logger {
	s := &sink{alsoStdout: true}
	s.minLevel.Store(int32(minLevel))
	return &Logger{s: s}
}

// NewFile creates a root logger that writes to filePath, optionally
// echoing to stdout as well.
func NewFile(filePath string, minLevel Level, alsoStdout bool) (*Logger, error) {
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	s := &sink{file: f, alsoStdout: alsoStdout}
	s.minLevel.Store(int32(minLevel))
	return &Logger{s: s}, nil
}

func (l *Logger) Close() error {
	if l.s.file != nil {
		return l.s.file.Close()
	}
	return nil
}

func (l *Logger) SetMinLevel(level Level) {
	l.s.minLevel.Store(int32(level))
}

// Component returns a derived logger that tags every line it emits
// with name (e.g. "component=scheduler"). Any tick already attached
// via WithTick carries over.
func (l *Logger) Component(name string) *Logger {
	return &Logger{s: l.s, component: name, tickVal: l.tickVal, hasTick: l.hasTick}
}

// WithTick returns a derived logger that tags every line it emits
// with the given tick, so the line can be placed on the tick timeline
// without ambiguity even across a §3 wraparound. Any component already
// attached via Component carries over.
func (l *Logger) WithTick(t tick.T) *Logger {
	return &Logger{s: l.s, component: l.component, tickVal: uint32(t), hasTick: true}
}

func (l *Logger) Trace(msg string, args ...any) {
	l.s.write(TRACE, l.component, l.hasTick, l.tickVal, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.s.write(DEBUG, l.component, l.hasTick, l.tickVal, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.s.write(INFO, l.component, l.hasTick, l.tickVal, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.s.write(WARN, l.component, l.hasTick, l.tickVal, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.s.write(ERROR, l.component, l.hasTick, l.tickVal, msg, args...)
}

func (l *Logger) Critical(msg string, args ...any) {
	l.s.write(CRITICAL, l.component, l.hasTick, l.tickVal, msg, args...)
}

// ParseLevel maps CLI strings to Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch s {
	case "trace":
		return TRACE
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "critical":
		return CRITICAL
	default:
		return INFO
	}
}

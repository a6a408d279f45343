// Package logger wraps zerolog with typed fields and optional aggregation of
// error lines onto a message topic.
package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl   zerolog.Logger
	sink *sink
}

// sink is shared by a logger and every child made with With, so a collector
// attached after construction reaches all of them.
type sink struct {
	collector atomic.Pointer[LogCollector]
	warn      atomic.Bool
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
	Service    string // value of the "service" field on every line
}

// NewNop returns a logger that discards everything. Used in tests and by
// components constructed without a logger.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), sink: &sink{}}
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: timeFormat}
	}

	ctx := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3)
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	return &Logger{zl: ctx.Logger(), sink: &sink{}}, nil
}

func (l *Logger) log(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(l.zl.Debug(), msg, fields) }

func (l *Logger) Info(msg string, fields ...Field) { l.log(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(l.zl.Warn(), msg, fields)
	if l.sink.warn.Load() {
		l.collect("warn", msg, fields)
	}
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.log(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

// collect hands the line to the collector, if one is attached.
func (l *Logger) collect(level, msg string, fields []Field) {
	c := l.sink.collector.Load()
	if c == nil {
		return
	}
	// Frames: collect, Error or Warn, caller.
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		if i := strings.LastIndex(file, "/internal/"); i >= 0 {
			file = file[i+1:]
		} else if i := strings.LastIndex(file, "/pkg/"); i >= 0 {
			file = file[i+1:]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		k, v := f.GetKeyValue()
		m[k] = v
	}
	c.AddLog(level, msg, m, caller)
}

// With returns a child logger that adds fields to every line. The child
// shares the parent's collector.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		k, v := f.GetKeyValue()
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zl: ctx.Logger(), sink: l.sink}
}

// AddCollector starts aggregating error lines (and warn lines when asked).
// A previously attached collector is flushed and closed.
func (l *Logger) AddCollector(config *CollectionConfig) {
	l.sink.warn.Store(config.IncludeWarn)
	if old := l.sink.collector.Swap(NewLogCollector(config)); old != nil {
		old.Close()
	}
}

// RemoveCollector detaches the collector after a final synchronous flush.
func (l *Logger) RemoveCollector() {
	if old := l.sink.collector.Swap(nil); old != nil {
		old.Close()
	}
}

// Field is one structured key/value on a log line.
type Field interface {
	AddTo(event *zerolog.Event)
	GetKeyValue() (string, interface{})
}

type field struct {
	key   string
	value interface{}
	add   func(*zerolog.Event)
}

func (f field) AddTo(event *zerolog.Event)         { f.add(event) }
func (f field) GetKeyValue() (string, interface{}) { return f.key, f.value }

func String(key, value string) Field {
	return field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Int(key string, value int) Field {
	return field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Uint64(key string, value uint64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Uint64(key, value) }}
}

func Float64(key string, value float64) Field {
	return field{key, value, func(e *zerolog.Event) { e.Float64(key, value) }}
}

func Bool(key string, value bool) Field {
	return field{key, value, func(e *zerolog.Event) { e.Bool(key, value) }}
}

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	ms := value.Milliseconds()
	return field{key, ms, func(e *zerolog.Event) { e.Int64(key, ms) }}
}

func Strings(key string, value []string) Field {
	return field{key, value, func(e *zerolog.Event) { e.Strs(key, value) }}
}

func Any(key string, value interface{}) Field {
	return field{key, value, func(e *zerolog.Event) { e.Interface(key, value) }}
}

// Error logs err under "error". The collected value is the message text.
func Error(err error) Field {
	msg := "<nil>"
	if err != nil {
		msg = err.Error()
	}
	return field{"error", msg, func(e *zerolog.Event) { e.Err(err) }}
}

package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with typed structured fields.
type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

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

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(output).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying a component name.
func (l *Logger) With(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.emit(l.zl.Error(), msg, fields) }

func (l *Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.AddTo(event)
	}
	event.Msg(msg)
}

// Field attaches one typed key/value to a log event.
type Field interface {
	AddTo(event *zerolog.Event)
}

type stringField struct{ k, v string }
type intField struct {
	k string
	v int
}
type floatField struct {
	k string
	v float64
}
type boolField struct {
	k string
	v bool
}
type errorField struct{ err error }
type durationField struct {
	k string
	v time.Duration
}
type anyField struct {
	k string
	v interface{}
}

func (f stringField) AddTo(e *zerolog.Event)   { e.Str(f.k, f.v) }
func (f intField) AddTo(e *zerolog.Event)      { e.Int(f.k, f.v) }
func (f floatField) AddTo(e *zerolog.Event)    { e.Float64(f.k, f.v) }
func (f boolField) AddTo(e *zerolog.Event)     { e.Bool(f.k, f.v) }
func (f errorField) AddTo(e *zerolog.Event)    { e.Err(f.err) }
func (f durationField) AddTo(e *zerolog.Event) { e.Dur(f.k, f.v) }
func (f anyField) AddTo(e *zerolog.Event)      { e.Interface(f.k, f.v) }

func String(key, value string) Field             { return stringField{key, value} }
func Int(key string, value int) Field            { return intField{key, value} }
func Float64(key string, value float64) Field    { return floatField{key, value} }
func Bool(key string, value bool) Field          { return boolField{key, value} }
func Error(err error) Field                      { return errorField{err} }
func Duration(key string, v time.Duration) Field { return durationField{key, v} }
func Any(key string, value interface{}) Field    { return anyField{key, value} }
func Strings(key string, values []string) Field  { return stringField{key, strings.Join(values, ", ")} }

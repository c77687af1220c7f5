// Package logger is the zerolog wrapper shared by the connection, the
// schema registry, the table layer and the HTTP shell.
//
// Every executed statement goes through Statement at debug level, so
// running with level "debug" prints the full SQL trail of an operation.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger.
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	TimeFormat string // rfc3339, unix, unixms, unixmicro
	Output     io.Writer
}

// DefaultConfig returns production defaults
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		TimeFormat: "rfc3339",
		Output:     os.Stderr,
	}
}

// New creates a logger. Level and time format are applied to this logger
// only; zerolog's package-level settings are left alone, so independently
// configured loggers do not interfere with each other.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	zlog := zerolog.New(out).Hook(stamp(cfg.TimeFormat)).Level(level(cfg.Level))
	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// OrNop returns l, or a discarding logger when l is nil. Constructors that
// accept an optional logger use it.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}

// ForTable is shorthand for a child logger carrying the table name.
func (l *Logger) ForTable(table string) *Logger {
	return l.With().Str("table", table).Logger()
}

// With starts a child logger.
func (l *Logger) With() *Context {
	return &Context{ctx: l.zlog.With()}
}

// Context collects the fields of a child logger.
type Context struct {
	ctx zerolog.Context
}

func (c *Context) Str(key, val string) *Context {
	c.ctx = c.ctx.Str(key, val)
	return c
}

func (c *Context) Int(key string, val int) *Context {
	c.ctx = c.ctx.Int(key, val)
	return c
}

func (c *Context) Err(err error) *Context {
	c.ctx = c.ctx.Err(err)
	return c
}

func (c *Context) Logger() *Logger {
	return &Logger{zlog: c.ctx.Logger()}
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// ErrorWith logs err with extra fields.
func (l *Logger) ErrorWith(msg string, err error, fields map[string]any) {
	l.zlog.Error().Err(err).Fields(fields).Msg(msg)
}

// Statement logs an executed SQL statement with its bind tokens. Failed
// statements are logged at warn.
func (l *Logger) Statement(sql string, binds []string, err error) {
	ev := l.zlog.Debug()
	if err != nil {
		ev = l.zlog.Warn().Err(err)
	}
	ev.Str("sql", sql).Strs("binds", binds).Msg("statement")
}

// Request logs one served HTTP request. 5xx responses are logged at error.
func (l *Logger) Request(method, path string, status int, elapsed time.Duration) {
	ev := l.zlog.Info()
	if status >= 500 {
		ev = l.zlog.Error()
	}
	ev.Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("request")
}

func level(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// stamp writes the time field of every event in the configured format.
type stamp string

func (s stamp) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	now := time.Now()
	switch s {
	case "unix":
		e.Int64(zerolog.TimestampFieldName, now.Unix())
	case "unixms":
		e.Int64(zerolog.TimestampFieldName, now.UnixMilli())
	case "unixmicro":
		e.Int64(zerolog.TimestampFieldName, now.UnixMicro())
	default:
		e.Str(zerolog.TimestampFieldName, now.Format(time.RFC3339))
	}
}

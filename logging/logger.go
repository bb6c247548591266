package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name. Unknown names map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface for finassist.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// contextual is implemented by adapters able to pre-bind attributes.
type contextual interface {
	With(args ...any) Logger
}

// With returns a logger that attaches args to every entry. Loggers that do
// not support binding are returned unchanged.
func With(l Logger, args ...any) Logger {
	if c, ok := l.(contextual); ok {
		return c.With(args...)
	}
	return l
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// With binds attributes to a derived logger.
func (s *SlogAdapter) With(args ...any) Logger { return &SlogAdapter{Logger: s.Logger.With(args...)} }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// ZerologAdapter wraps zerolog.Logger to implement the Logger interface.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger from a zerolog.Logger.
func NewZerologAdapter(l zerolog.Logger) Logger {
	return &ZerologAdapter{logger: l}
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, args ...any) { z.emit(z.logger.Debug(), msg, args) }

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, args ...any) { z.emit(z.logger.Info(), msg, args) }

// Warn logs a warning message.
func (z *ZerologAdapter) Warn(msg string, args ...any) { z.emit(z.logger.Warn(), msg, args) }

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, args ...any) { z.emit(z.logger.Error(), msg, args) }

// With binds attributes to a derived logger.
func (z *ZerologAdapter) With(args ...any) Logger {
	ctx := z.logger.With()
	for k, v := range pairs(args) {
		ctx = ctx.Interface(k, v)
	}
	return &ZerologAdapter{logger: ctx.Logger()}
}

func (z *ZerologAdapter) emit(ev *zerolog.Event, msg string, args []any) {
	for k, v := range pairs(args) {
		if err, ok := v.(error); ok {
			ev = ev.AnErr(k, err)
			continue
		}
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// pairs iterates slog-style alternating key/value arguments. A dangling
// value is reported under "!BADKEY" the way slog does.
func pairs(args []any) func(yield func(string, any) bool) {
	return func(yield func(string, any) bool) {
		for i := 0; i < len(args); i += 2 {
			if i+1 >= len(args) {
				yield("!BADKEY", args[i])
				return
			}
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprint(args[i])
			}
			if !yield(key, args[i+1]) {
				return
			}
		}
	}
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// Config selects the backend, level, format and destination of a Logger.
type Config struct {
	Level   string // debug, info, warn, error
	Format  string // json or text (console for zerolog)
	Backend string // slog (default) or zerolog
	Output  string // stdout, stderr (default) or a file path
}

// New builds a Logger from cfg. The returned closer flushes/closes file outputs.
func New(cfg Config) (Logger, func() error, error) {
	w, closer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output: %w", err)
	}

	level := ParseLevel(cfg.Level)

	switch strings.ToLower(cfg.Backend) {
	case "zerolog":
		return NewZerologAdapter(newZerolog(w, level, cfg.Format)), closer, nil
	case "", "slog":
		return NewSlogAdapter(newSlog(w, level, cfg.Format)), closer, nil
	default:
		_ = closer()
		return nil, nil, fmt.Errorf("unsupported log backend %q", cfg.Backend)
	}
}

func newSlog(w io.Writer, level LogLevel, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	if strings.ToLower(format) == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newZerolog(w io.Writer, level LogLevel, format string) zerolog.Logger {
	if f := strings.ToLower(format); f == "text" || f == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zerologLevel(l LogLevel) zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// openOutput returns an io.Writer for the specified output target.
func openOutput(output string) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout, noop, nil
	case "stderr", "":
		return os.Stderr, noop, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
}

// NewAccessLogger builds the zerolog logger used for HTTP access logs. It
// honours the level, format and output of cfg whatever the backend.
func NewAccessLogger(cfg Config) (zerolog.Logger, func() error, error) {
	w, closer, err := openOutput(cfg.Output)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log output: %w", err)
	}
	return newZerolog(w, ParseLevel(cfg.Level), cfg.Format), closer, nil
}

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog so that every component receives its logger through
// its constructor instead of reaching for process-wide state.
type Logger struct {
	zl zerolog.Logger
}

// New builds a logger with the specified level and format ("json" or "text").
func New(level, format string) *Logger {
	var w io.Writer = os.Stdout
	if strings.ToLower(format) != "json" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return NewWithWriter(w, level)
}

// NewWithWriter builds a JSON logger writing to w.
func NewWithWriter(w io.Writer, level string) *Logger {
	zl := zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// WithService returns a logger with service name attached
func (l *Logger) WithService(serviceName string) *Logger {
	return &Logger{zl: l.zl.With().Str("service", serviceName).Logger()}
}

// WithActor returns a logger that tags every entry with the acting identity
func (l *Logger) WithActor(actor string) *Logger {
	return &Logger{zl: l.zl.With().Str("actor", actor).Logger()}
}

// EnterMethod logs method entry (process tracking). args are key/value pairs.
func (l *Logger) EnterMethod(methodName string, args ...any) {
	l.zl.Debug().Str("method", methodName).Str("event", "enter").Fields(args).Msg("→ Method entered")
}

// ExitMethod logs method exit (process tracking)
func (l *Logger) ExitMethod(methodName string, args ...any) {
	l.zl.Debug().Str("method", methodName).Str("event", "exit").Fields(args).Msg("← Method exited")
}

// ExitMethodWithError logs method exit with error (process tracking)
func (l *Logger) ExitMethodWithError(methodName string, err error, args ...any) {
	l.zl.Error().Str("method", methodName).Str("event", "exit").Err(err).Fields(args).Msg("← Method exited with error")
}

// DatabaseCall logs database operation (debug log for external resources)
func (l *Logger) DatabaseCall(operation, query string, args ...any) {
	l.zl.Debug().Str("operation", operation).Str("query", compact(query)).Fields(args).Msg("→ Database call")
}

// DatabaseResult logs database operation result (debug log for external resources)
func (l *Logger) DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	if err != nil {
		l.zl.Error().Str("operation", operation).Int64("rows_affected", rowsAffected).Err(err).Fields(args).Msg("← Database call failed")
		return
	}
	l.zl.Debug().Str("operation", operation).Int64("rows_affected", rowsAffected).Fields(args).Msg("← Database call succeeded")
}

// ExternalServiceCall logs external service call (debug log for external resources)
func (l *Logger) ExternalServiceCall(service, operation string, args ...any) {
	l.zl.Debug().Str("external_service", service).Str("operation", operation).Fields(args).Msg("→ External service call")
}

// ExternalServiceResult logs external service result (debug log for external resources)
func (l *Logger) ExternalServiceResult(service, operation string, err error, args ...any) {
	if err != nil {
		l.zl.Error().Str("external_service", service).Str("operation", operation).Err(err).Fields(args).Msg("← External service call failed")
		return
	}
	l.zl.Debug().Str("external_service", service).Str("operation", operation).Fields(args).Msg("← External service call succeeded")
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

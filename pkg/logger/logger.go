package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger wraps zerolog.Logger with additional functionality
type Logger struct {
	zerolog.Logger
	component string
}

// Config holds logger configuration
type Config struct {
	Level      string    `mapstructure:"level"`
	Format     string    `mapstructure:"format"` // "console" or "json"
	TimeFormat string    `mapstructure:"time_format"`
	Output     io.Writer `mapstructure:"-"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new logger with the given configuration
func New(cfg Config) *Logger {
	// Enable stack traces on errors created through pkg/errors
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	level := parseLevel(cfg.Level)

	out := cfg.Output
	if out == nil {
		// CLI output goes to stdout, so logs stay on stderr
		out = os.Stderr
	}

	var output io.Writer
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	} else {
		output = out
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &Logger{Logger: logger}
}

// NewNop returns a logger that discards everything. Used by tests and library callers
// that do not care about logs.
func NewNop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithComponent returns a new logger with the component field set
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.With().Str("component", component).Logger(),
		component: component,
	}
}

// WithRequestID returns a new logger with the request ID field set
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger:    l.With().Str("request_id", requestID).Logger(),
		component: l.component,
	}
}

// WithLanguage returns a new logger with the language field set
func (l *Logger) WithLanguage(lang string) *Logger {
	return &Logger{
		Logger:    l.With().Str("language", lang).Logger(),
		component: l.component,
	}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying l
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx by NewContext, or fallback.
// Fields of the stored logger (such as the request ID) are kept and the
// component field of fallback is added.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok || l == nil {
		return fallback
	}
	if fallback != nil {
		if component := fallback.component; component != "" {
			return l.WithComponent(component)
		}
	}
	return l
}

// parseLevel converts a string level to zerolog.Level
func parseLevel(level string) zerolog.Level {
	switch level {
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
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// Global logger instance
var global *Logger

func init() {
	global = New(DefaultConfig())
}

// SetGlobal sets the global logger instance
func SetGlobal(l *Logger) {
	global = l
}

// Global returns the global logger instance
func Global() *Logger {
	return global
}

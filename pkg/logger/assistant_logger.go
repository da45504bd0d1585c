// Package logger provides the structured logging facade for the server.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config for logger initialization.
type Config struct {
	Level   string // debug, info, warn, error
	Service string
	Pretty  bool      // console writer for local development
	Output  io.Writer // defaults to stdout
}

var (
	mu          sync.RWMutex
	base        zerolog.Logger
	initialized bool
)

// Init configures the default logger. The latest call wins, so bootstrap
// can reconfigure after early startup logging.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := parseLevel(cfg.Level)
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	out := zerolog.New(w)
	if cfg.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	service := cfg.Service
	if service == "" {
		service = "assistant"
	}
	base = out.Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
	initialized = true
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Default returns the underlying zerolog logger.
func Default() zerolog.Logger {
	mu.RLock()
	ok := initialized
	mu.RUnlock()
	if !ok {
		Init(Config{})
	}

	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Logger carries contextual fields across calls.
type Logger struct {
	l zerolog.Logger
}

// WithField returns a logger with an additional field.
func WithField(key string, value any) *Logger {
	return &Logger{l: Default().With().Interface(key, value).Logger()}
}

// WithError returns a logger with the error attached.
func WithError(err error) *Logger {
	return &Logger{l: Default().With().Err(err).Logger()}
}

func (lg *Logger) WithField(key string, value any) *Logger {
	return &Logger{l: lg.l.With().Interface(key, value).Logger()}
}

func (lg *Logger) Debug(msg string, args ...any) { lg.l.Debug().Msgf(msg, args...) }
func (lg *Logger) Info(msg string, args ...any)  { lg.l.Info().Msgf(msg, args...) }
func (lg *Logger) Warn(msg string, args ...any)  { lg.l.Warn().Msgf(msg, args...) }
func (lg *Logger) Error(msg string, args ...any) { lg.l.Error().Msgf(msg, args...) }

// Package-level helpers using the default logger. The value returned by
// Default is bound first because zerolog's level methods need an
// addressable receiver.
func Debug(msg string, args ...any) { l := Default(); l.Debug().Msgf(msg, args...) }
func Info(msg string, args ...any)  { l := Default(); l.Info().Msgf(msg, args...) }
func Warn(msg string, args ...any)  { l := Default(); l.Warn().Msgf(msg, args...) }
func Error(msg string, args ...any) { l := Default(); l.Error().Msgf(msg, args...) }

func Fatal(msg string, args ...any) {
	l := Default()
	l.Fatal().Msgf(msg, args...)
}

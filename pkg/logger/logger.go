package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Leveled logger shared by the driver and the service.
// - structured output via zerolog (one JSON object per line)
// - provides Debugf/Infof/Warnf/Errorf/Fatalf and Init(level)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, zerolog.InfoLevel)
)

func newLogger(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	s := strings.ToLower(strings.TrimSpace(l))
	switch s {
	case "debug":
		logger = logger.Level(zerolog.DebugLevel)
	case "warn", "warning":
		logger = logger.Level(zerolog.WarnLevel)
	case "error":
		logger = logger.Level(zerolog.ErrorLevel)
	case "fatal":
		logger = logger.Level(zerolog.FatalLevel)
	default:
		logger = logger.Level(zerolog.InfoLevel)
	}
}

// SetOutput redirects log output, keeping the current level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, logger.GetLevel())
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, v ...interface{}) {
	l := current()
	l.Debug().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	l := current()
	l.Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	l := current()
	l.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	l := current()
	l.Error().Msgf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	l := current()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// LevelString returns the current level as text.
func LevelString() string {
	switch current().GetLevel() {
	case zerolog.DebugLevel:
		return "debug"
	case zerolog.InfoLevel:
		return "info"
	case zerolog.WarnLevel:
		return "warn"
	case zerolog.ErrorLevel:
		return "error"
	case zerolog.FatalLevel:
		return "fatal"
	}
	return "info"
}

// Package logging provides the structured logger threaded through every
// constructor in this module, mirroring the small zap-backed wrapper the
// teacher repository keeps around go.uber.org/zap.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging severity, serializable to/from its lowercase name.
type Level int8

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "debug"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	default:
		return "unknown"
	}
}

// LevelFromString parses a level name, accepting "warning" as an alias for
// WARN the way common logging frontends do.
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger is the sugared logging surface used throughout this module.
type Logger struct {
	*zap.SugaredLogger
	name string
}

// NewLogger builds a production logger at the given level, writing
// human-readable console output with caller information.
func NewLogger(name string, level Level) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	z, err := cfg.Build()
	if err != nil {
		// Config literal above is static and always valid; fall back rather
		// than panic if the zap internals ever change shape.
		z = zap.NewExample()
	}
	return &Logger{SugaredLogger: z.Sugar().Named(name), name: name}
}

// NewTestLogger returns a logger suitable for unit tests: synchronous,
// unbuffered, development-formatted.
func NewTestLogger() *Logger {
	z, err := zap.NewDevelopment()
	if err != nil {
		z = zap.NewExample()
	}
	return &Logger{SugaredLogger: z.Sugar(), name: "test"}
}

// Named returns a derived logger scoped under an additional name segment,
// e.g. the per-robot loggers a Fleet Coordinator hands to each handle.
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name), name: l.name + "." + name}
}

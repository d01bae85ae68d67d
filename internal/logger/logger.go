package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Options configures the process logger.
type Options struct {
	Level string
	// File enables a rotating log file next to the console output. Empty disables it.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	return Init(Options{Level: level})
}

// Init is Get with file rotation settings. Only the first call takes effect.
func Init(opts Options) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(opts)
	})
	return globalLogger
}

// Nop returns a logger that discards everything. Used by tests and optional wiring.
func Nop() *Logger {
	return newNopLogger()
}

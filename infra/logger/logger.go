package logger

import corelogger "github.com/kilianp07/svitlo/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards all output.
type NopLogger = corelogger.Nop

// New returns a Logger tagged with component. The output format follows
// APP_ENV and the level follows the last SetLevel call.
func New(component string) Logger {
	return NewZerologLogger(component)
}

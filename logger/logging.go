// Package logger provides the small debug-logging interface every
// subsystem in this module takes by constructor injection, instead of
// reaching for a global logger.
package logger

import "log"

// DebugLogger is implemented by anything that wants to observe the
// servent's internal chatter. Subsystems never log directly to the
// standard logger; they always go through one of these.
type DebugLogger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NullLogger is the default logger used when a caller doesn't supply
// one. It still forwards to the standard logger so that Errorf-level
// problems aren't silently swallowed; use StdLogger for full verbosity.
type NullLogger struct{}

func (l *NullLogger) Debugf(format string, args ...interface{}) {}
func (l *NullLogger) Infof(format string, args ...interface{})  {}
func (l *NullLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}

// StdLogger forwards every level to a *log.Logger, tagging each line
// with its level the way the teacher's original NullLogger did.
type StdLogger struct {
	L *log.Logger
}

func (l *StdLogger) Debugf(format string, args ...interface{}) {
	l.logger().Printf("[DEBUG] "+format, args...)
}
func (l *StdLogger) Infof(format string, args ...interface{}) {
	l.logger().Printf("[INFO] "+format, args...)
}
func (l *StdLogger) Errorf(format string, args ...interface{}) {
	l.logger().Printf("[ERROR] "+format, args...)
}

func (l *StdLogger) logger() *log.Logger {
	if l.L == nil {
		return log.Default()
	}
	return l.L
}

// Package stdlogger adapts the global zerolog logger to printf style logger interfaces
// of third party libraries, gorm among them.
package stdlogger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger writes printf style messages to the global zerolog logger.
type Logger struct {
	component string
}

// New returns a logger tagging every message with component.
func New(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	e := log.WithLevel(level)
	if l.component != "" {
		e = e.Str("component", l.component)
	}

	return e
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.event(zerolog.DebugLevel).Msgf(format, args...)
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.event(zerolog.InfoLevel).Msgf(format, args...)
}

// Warningf logs at warn level.
func (l *Logger) Warningf(format string, args ...any) {
	l.event(zerolog.WarnLevel).Msgf(format, args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.event(zerolog.ErrorLevel).Msgf(format, args...)
}

// Printf implements the gorm logger writer. gorm prints multi line messages, the
// lines are joined so every statement stays one log event.
func (l *Logger) Printf(format string, args ...any) {
	e := l.event(zerolog.WarnLevel)
	if e == nil {
		return
	}

	e.Msg(strings.ReplaceAll(strings.TrimSpace(fmt.Sprintf(format, args...)), "\n", " "))
}

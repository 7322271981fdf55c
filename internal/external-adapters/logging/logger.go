// Package logging adapts go-logr/logr to the domain Logger interface.
package logging

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/ochairo/artifetch/internal/domain/interfaces"
)

// DebugLevel is the logr verbosity used for Debug messages
const DebugLevel = 1

// Logger implements interfaces.Logger on top of a logr.Logger
type Logger struct {
	log logr.Logger
}

// NewLogger wraps an existing logr.Logger
func NewLogger(log logr.Logger) *Logger {
	return &Logger{log: log}
}

// NewWriterLogger logs key/value lines to w. Debug messages are emitted only
// when verbose is set.
func NewWriterLogger(w io.Writer, verbose bool) *Logger {
	verbosity := 0
	if verbose {
		verbosity = DebugLevel
	}

	sink := funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})

	return NewLogger(sink)
}

// Debug logs at V(1)
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.log.V(DebugLevel).Info(msg, keysAndValues(fields)...)
}

// Info logs at V(0)
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.log.Info(msg, keysAndValues(fields)...)
}

// Warn logs at V(0) tagged with severity=warning, logr has no warning level
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.log.Info(msg, append([]interface{}{"severity", "warning"}, keysAndValues(fields)...)...)
}

// Error logs through logr's error path. A field holding an error under the
// key "error" becomes the logged error.
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	var err error
	rest := make([]interfaces.Field, 0, len(fields))
	for _, f := range fields {
		if e, ok := f.Value.(error); ok && f.Key == "error" && err == nil {
			err = e
			continue
		}
		rest = append(rest, f)
	}
	l.log.Error(err, msg, keysAndValues(rest)...)
}

func keysAndValues(fields []interfaces.Field) []interface{} {
	kv := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

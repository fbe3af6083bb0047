// Package tracelog provides the structured execution logger used in place
// of the teacher's bare fmt.Println/log.Println debug calls. Log is a
// package-level logrus.Logger so every package can log through one
// configured sink without threading a logger reference everywhere.
package tracelog

import "github.com/sirupsen/logrus"

// Log is the shared logger. Callers that want trace-level per-instruction
// logging should check ExecutionPolicy.Trace before calling Log.Trace/Debug
// themselves; Log's own level defaults to logrus' default (Info) so it
// stays quiet unless the caller raises it.
var Log = logrus.New()

// SetLevel adjusts the shared logger's verbosity, e.g. raising it to
// logrus.TraceLevel when an ExecutionPolicy asks for instruction tracing.
func SetLevel(level logrus.Level) {
	Log.SetLevel(level)
}

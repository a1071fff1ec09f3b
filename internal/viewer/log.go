package viewer

import (
	"fmt"
	"strings"
)

// DiagnosticLog accumulates compiler diagnostics and viewer notes for the
// user. It is never cleared.
type DiagnosticLog struct {
	b       strings.Builder
	version uint64
}

// Append adds s to the end of the log.
func (l *DiagnosticLog) Append(s string) {
	l.b.WriteString(s)
	l.version++
}

// Notef adds one formatted line.
func (l *DiagnosticLog) Notef(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...) + "\n")
}

// String returns the whole log.
func (l *DiagnosticLog) String() string {
	return l.b.String()
}

// Len returns the log size in bytes.
func (l *DiagnosticLog) Len() int {
	return l.b.Len()
}

// Version increases with every Append, so readers can tell when to redraw.
func (l *DiagnosticLog) Version() uint64 {
	return l.version
}

// Package diag implements the process-wide diagnostic channel behind
// GetLog/ClearLog: an append-only list of unstructured lines describing
// skipped table lines and aborted messages. It is shared mutable state, so
// it guards its slice with a mutex rather than assuming single-threaded
// callers.
package diag

import "sync"

// Log is a concurrency-safe, append-only diagnostic line buffer.
type Log struct {
	mu    sync.Mutex
	lines []string
}

// Global is the process-wide diagnostic channel backing the package-level
// GetLog/ClearLog convenience wrappers.
var Global = &Log{}

// Add appends a formatted diagnostic line.
func (l *Log) Add(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

// Lines returns a snapshot of the accumulated diagnostic lines.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.lines))
	copy(out, l.lines)

	return out
}

// Clear discards all accumulated diagnostic lines.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = l.lines[:0]
}

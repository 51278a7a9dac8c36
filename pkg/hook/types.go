package hook

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Stream identifies the origin of a captured line. Values match the POSIX
// file descriptor numbers.
type Stream int

const (
	Stdout Stream = 1
	Stderr Stream = 2
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	}
	return "unknown"
}

// Line is one captured line tagged with its origin stream
type Line struct {
	Stream Stream `json:"stream"`
	Text   string `json:"text"`
}

// Record accumulates the stream-tagged output of one captured
// implementation. It is append-only while the harness runs, read-only once
// handed to middleware, and released by the engine after the middleware
// call returns. A released record drops its lines and ignores appends.
type Record struct {
	mu       sync.Mutex
	lines    []Line
	released bool
}

// NewRecord returns an empty record
func NewRecord() *Record {
	return &Record{}
}

// Append adds one line tagged with its origin stream. Appends to a released
// record are dropped.
func (r *Record) Append(stream Stream, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.lines = append(r.lines, Line{Stream: stream, Text: text})
}

// Lines returns a copy of the captured lines in observed order
func (r *Record) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len returns the number of captured lines
func (r *Record) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

// Replay writes stdout-tagged lines to stdout and stderr-tagged lines to
// stderr, verbatim and in observed order, one line per write
func (r *Record) Replay(stdout, stderr io.Writer) error {
	for _, line := range r.Lines() {
		w := stdout
		if line.Stream == Stderr {
			w = stderr
		}
		if _, err := fmt.Fprintln(w, line.Text); err != nil {
			return fmt.Errorf("failed to replay %s line: %w", line.Stream, err)
		}
	}
	return nil
}

// Release drops the captured lines. The engine calls this after the
// record's middleware call returns; middleware that needs the data longer
// must copy it.
func (r *Record) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
	r.lines = nil
}

// String renders one line per entry prefixed with the origin stream's
// descriptor number, e.g. "1: compiling"
func (r *Record) String() string {
	var b strings.Builder
	for _, line := range r.Lines() {
		fmt.Fprintf(&b, "%d: %s\n", int(line.Stream), line.Text)
	}
	return b.String()
}

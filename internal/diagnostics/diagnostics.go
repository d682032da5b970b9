// Package diagnostics is magellan's bounded, ordered, mutex-guarded
// diagnostics stream (spec §9: "a bounded, ordered writer (stderr is
// fine) rather than exceptions in hot paths"), adapted from the
// teacher's internal/debug writer to carry structured records instead of
// free-form printf lines.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Stage identifies which pipeline stage raised a diagnostic.
type Stage string

const (
	StagePathValidation Stage = "path_validation"
	StageRead           Stage = "read"
	StageExtract        Stage = "extract"
	StageReconcile      Stage = "reconcile"
	StageResolve        Stage = "resolve"
)

// Diagnostic is one structured, non-fatal event surfaced during indexing.
// Per-file diagnostics are recovered locally (spec §4.10, §7): they are
// logged and counted, never allowed to abort a batch.
type Diagnostic struct {
	Path    string    `json:"path,omitempty"`
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Stream is a thread-safe, ordered sink for diagnostics. Writes are
// serialized behind a single mutex so concurrent scanner workers never
// interleave partial lines (mirrors the teacher's debugMutex-guarded
// writer).
type Stream struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStderr returns a Stream writing newline-delimited JSON to stderr.
func NewStderr() *Stream {
	return &Stream{out: os.Stderr}
}

// New returns a Stream writing to an arbitrary writer (tests typically
// pass a bytes.Buffer).
func New(w io.Writer) *Stream {
	return &Stream{out: w}
}

// Emit records one diagnostic. Marshal failures are swallowed: a
// diagnostics stream must never be a new source of fatal errors.
func (s *Stream) Emit(d Diagnostic) {
	if s == nil || s.out == nil {
		return
	}
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	line, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, string(line))
}

// Emitf is a convenience wrapper building a Diagnostic's Message via
// fmt.Sprintf.
func (s *Stream) Emitf(stage Stage, path, format string, args ...any) {
	s.Emit(Diagnostic{Path: path, Stage: stage, Message: fmt.Sprintf(format, args...)})
}

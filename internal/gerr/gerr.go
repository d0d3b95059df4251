// Package gerr holds the error types used across lalrgen's grammar analysis
// pipeline. It distinguishes diagnostics that accumulate during a batch
// compile (lexical/semantic grammar errors, reported at the end) from fatal
// host errors (I/O, memory) that abort the run immediately.
//
// It is a small Error type with one or more causes, compatible with
// errors.Is, plus a handful of sentinel errors for the cases callers need
// to switch on.
package gerr

import (
	"errors"
	"fmt"
)

var (
	// ErrFatal marks a host-level failure (file I/O, memory) that should
	// terminate the program immediately rather than accumulate.
	ErrFatal = errors.New("fatal error")

	// ErrGrammar marks an accumulating grammar diagnostic: the pipeline
	// keeps going to surface as many as possible, per spec.
	ErrGrammar = errors.New("grammar error")
)

// Diagnostic is a single grammar error or warning tagged with the source
// line it was raised at. It is compatible with errors.Is against ErrFatal
// or ErrGrammar depending on how it was constructed.
type Diagnostic struct {
	msg   string
	line  int
	fatal bool
	cause error
}

// Line returns the 1-indexed source line the diagnostic refers to, or 0 if
// it isn't tied to a specific line (e.g. a missing-file error).
func (d *Diagnostic) Line() int {
	return d.line
}

func (d *Diagnostic) Error() string {
	if d.line > 0 {
		return fmt.Sprintf("line %d: %s", d.line, d.msg)
	}
	return d.msg
}

func (d *Diagnostic) Unwrap() error {
	if d.fatal {
		return ErrFatal
	}
	return ErrGrammar
}

func (d *Diagnostic) Is(target error) bool {
	if d.cause != nil && errors.Is(d.cause, target) {
		return true
	}
	if target == ErrFatal {
		return d.fatal
	}
	if target == ErrGrammar {
		return !d.fatal
	}
	return false
}

// At returns a new grammar-error Diagnostic for the given source line.
func At(line int, format string, a ...interface{}) *Diagnostic {
	return &Diagnostic{msg: fmt.Sprintf(format, a...), line: line}
}

// Fatalf returns a new fatal Diagnostic not tied to a particular line.
func Fatalf(format string, a ...interface{}) *Diagnostic {
	return &Diagnostic{msg: fmt.Sprintf(format, a...), fatal: true}
}

// Wrap returns a new grammar-error Diagnostic for the given line that wraps
// cause; errors.Is(d, cause) will be true in addition to errors.Is(d,
// ErrGrammar).
func Wrap(line int, cause error, format string, a ...interface{}) *Diagnostic {
	return &Diagnostic{msg: fmt.Sprintf(format, a...), line: line, cause: cause}
}

// List accumulates diagnostics raised during a pipeline run and keeps a
// running conflict count separate from the error count, since conflicts
// and grammar errors are reported and counted independently.
type List struct {
	diags       []*Diagnostic
	conflictCnt int
}

// Add appends a diagnostic to the list.
func (l *List) Add(d *Diagnostic) {
	l.diags = append(l.diags, d)
}

// AddConflict records one parsing conflict without an associated
// Diagnostic; conflicts are reported separately from errors.
func (l *List) AddConflict() {
	l.conflictCnt++
}

// Errors returns every accumulated grammar-level diagnostic (non-fatal).
func (l *List) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range l.diags {
		if !d.fatal {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of accumulated grammar errors.
func (l *List) Count() int {
	return len(l.Errors())
}

// Conflicts returns the number of parsing conflicts recorded.
func (l *List) Conflicts() int {
	return l.conflictCnt
}

// ExitStatus implements the "Exit status = errorcnt + conflictcnt" rule.
func (l *List) ExitStatus() int {
	return l.Count() + l.conflictCnt
}

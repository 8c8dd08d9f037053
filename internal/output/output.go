// Package output provides formatted diagnostic output for the probing,
// extraction, and persistence layers of kitscan.
package output

import (
	"fmt"
	"io"
	"os"
)

// Writer handles diagnostic output formatting. Every place the
// specification says a condition is "logged" routes through a Writer; the
// zero value is usable and writes to stdout/stderr without color.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
}

// New creates a Writer that writes to stdout/stderr, colorizing output if
// stdout is a terminal.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: isTerminal(),
	}
}

// NewWithWriters creates a Writer with custom io.Writers, for testing.
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{out: out, err: err, color: color}
}

// SetQuiet enables or disables quiet mode; quiet suppresses Info/Success
// but never suppresses Warning/Error.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

func (w *Writer) stdout() io.Writer {
	if w == nil || w.out == nil {
		return os.Stdout
	}
	return w.out
}

func (w *Writer) stderr() io.Writer {
	if w == nil || w.err == nil {
		return os.Stderr
	}
	return w.err
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout(), format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr(), format+"\n", args...)
}

// Info prints an informational message, skipped in quiet mode.
func (w *Writer) Info(format string, args ...interface{}) {
	if w == nil || w.quiet {
		return
	}
	w.Println(format, args...)
}

// Warning prints a warning to stderr. Warnings are never suppressed by
// quiet mode; the specification treats most recoverable failures as
// warnings rather than errors.
func (w *Writer) Warning(format string, args ...interface{}) {
	if w.colorEnabled() {
		w.Errorln("\033[33mwarning: "+format+"\033[0m", args...)
	} else {
		w.Errorln("warning: "+format, args...)
	}
}

// Error prints an error to stderr. Never suppressed.
func (w *Writer) Error(format string, args ...interface{}) {
	if w.colorEnabled() {
		w.Errorln("\033[31merror: "+format+"\033[0m", args...)
	} else {
		w.Errorln("error: "+format, args...)
	}
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...interface{}) {
	if w == nil || w.quiet {
		return
	}
	if w.colorEnabled() {
		w.Println("\033[32m"+format+"\033[0m", args...)
	} else {
		w.Println(format, args...)
	}
}

func (w *Writer) colorEnabled() bool {
	return w != nil && w.color
}

// isTerminal returns true if stdout is a terminal.
func isTerminal() bool {
	if fi, _ := os.Stdout.Stat(); fi != nil {
		return (fi.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

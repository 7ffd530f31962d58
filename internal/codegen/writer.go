package codegen

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const indentWidth = 2

// Writer is the ordered output sink shared by every emitter of one compile.
// Each line is written with an explicit indentation depth. The first I/O
// error is kept and every later write becomes a no-op; callers poll Err at
// statement boundaries.
type Writer struct {
	w     *bufio.Writer
	err   error
	lines int
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Line writes text as one line at the given depth.
func (w *Writer) Line(depth int, text string) {
	if w.err != nil {
		return
	}
	if text != "" {
		if _, err := w.w.WriteString(strings.Repeat(" ", depth*indentWidth)); err != nil {
			w.err = err
			return
		}
		if _, err := w.w.WriteString(text); err != nil {
			w.err = err
			return
		}
	}
	if err := w.w.WriteByte('\n'); err != nil {
		w.err = err
		return
	}
	w.lines++
}

// Linef formats a line with fmt.Sprintf and writes it at the given depth.
func (w *Writer) Linef(depth int, format string, args ...any) {
	w.Line(depth, fmt.Sprintf(format, args...))
}

// Blank writes an empty line.
func (w *Writer) Blank() {
	w.Line(0, "")
}

// Raw writes a multi-line block verbatim, one sink line per input line.
func (w *Writer) Raw(depth int, block string) {
	for _, l := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		w.Line(depth, l)
	}
}

// Lines reports how many lines have been written.
func (w *Writer) Lines() int { return w.lines }

func (w *Writer) Err() error { return w.err }

// Flush pushes buffered output to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

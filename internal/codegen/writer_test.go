package codegen

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriterIndentsLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Line(0, "if (x) {")
	w.Linef(1, "return %d;", 1)
	w.Blank()
	w.Line(0, "}")
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := "if (x) {\n  return 1;\n\n}\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output\n got: %q\nwant: %q", got, want)
	}
	if w.Lines() != 4 {
		t.Fatalf("Lines() = %d, want 4", w.Lines())
	}
}

func TestWriterLeavesPercentAlone(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Line(0, "x % y;")
	w.Linef(1, "%s %% %s;", "a", "b")
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := buf.String(); got != "x % y;\n  a % b;\n" {
		t.Fatalf("got %q", got)
	}
}

func TestWriterRawSplitsBlock(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Raw(1, "a\nb\n")
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := buf.String(); got != "  a\n  b\n" {
		t.Fatalf("got %q", got)
	}
}

var errBoom = errors.New("boom")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errBoom }

func TestWriterErrorIsSticky(t *testing.T) {
	w := NewWriter(failingWriter{})
	w.Line(0, "one")
	if err := w.Flush(); !errors.Is(err, errBoom) {
		t.Fatalf("Flush error = %v, want %v", err, errBoom)
	}
	w.Line(0, "two")
	if !errors.Is(w.Err(), errBoom) {
		t.Fatalf("Err() = %v after failure", w.Err())
	}
	if w.Lines() != 1 {
		t.Fatalf("Lines() = %d, want writes to stop after the failure", w.Lines())
	}
}

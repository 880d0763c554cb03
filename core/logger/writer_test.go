package logger

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterFansOutAndFlushes(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	w := newAsyncWriter([]io.Writer{a, nil, b}, 16)
	for _, line := range []string{"one\n", "two\n", "three\n"} {
		if err := w.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if a.String() != "one\ntwo\nthree\n" || b.String() != a.String() {
		t.Fatalf("sinks = %q / %q", a.String(), b.String())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write([]byte("late\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("write after close = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAsyncWriterReportsSinkError(t *testing.T) {
	w := newAsyncWriter([]io.Writer{failingWriter{}}, 1)
	_ = w.Write([]byte(strings.Repeat("x", 8)))
	if err := w.Close(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("close = %v", err)
	}
}

func TestSummarizeStrings(t *testing.T) {
	if s, cut := SummarizeStrings([]string{"cat", "dog"}, 5); s != "cat, dog" || cut {
		t.Fatalf("short = %q, %v", s, cut)
	}
	if s, cut := SummarizeStrings([]string{"a", "b", "c"}, 2); s != "a, b, +1" || !cut {
		t.Fatalf("cut = %q, %v", s, cut)
	}
	if s, cut := SummarizeStrings(nil, 2); s != "" || cut {
		t.Fatalf("empty = %q, %v", s, cut)
	}
}

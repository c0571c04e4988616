package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, false)

	l.Debug("hidden")
	l.Info("started", String("path", "a.pdf"))
	l.Warn("slow")
	l.Error("boom", Error("error", errors.New("bad xref")))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("debug line emitted while debug disabled")
	}
	for _, want := range []string{"INFO started path=a.pdf", "WARN slow", "ERROR boom error=bad xref"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestWriterLoggerDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, true)
	l.Debug("visible", Int("n", 3))
	if !strings.Contains(buf.String(), "DEBUG visible n=3") {
		t.Fatalf("debug line missing:\n%s", buf.String())
	}
}

func TestWriterLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf, false)
	child := l.With(String("doc", "in.pdf"))

	child.Info("parsed", Int("objects", 12))
	l.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "doc=in.pdf") || !strings.Contains(lines[0], "objects=12") {
		t.Fatalf("child lost bound fields: %s", lines[0])
	}
	if strings.Contains(lines[1], "doc=") {
		t.Fatalf("parent inherited child fields: %s", lines[1])
	}
}

func TestLogTracerSpanLifecycle(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewLogTracer(NewWriterLogger(&buf, true))

	_, span := tracer.StartSpan(context.Background(), "merge")
	span.SetTag("documents", 2)
	span.Finish()

	out := buf.String()
	for _, want := range []string{"span started", "span=merge", "span tag", "key=documents", "span finished"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in trace output:\n%s", want, out)
		}
	}
}

func TestLogTracerSpanIDsDiffer(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewLogTracer(NewWriterLogger(&buf, true))

	_, a := tracer.StartSpan(context.Background(), "merge")
	_, b := tracer.StartSpan(context.Background(), "merge")
	a.Finish()
	b.Finish()

	ids := map[string]bool{}
	for _, line := range strings.Split(buf.String(), "\n") {
		if i := strings.Index(line, "span_id="); i >= 0 {
			id := line[i+len("span_id="):]
			if j := strings.IndexByte(id, ' '); j >= 0 {
				id = id[:j]
			}
			ids[id] = true
		}
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 distinct span ids, got %d", len(ids))
	}
}

func TestLogTracerSpanError(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewLogTracer(NewWriterLogger(&buf, false))

	_, span := tracer.StartSpan(context.Background(), "parse")
	span.SetError(errors.New("missing trailer"))
	span.Finish()

	out := buf.String()
	if !strings.Contains(out, "ERROR span failed") || !strings.Contains(out, "missing trailer") {
		t.Fatalf("failed span not reported:\n%s", out)
	}
}

func TestNopImplementationsAreSafe(t *testing.T) {
	l := NopLogger{}
	l.Debug("x")
	l.Info("x", Int("a", 1))
	l.Warn("x")
	l.Error("x")
	if child := l.With(String("k", "v")); child == nil {
		t.Fatal("NopLogger.With returned nil")
	}

	tr := NopTracer()
	ctx, span := tr.StartSpan(context.Background(), "noop")
	if ctx == nil || span == nil {
		t.Fatal("NopTracer returned nils")
	}
	span.SetTag("k", "v")
	span.SetError(errors.New("ignored"))
	span.Finish()
}

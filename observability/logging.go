package observability

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WriterLogger writes one line per entry as "time level msg key=value ...".
// Safe for concurrent use.
type WriterLogger struct {
	mu     sync.Mutex
	out    io.Writer
	fields []Field
	debug  bool
}

// NewWriterLogger logs to out; debug enables Debug-level output.
func NewWriterLogger(out io.Writer, debug bool) *WriterLogger {
	return &WriterLogger{out: out, debug: debug}
}

func (l *WriterLogger) Debug(msg string, fields ...Field) {
	if l.debug {
		l.write("DEBUG", msg, fields)
	}
}
func (l *WriterLogger) Info(msg string, fields ...Field)  { l.write("INFO", msg, fields) }
func (l *WriterLogger) Warn(msg string, fields ...Field)  { l.write("WARN", msg, fields) }
func (l *WriterLogger) Error(msg string, fields ...Field) { l.write("ERROR", msg, fields) }

func (l *WriterLogger) With(fields ...Field) Logger {
	child := &WriterLogger{out: l.out, debug: l.debug}
	child.fields = append(append([]Field(nil), l.fields...), fields...)
	return child
}

func (l *WriterLogger) write(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s %s", time.Now().Format(time.RFC3339), level, msg)
	for _, f := range l.fields {
		fmt.Fprintf(l.out, " %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		fmt.Fprintf(l.out, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(l.out)
}

// LogTracer emits span lifecycle events through a Logger, tagging each span
// with a fresh uuid so concurrent merges stay distinguishable.
type LogTracer struct {
	logger Logger
}

func NewLogTracer(logger Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

func (t *LogTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	span := &logSpan{
		logger: t.logger,
		name:   name,
		id:     uuid.New().String(),
		start:  time.Now(),
	}
	span.logger.Debug("span started", String("span", name), String("span_id", span.id))
	return ctx, span
}

type logSpan struct {
	logger Logger
	name   string
	id     string
	start  time.Time
	err    error
}

func (s *logSpan) SetTag(key string, value interface{}) {
	s.logger.Debug("span tag",
		String("span", s.name),
		String("span_id", s.id),
		String("key", key),
		String("value", fmt.Sprintf("%v", value)))
}

func (s *logSpan) SetError(err error) { s.err = err }

func (s *logSpan) Finish() {
	fields := []Field{
		String("span", s.name),
		String("span_id", s.id),
		Int64("duration_ms", time.Since(s.start).Milliseconds()),
	}
	if s.err != nil {
		s.logger.Error("span failed", append(fields, Error("error", s.err))...)
		return
	}
	s.logger.Debug("span finished", fields...)
}

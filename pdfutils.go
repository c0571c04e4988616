// Package pdfutils merges PDF documents. Each input is decoded into an
// object graph, the graphs are renumbered into disjoint identifier ranges
// and merged under a single catalog and page tree, then the result is
// compacted and encoded back to bytes.
//
//	merged, err := pdfutils.MergeDocuments(ctx, [][]byte{a, b})
//
// Inputs are never mutated; every call works on its own copies, so
// concurrent merges need no coordination.
package pdfutils

import (
	"context"
	"fmt"
	"os"

	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
	"github.com/Vibes-INS/ins-pdf-utils/merge"
	"github.com/Vibes-INS/ins-pdf-utils/observability"
	"github.com/Vibes-INS/ins-pdf-utils/optimize"
	"github.com/Vibes-INS/ins-pdf-utils/parser"
	"github.com/Vibes-INS/ins-pdf-utils/writer"
)

// Option configures a merge pipeline.
type Option func(*pipeline)

// WithLogger routes pipeline and merge logging to logger.
func WithLogger(logger observability.Logger) Option {
	return func(p *pipeline) { p.logger = logger }
}

// WithTracer attaches tracing spans to the merge.
func WithTracer(tracer observability.Tracer) Option {
	return func(p *pipeline) { p.tracer = tracer }
}

type pipeline struct {
	logger observability.Logger
	tracer observability.Tracer
}

func newPipeline(opts []Option) *pipeline {
	p := &pipeline{
		logger: observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MergeDocuments merges the given PDF buffers, in order, into one document.
// Input order defines output page order. An empty input is an error, not an
// empty document.
func MergeDocuments(ctx context.Context, buffers [][]byte, opts ...Option) ([]byte, error) {
	p := newPipeline(opts)

	if len(buffers) == 0 {
		return nil, merge.ErrNoDocuments
	}

	docParser := parser.NewDocumentParser(parser.Config{})
	docs := make([]*raw.Document, 0, len(buffers))
	for i, buf := range buffers {
		doc, err := docParser.ParseBytes(ctx, buf)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		p.logger.Debug("document decoded",
			observability.Int("index", i),
			observability.Int("objects", len(doc.Objects)))
		docs = append(docs, doc)
	}

	merged, err := merge.New(merge.Options{Logger: p.logger, Tracer: p.tracer}).Merge(ctx, docs)
	if err != nil {
		return nil, err
	}

	if _, err := merged.Renumber(1); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	if err := optimize.New(optimize.DefaultConfig()).Optimize(ctx, merged); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	out, err := writer.Encode(ctx, merged)
	if err != nil {
		return nil, err
	}
	p.logger.Info("merge encoded", observability.Int("bytes", len(out)))
	return out, nil
}

// MergeFiles reads each path and merges the documents in argument order.
func MergeFiles(ctx context.Context, paths []string, opts ...Option) ([]byte, error) {
	buffers := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		buffers = append(buffers, data)
	}
	return MergeDocuments(ctx, buffers, opts...)
}

// Package merge consolidates independently parsed PDF object graphs into a
// single document under one catalog and one page tree.
package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
	"github.com/Vibes-INS/ins-pdf-utils/observability"
)

var (
	// ErrNoDocuments reports an empty input sequence.
	ErrNoDocuments = errors.New("no documents to merge")
	// ErrMissingPagesRoot reports that no Pages-typed object exists in any input.
	ErrMissingPagesRoot = errors.New("pages root not found")
	// ErrMissingCatalogRoot reports that no Catalog-typed object exists in any input.
	ErrMissingCatalogRoot = errors.New("catalog root not found")
)

// OutputVersion is the PDF version stamped on merged documents.
const OutputVersion = "1.5"

type Options struct {
	Logger observability.Logger
	Tracer observability.Tracer
}

// Merger merges document graphs. The zero value is usable; Options only add
// observability hooks.
type Merger struct {
	logger observability.Logger
	tracer observability.Tracer
}

func New(opts Options) *Merger {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NopLogger{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	return &Merger{logger: logger, tracer: tracer}
}

// Merge is a convenience wrapper around a default Merger.
func Merge(ctx context.Context, docs []*raw.Document) (*raw.Document, error) {
	return New(Options{}).Merge(ctx, docs)
}

// Merge consolidates the given graphs, in order, into one new document.
// Inputs are cloned and renumbered into disjoint identifier ranges first, so
// callers keep ownership of what they passed in. The result holds every
// non-structural object of every input, a single rebuilt page tree listing
// all pages in input order, and a single catalog as trailer root.
func (m *Merger) Merge(ctx context.Context, docs []*raw.Document) (*raw.Document, error) {
	ctx, span := m.tracer.StartSpan(ctx, "merge")
	defer span.Finish()
	span.SetTag("documents", len(docs))

	if len(docs) == 0 {
		span.SetError(ErrNoDocuments)
		return nil, ErrNoDocuments
	}

	// Renumber each clone from the running next-free id so identifiers never
	// collide across inputs.
	var pages []raw.PageEntry
	objects := make(map[raw.ObjectRef]raw.Object)
	nextID := 1
	for i, doc := range docs {
		clone := doc.Clone()
		next, err := clone.Renumber(nextID)
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		nextID = next

		harvested := clone.Pages()
		pages = append(pages, harvested...)
		for ref, obj := range clone.Objects {
			objects[ref] = obj
		}
		m.logger.Debug("document renumbered",
			observability.Int("index", i),
			observability.Int("objects", len(clone.Objects)),
			observability.Int("pages", len(harvested)))
	}

	out := raw.NewDocument(OutputVersion)
	acc := newAccumulator()

	refs := make([]raw.ObjectRef, 0, len(objects))
	for ref := range objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Num != refs[j].Num {
			return refs[i].Num < refs[j].Num
		}
		return refs[i].Gen < refs[j].Gen
	})

	// Classification pass: structural roots feed the accumulator, pages are
	// reinserted from the harvested list below, outlines are dropped, and
	// everything else passes through verbatim.
	for _, ref := range refs {
		obj := objects[ref]
		switch raw.TagOf(obj) {
		case raw.TagCatalog:
			acc.observeCatalog(ref, obj)
		case raw.TagPages:
			acc.observePages(ref, obj)
		case raw.TagPage, raw.TagOutlines:
			// skipped; pages return below, outlines are unsupported
		default:
			out.Objects[ref] = obj
		}
	}

	if !acc.havePages {
		span.SetError(ErrMissingPagesRoot)
		return nil, ErrMissingPagesRoot
	}
	if !acc.haveCatalog {
		span.SetError(ErrMissingCatalogRoot)
		return nil, ErrMissingCatalogRoot
	}

	// Rebuild the page tree: every harvested page reparents onto the single
	// root Pages node, in harvested order.
	kids := raw.NewArray()
	for _, entry := range pages {
		dict, ok := entry.Obj.(*raw.DictObj)
		if !ok {
			continue
		}
		dict.Set(raw.NameLiteral("Parent"), raw.RefObj{R: acc.pagesRef})
		out.Objects[entry.Ref] = dict
		kids.Append(raw.RefObj{R: entry.Ref})
	}
	acc.pagesDict.Set(raw.NameLiteral("Count"), raw.NumberInt(int64(kids.Len())))
	acc.pagesDict.Set(raw.NameLiteral("Kids"), kids)
	out.Objects[acc.pagesRef] = acc.pagesDict

	acc.catalogDict.Set(raw.NameLiteral("Pages"), raw.RefObj{R: acc.pagesRef})
	acc.catalogDict.Delete(raw.NameLiteral("Outlines")) // not carried into merged output
	out.Objects[acc.catalogRef] = acc.catalogDict

	out.SetRoot(acc.catalogRef)
	// Provisional value; the finalizer renumbers contiguously from 1 anyway.
	out.MaxID = len(out.Objects)

	m.logger.Info("documents merged",
		observability.Int("documents", len(docs)),
		observability.Int("pages", kids.Len()),
		observability.Int("objects", len(out.Objects)))
	span.SetTag("pages", kids.Len())
	return out, nil
}

package merge

import "github.com/Vibes-INS/ins-pdf-utils/ir/raw"

// accumulator folds the structural roots of the classified object stream.
// The first Catalog and first Pages identities seen anchor the merged
// document; field precedence is explicit in the observe methods.
type accumulator struct {
	haveCatalog bool
	catalogRef  raw.ObjectRef
	catalogDict *raw.DictObj

	havePages bool
	pagesRef  raw.ObjectRef
	pagesDict *raw.DictObj
}

func newAccumulator() *accumulator {
	return &accumulator{}
}

// observeCatalog keeps the first-seen identity as the root anchor. The
// dictionary tracks the most recent occurrence; its Pages and Outlines
// entries are overwritten during finalization, so earlier and later catalog
// bodies only differ in ancillary fields.
func (a *accumulator) observeCatalog(ref raw.ObjectRef, obj raw.Object) {
	dict := asDict(obj)
	if dict == nil {
		return
	}
	if !a.haveCatalog {
		a.haveCatalog = true
		a.catalogRef = ref
	}
	a.catalogDict = dict.Clone()
}

// observePages merges Pages dictionaries with first-seen-wins precedence:
// the running accumulator's fields survive, later documents only contribute
// keys not already present. Kids and Count are discarded here; the merge
// rebuilds them from the harvested page list.
func (a *accumulator) observePages(ref raw.ObjectRef, obj raw.Object) {
	dict := asDict(obj)
	if dict == nil {
		return
	}
	incoming := dict.Clone()
	incoming.Delete(raw.NameLiteral("Kids"))
	incoming.Delete(raw.NameLiteral("Count"))
	if !a.havePages {
		a.havePages = true
		a.pagesRef = ref
		a.pagesDict = incoming
		return
	}
	a.pagesDict.Merge(incoming)
}

func asDict(obj raw.Object) *raw.DictObj {
	switch o := obj.(type) {
	case *raw.DictObj:
		return o
	case *raw.StreamObj:
		return o.Dict
	default:
		return nil
	}
}

package optimize

import "github.com/Vibes-INS/ins-pdf-utils/ir/raw"

// pruneUnreachable drops objects the trailer cannot reach. Merging leaves
// behind per-document structural leftovers (old info dictionaries, orphaned
// subtrees); pruning keeps only what the merged root still references.
func (o *Optimizer) pruneUnreachable(doc *raw.Document) {
	if doc.Trailer == nil {
		return
	}
	reachable := make(map[raw.ObjectRef]bool)
	var visit func(obj raw.Object)
	visit = func(obj raw.Object) {
		switch v := obj.(type) {
		case raw.RefObj:
			if reachable[v.R] {
				return
			}
			reachable[v.R] = true
			if target, ok := doc.Objects[v.R]; ok {
				visit(target)
			}
		case *raw.ArrayObj:
			for _, it := range v.Items {
				visit(it)
			}
		case *raw.DictObj:
			for _, val := range v.KV {
				visit(val)
			}
		case *raw.StreamObj:
			if v.Dict != nil {
				visit(v.Dict)
			}
		}
	}
	visit(doc.Trailer)

	for ref := range doc.Objects {
		if !reachable[ref] {
			delete(doc.Objects, ref)
		}
	}
}

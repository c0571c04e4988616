package raw

// PageEntry pairs a leaf page with its indirect reference. Harvested order
// is the document's own page order.
type PageEntry struct {
	Ref ObjectRef
	Obj Object
}

// Pages traverses the page tree from the trailer root and returns all leaf
// pages in tree order. Documents without a usable catalog or page tree yield
// an empty slice; they simply contribute no pages.
func (d *Document) Pages() []PageEntry {
	rootRef, ok := d.Root()
	if !ok {
		return nil
	}
	catalog, _ := d.Resolve(RefObj{R: rootRef}).(*DictObj)
	if catalog == nil {
		return nil
	}
	pagesObj, ok := catalog.Get(NameLiteral("Pages"))
	if !ok {
		return nil
	}
	pagesRef, ok := pagesObj.(RefObj)
	if !ok {
		return nil
	}
	visited := make(map[ObjectRef]bool)
	return d.collectPages(pagesRef.R, visited, nil)
}

func (d *Document) collectPages(ref ObjectRef, visited map[ObjectRef]bool, out []PageEntry) []PageEntry {
	if visited[ref] {
		return out
	}
	visited[ref] = true

	obj, ok := d.Objects[ref]
	if !ok {
		return out
	}
	switch TagOf(obj) {
	case TagPage:
		return append(out, PageEntry{Ref: ref, Obj: obj})
	case TagPages:
	default:
		// Malformed trees sometimes omit /Type on leaves; treat a dict
		// without /Kids as a page.
		dict, isDict := obj.(*DictObj)
		if !isDict {
			return out
		}
		if _, hasKids := dict.Get(NameLiteral("Kids")); !hasKids {
			return append(out, PageEntry{Ref: ref, Obj: obj})
		}
	}

	dict, isDict := obj.(*DictObj)
	if !isDict {
		return out
	}
	kidsObj, ok := dict.Get(NameLiteral("Kids"))
	if !ok {
		return out
	}
	kids, ok := d.Resolve(kidsObj).(*ArrayObj)
	if !ok {
		return out
	}
	for _, kid := range kids.Items {
		kidRef, ok := kid.(RefObj)
		if !ok {
			continue
		}
		out = d.collectPages(kidRef.R, visited, out)
	}
	return out
}

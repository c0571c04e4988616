package raw

import (
	"fmt"
	"sort"
)

// Document is the root container for raw PDF objects: the indirect-object
// table, the trailer dictionary, and the highest allocated object number.
type Document struct {
	Objects map[ObjectRef]Object
	Trailer *DictObj
	Version string // e.g., "1.7"
	MaxID   int
}

// NewDocument returns an empty document with the given PDF version.
func NewDocument(version string) *Document {
	return &Document{
		Objects: make(map[ObjectRef]Object),
		Trailer: Dict(),
		Version: version,
	}
}

// Root returns the trailer's /Root reference.
func (d *Document) Root() (ObjectRef, bool) {
	if d.Trailer == nil {
		return ObjectRef{}, false
	}
	obj, ok := d.Trailer.Get(NameLiteral("Root"))
	if !ok {
		return ObjectRef{}, false
	}
	ref, ok := obj.(RefObj)
	if !ok {
		return ObjectRef{}, false
	}
	return ref.R, true
}

// SetRoot points the trailer's /Root at the given object.
func (d *Document) SetRoot(ref ObjectRef) {
	if d.Trailer == nil {
		d.Trailer = Dict()
	}
	d.Trailer.Set(NameLiteral("Root"), RefObj{R: ref})
}

// Get looks up an indirect object by reference.
func (d *Document) Get(ref ObjectRef) (Object, bool) {
	obj, ok := d.Objects[ref]
	return obj, ok
}

// Resolve follows reference chains until a non-reference object or a missing
// target is reached. Chains deeper than the internal limit resolve to nil.
func (d *Document) Resolve(obj Object) Object {
	const maxDepth = 32
	for i := 0; i < maxDepth; i++ {
		ref, ok := obj.(RefObj)
		if !ok {
			return obj
		}
		next, ok := d.Objects[ref.R]
		if !ok {
			return nil
		}
		obj = next
	}
	return nil
}

// Refs returns all object references in ascending numeric order. Iterating
// in this order keeps graph transformations deterministic regardless of map
// iteration order.
func (d *Document) Refs() []ObjectRef {
	refs := make([]ObjectRef, 0, len(d.Objects))
	for ref := range d.Objects {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Num != refs[j].Num {
			return refs[i].Num < refs[j].Num
		}
		return refs[i].Gen < refs[j].Gen
	})
	return refs
}

// Clone deep-copies the document. The copy shares no objects with the
// original, so mutating one never affects the other.
func (d *Document) Clone() *Document {
	out := &Document{
		Objects: make(map[ObjectRef]Object, len(d.Objects)),
		Version: d.Version,
		MaxID:   d.MaxID,
	}
	for ref, obj := range d.Objects {
		out.Objects[ref] = CloneObject(obj)
	}
	if d.Trailer != nil {
		out.Trailer = d.Trailer.Clone()
	}
	return out
}

// Renumber reassigns every object a fresh contiguous number starting at
// startID, rewriting all references (including trailer entries) to match.
// Generation numbers are preserved. It returns the next free identifier,
// startID + object count.
//
// A reference to an object absent from the table is a precondition violation
// and fails the whole renumbering before anything is mutated.
func (d *Document) Renumber(startID int) (int, error) {
	refs := d.Refs()
	replace := make(map[ObjectRef]ObjectRef, len(refs))
	next := startID
	for _, ref := range refs {
		replace[ref] = ObjectRef{Num: next, Gen: ref.Gen}
		next++
	}

	for _, ref := range refs {
		if err := checkRefs(d.Objects[ref], replace); err != nil {
			return 0, fmt.Errorf("object %s: %w", ref, err)
		}
	}
	if d.Trailer != nil {
		if err := checkRefs(d.Trailer, replace); err != nil {
			return 0, fmt.Errorf("trailer: %w", err)
		}
	}

	objects := make(map[ObjectRef]Object, len(refs))
	for _, ref := range refs {
		objects[replace[ref]] = rewriteRefs(d.Objects[ref], replace)
	}
	d.Objects = objects
	if d.Trailer != nil {
		rewriteRefs(d.Trailer, replace)
	}
	d.MaxID = next - 1
	return next, nil
}

func checkRefs(obj Object, replace map[ObjectRef]ObjectRef) error {
	switch o := obj.(type) {
	case RefObj:
		if _, ok := replace[o.R]; !ok {
			return fmt.Errorf("dangling reference %s", o.R)
		}
	case *ArrayObj:
		for _, it := range o.Items {
			if err := checkRefs(it, replace); err != nil {
				return err
			}
		}
	case *DictObj:
		for _, v := range o.KV {
			if err := checkRefs(v, replace); err != nil {
				return err
			}
		}
	case *StreamObj:
		if o.Dict != nil {
			return checkRefs(o.Dict, replace)
		}
	}
	return nil
}

// rewriteRefs replaces references in place where possible; RefObj is a value
// type, so containers reassign their slots.
func rewriteRefs(obj Object, replace map[ObjectRef]ObjectRef) Object {
	switch o := obj.(type) {
	case RefObj:
		if to, ok := replace[o.R]; ok {
			return RefObj{R: to}
		}
		return o
	case *ArrayObj:
		for i, it := range o.Items {
			o.Items[i] = rewriteRefs(it, replace)
		}
		return o
	case *DictObj:
		for k, v := range o.KV {
			o.KV[k] = rewriteRefs(v, replace)
		}
		return o
	case *StreamObj:
		if o.Dict != nil {
			rewriteRefs(o.Dict, replace)
		}
		return o
	default:
		return obj
	}
}

package raw

import "fmt"

// ObjectRef uniquely identifies an indirect PDF object.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the base interface for all raw PDF objects.
type Object interface {
	Type() string
	IsIndirect() bool
}

// Dictionary represents a PDF dictionary object.
type Dictionary interface {
	Object
	Get(key Name) (Object, bool)
	Set(key Name, value Object)
	Keys() []Name
	Len() int
}

// Array represents a PDF array object.
type Array interface {
	Object
	Get(index int) (Object, bool)
	Len() int
	Append(obj Object)
}

// Stream represents a raw (undecoded) PDF stream.
type Stream interface {
	Object
	Dictionary() Dictionary
	RawData() []byte
	Length() int64
}

// Name represents a PDF name object.
type Name interface {
	Object
	Value() string
}

// String represents a PDF string (literal or hex).
type String interface {
	Object
	Value() []byte
	IsHex() bool
}

// Number represents a PDF numeric value.
type Number interface {
	Object
	Int() int64
	Float() float64
	IsInteger() bool
}

// Boolean represents a PDF boolean.
type Boolean interface {
	Object
	Value() bool
}

// Null represents the PDF null object.
type Null interface{ Object }

// Reference represents an indirect object reference.
type Reference interface {
	Object
	Ref() ObjectRef
}

// TypeTag is the structural role of an indirect object, decoded once from
// its /Type entry. The merge dispatches on this closed set instead of
// re-inspecting type names.
type TypeTag int

const (
	TagOther TypeTag = iota
	TagCatalog
	TagPages
	TagPage
	TagOutlines
)

func (t TypeTag) String() string {
	switch t {
	case TagCatalog:
		return "Catalog"
	case TagPages:
		return "Pages"
	case TagPage:
		return "Page"
	case TagOutlines:
		return "Outlines"
	default:
		return "Other"
	}
}

// TagOf classifies an object by its /Type name. Streams are classified by
// their stream dictionary; objects without a recognized /Type are TagOther.
func TagOf(obj Object) TypeTag {
	var dict Dictionary
	switch o := obj.(type) {
	case *DictObj:
		dict = o
	case *StreamObj:
		if o.Dict == nil {
			return TagOther
		}
		dict = o.Dict
	default:
		return TagOther
	}
	val, ok := dict.Get(NameLiteral("Type"))
	if !ok {
		return TagOther
	}
	name, ok := val.(NameObj)
	if !ok {
		return TagOther
	}
	switch name.Value() {
	case "Catalog":
		return TagCatalog
	case "Pages":
		return TagPages
	case "Page":
		return TagPage
	case "Outlines", "Outline":
		return TagOutlines
	default:
		return TagOther
	}
}

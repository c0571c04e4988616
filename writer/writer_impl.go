package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
)

type impl struct{}

func (w *impl) SerializeObject(ref raw.ObjectRef, obj raw.Object) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
	buf.Write(serializePrimitive(obj))
	buf.WriteString("\nendobj\n")
	return buf.Bytes(), nil
}

func (w *impl) Write(ctx context.Context, doc *raw.Document, out io.Writer) error {
	data, err := encodeDocument(ctx, doc)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func encodeDocument(ctx context.Context, doc *raw.Document) ([]byte, error) {
	if doc == nil {
		return nil, encodeErr(errors.New("nil document"))
	}
	if _, ok := doc.Root(); !ok {
		return nil, encodeErr(errors.New("document has no Root"))
	}

	version := doc.Version
	if version == "" {
		version = "1.5"
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-" + version + "\n%\xE2\xE3\xCF\xD3\n")

	w := &impl{}
	type xrefSlot struct {
		offset int64
		gen    int
	}
	slots := make(map[int]xrefSlot)
	ordered := doc.Refs()
	maxObjNum := 0
	for _, ref := range ordered {
		slots[ref.Num] = xrefSlot{offset: int64(buf.Len()), gen: ref.Gen}
		serialized, err := w.SerializeObject(ref, doc.Objects[ref])
		if err != nil {
			return nil, encodeErr(err)
		}
		buf.Write(serialized)
		if ref.Num > maxObjNum {
			maxObjNum = ref.Num
		}
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxObjNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxObjNum; i++ {
		// Entry generation must match the object header or readers that
		// validate headers reject the file.
		if slot, ok := slots[i]; ok {
			fmt.Fprintf(&buf, "%010d %05d n \n", slot.offset, slot.gen)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	trailer := raw.Dict()
	if doc.Trailer != nil {
		for _, key := range doc.Trailer.Keys() {
			// Stale cross-reference chaining entries vanish on rewrite.
			switch key.Value() {
			case "Prev", "XRefStm", "Size":
				continue
			}
			if v, ok := doc.Trailer.Get(key); ok {
				trailer.Set(key, v)
			}
		}
	}
	trailer.Set(raw.NameLiteral("Size"), raw.NumberInt(int64(maxObjNum+1)))

	buf.WriteString("trailer\n")
	buf.Write(serializePrimitive(trailer))
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes(), nil
}

func serializePrimitive(o raw.Object) []byte {
	switch v := o.(type) {
	case raw.NameObj:
		return serializeName(v.Val)
	case raw.NumberObj:
		if v.IsInteger() {
			return []byte(strconv.FormatInt(v.Int(), 10))
		}
		return []byte(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case raw.BoolObj:
		if v.Value() {
			return []byte("true")
		}
		return []byte("false")
	case raw.NullObj:
		return []byte("null")
	case raw.StringObj:
		return serializeString(v)
	case *raw.ArrayObj:
		var b bytes.Buffer
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.Write(serializePrimitive(it))
		}
		b.WriteByte(']')
		return b.Bytes()
	case *raw.DictObj:
		return serializeDict(v)
	case *raw.StreamObj:
		var b bytes.Buffer
		dict := v.Dict
		if dict == nil {
			dict = raw.Dict()
		}
		// Length always reflects the bytes actually written.
		dict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(v.Data))))
		b.Write(serializeDict(dict))
		b.WriteString("stream\n")
		b.Write(v.Data)
		b.WriteString("\nendstream")
		return b.Bytes()
	case raw.RefObj:
		return []byte(fmt.Sprintf("%d %d R", v.Ref().Num, v.Ref().Gen))
	default:
		return []byte("null")
	}
}

func serializeDict(v *raw.DictObj) []byte {
	var b bytes.Buffer
	b.WriteString("<<")
	keys := make([]string, 0, len(v.KV))
	for k := range v.KV {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Write(serializeName(k))
		b.WriteByte(' ')
		b.Write(serializePrimitive(v.KV[k]))
	}
	b.WriteString(">>")
	return b.Bytes()
}

func serializeName(name string) []byte {
	var b bytes.Buffer
	b.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= 0x20 || c >= 0x7F || isPDFDelimiter(c) || c == '#' {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.Bytes()
}

func serializeString(s raw.StringObj) []byte {
	var b bytes.Buffer
	if s.Hex {
		b.WriteByte('<')
		for _, c := range s.Bytes {
			fmt.Fprintf(&b, "%02X", c)
		}
		b.WriteByte('>')
		return b.Bytes()
	}
	b.WriteByte('(')
	for _, c := range s.Bytes {
		switch c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\r':
			b.WriteString("\\r")
		case '\n':
			b.WriteString("\\n")
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.Bytes()
}

func isPDFDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return false
	}
}

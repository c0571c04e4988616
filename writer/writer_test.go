package writer_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
	"github.com/Vibes-INS/ins-pdf-utils/parser"
	"github.com/Vibes-INS/ins-pdf-utils/writer"
)

func onePageDoc() *raw.Document {
	doc := raw.NewDocument("1.5")

	catalog := raw.Dict()
	catalog.Set(raw.NameLiteral("Type"), raw.NameLiteral("Catalog"))
	catalog.Set(raw.NameLiteral("Pages"), raw.Ref(2, 0))
	doc.Objects[raw.ObjectRef{Num: 1}] = catalog

	pages := raw.Dict()
	pages.Set(raw.NameLiteral("Type"), raw.NameLiteral("Pages"))
	pages.Set(raw.NameLiteral("Kids"), raw.NewArray(raw.Ref(3, 0)))
	pages.Set(raw.NameLiteral("Count"), raw.NumberInt(1))
	doc.Objects[raw.ObjectRef{Num: 2}] = pages

	page := raw.Dict()
	page.Set(raw.NameLiteral("Type"), raw.NameLiteral("Page"))
	page.Set(raw.NameLiteral("Parent"), raw.Ref(2, 0))
	page.Set(raw.NameLiteral("Contents"), raw.Ref(4, 0))
	doc.Objects[raw.ObjectRef{Num: 3}] = page

	content := raw.NewStream(raw.Dict(), []byte("BT /F1 12 Tf ET"))
	doc.Objects[raw.ObjectRef{Num: 4}] = content

	doc.SetRoot(raw.ObjectRef{Num: 1})
	doc.MaxID = 4
	return doc
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := writer.Encode(context.Background(), onePageDoc())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	parsed, err := parser.NewDocumentParser(parser.Config{}).ParseBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}

	if len(parsed.Objects) != 4 {
		t.Fatalf("expected 4 objects after round trip, got %d", len(parsed.Objects))
	}

	pages := parsed.Pages()
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	content, _ := parsed.Objects[raw.ObjectRef{Num: 4}].(*raw.StreamObj)
	if content == nil {
		t.Fatal("content stream lost in round trip")
	}
	if !bytes.Equal(content.Data, []byte("BT /F1 12 Tf ET")) {
		t.Fatalf("stream payload changed: %q", content.Data)
	}
}

func TestEncodeHeaderAndTrailer(t *testing.T) {
	data, err := writer.Encode(context.Background(), onePageDoc())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("%PDF-1.5\n")) {
		t.Fatalf("bad header: %q", data[:16])
	}
	// Binary marker line keeps transfer tools honest about the file type.
	if data[9] != '%' || data[10] < 0x80 {
		t.Fatal("missing binary comment line")
	}
	if !bytes.HasSuffix(data, []byte("%%EOF\n")) {
		t.Fatal("missing EOF marker")
	}
	if !bytes.Contains(data, []byte("/Size 5")) {
		t.Fatal("trailer Size not rewritten")
	}
}

func TestEncodeStripsStaleTrailerKeys(t *testing.T) {
	doc := onePageDoc()
	doc.Trailer.Set(raw.NameLiteral("Prev"), raw.NumberInt(991))
	doc.Trailer.Set(raw.NameLiteral("Size"), raw.NumberInt(999))

	data, err := writer.Encode(context.Background(), doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if bytes.Contains(data, []byte("/Prev")) {
		t.Fatal("stale Prev survived")
	}
	if bytes.Contains(data, []byte("/Size 999")) {
		t.Fatal("stale Size survived")
	}
}

func TestEncodeKeepsGenerationNumbers(t *testing.T) {
	doc := onePageDoc()
	// Move the content stream to generation 1, as an incrementally updated
	// source document would carry it.
	stream := doc.Objects[raw.ObjectRef{Num: 4}]
	delete(doc.Objects, raw.ObjectRef{Num: 4})
	doc.Objects[raw.ObjectRef{Num: 4, Gen: 1}] = stream
	page := doc.Objects[raw.ObjectRef{Num: 3}].(*raw.DictObj)
	page.Set(raw.NameLiteral("Contents"), raw.Ref(4, 1))

	data, err := writer.Encode(context.Background(), doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Contains(data, []byte("4 1 obj")) {
		t.Fatal("object header lost its generation")
	}

	parsed, err := parser.NewDocumentParser(parser.Config{}).ParseBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	reparsed, ok := parsed.Objects[raw.ObjectRef{Num: 4, Gen: 1}].(*raw.StreamObj)
	if !ok {
		t.Fatal("generation-1 object not found after round trip")
	}
	if !bytes.Equal(reparsed.Data, []byte("BT /F1 12 Tf ET")) {
		t.Fatalf("stream payload changed: %q", reparsed.Data)
	}
}

func TestEncodeRequiresRoot(t *testing.T) {
	doc := raw.NewDocument("1.5")
	_, err := writer.Encode(context.Background(), doc)
	if err == nil {
		t.Fatal("expected error for rootless document")
	}
	var ee *writer.EncodeError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EncodeError, got %T", err)
	}
}

func TestSerializeObjectFormats(t *testing.T) {
	w := writer.New()

	dict := raw.Dict()
	dict.Set(raw.NameLiteral("A"), raw.NumberInt(1))
	dict.Set(raw.NameLiteral("B"), raw.Bool(true))
	dict.Set(raw.NameLiteral("C"), raw.Str([]byte("hi (there)")))
	dict.Set(raw.NameLiteral("D"), raw.Ref(7, 0))

	out, err := w.SerializeObject(raw.ObjectRef{Num: 5}, dict)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "5 0 obj\n") || !strings.HasSuffix(s, "\nendobj\n") {
		t.Fatalf("bad object framing: %q", s)
	}
	for _, want := range []string{"/A 1", "/B true", `/C (hi \(there\))`, "/D 7 0 R"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in %q", want, s)
		}
	}
}

func TestSerializeNameEscaping(t *testing.T) {
	w := writer.New()
	out, err := w.SerializeObject(raw.ObjectRef{Num: 1}, raw.NameLiteral("A B(C)"))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(string(out), "/A#20B#28C#29") {
		t.Fatalf("name not escaped: %q", out)
	}
}

func TestSerializeHexString(t *testing.T) {
	w := writer.New()
	out, err := w.SerializeObject(raw.ObjectRef{Num: 1}, raw.StringObj{Bytes: []byte{0xDE, 0xAD}, Hex: true})
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(string(out), "<DEAD>") {
		t.Fatalf("hex string not encoded: %q", out)
	}
}

func TestEncodeStreamLengthMatchesData(t *testing.T) {
	doc := onePageDoc()
	// Lie about the length up front; the writer must correct it.
	stream := doc.Objects[raw.ObjectRef{Num: 4}].(*raw.StreamObj)
	stream.Dict.Set(raw.NameLiteral("Length"), raw.NumberInt(9999))

	data, err := writer.Encode(context.Background(), doc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	parsed, err := parser.NewDocumentParser(parser.Config{}).ParseBytes(context.Background(), data)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	reparsed := parsed.Objects[raw.ObjectRef{Num: 4}].(*raw.StreamObj)
	if int(reparsed.Length()) != len(stream.Data) {
		t.Fatalf("length %d, want %d", reparsed.Length(), len(stream.Data))
	}
}

package optimize_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/Vibes-INS/ins-pdf-utils/filters"
	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
	"github.com/Vibes-INS/ins-pdf-utils/optimize"
)

func docWithStream(data []byte) *raw.Document {
	doc := raw.NewDocument("1.5")

	catalog := raw.Dict()
	catalog.Set(raw.NameLiteral("Type"), raw.NameLiteral("Catalog"))
	catalog.Set(raw.NameLiteral("Content"), raw.Ref(2, 0))
	doc.Objects[raw.ObjectRef{Num: 1}] = catalog

	doc.Objects[raw.ObjectRef{Num: 2}] = raw.NewStream(raw.Dict(), data)

	doc.SetRoot(raw.ObjectRef{Num: 1})
	doc.MaxID = 2
	return doc
}

func TestOptimizeCompressesUnfilteredStreams(t *testing.T) {
	payload := []byte(strings.Repeat("0 0 m 100 100 l S\n", 200))
	doc := docWithStream(payload)

	if err := optimize.New(optimize.DefaultConfig()).Optimize(context.Background(), doc); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	stream := doc.Objects[raw.ObjectRef{Num: 2}].(*raw.StreamObj)
	if len(stream.Data) >= len(payload) {
		t.Fatalf("stream not compressed: %d >= %d", len(stream.Data), len(payload))
	}
	filter, ok := stream.Dict.Get(raw.NameLiteral("Filter"))
	if !ok || filter.(raw.NameObj).Value() != "FlateDecode" {
		t.Fatalf("filter entry wrong: %v", filter)
	}
	length, _ := stream.Dict.Get(raw.NameLiteral("Length"))
	if int(length.(raw.NumberObj).Int()) != len(stream.Data) {
		t.Fatal("length entry does not match compressed data")
	}

	// Compressed payload must decode back to the original.
	pipeline := filters.NewPipeline([]filters.Decoder{filters.NewFlateDecoder()}, filters.Limits{})
	decoded, err := pipeline.Decode(context.Background(), stream.Data, []string{"FlateDecode"}, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatal("round trip mismatch")
	}
}

func TestOptimizeRecodesASCIIArmoredStreams(t *testing.T) {
	payload := []byte(strings.Repeat("q 1 0 0 1 10 10 cm Q\n", 200))
	encoded := append([]byte(hex.EncodeToString(payload)), '>')
	doc := docWithStream(nil)
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("ASCIIHexDecode"))
	dict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(encoded))))
	doc.Objects[raw.ObjectRef{Num: 2}] = raw.NewStream(dict, encoded)

	if err := optimize.New(optimize.DefaultConfig()).Optimize(context.Background(), doc); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	stream := doc.Objects[raw.ObjectRef{Num: 2}].(*raw.StreamObj)
	filter, ok := stream.Dict.Get(raw.NameLiteral("Filter"))
	if !ok || filter.(raw.NameObj).Value() != "FlateDecode" {
		t.Fatalf("filter entry after recode: %v", filter)
	}
	if len(stream.Data) >= len(encoded) {
		t.Fatalf("recode did not shrink stream: %d >= %d", len(stream.Data), len(encoded))
	}
	length, _ := stream.Dict.Get(raw.NameLiteral("Length"))
	if int(length.(raw.NumberObj).Int()) != len(stream.Data) {
		t.Fatal("length entry does not match recoded data")
	}

	pipeline := filters.NewPipeline([]filters.Decoder{filters.NewFlateDecoder()}, filters.Limits{})
	decoded, err := pipeline.Decode(context.Background(), stream.Data, []string{"FlateDecode"}, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Fatal("recoded stream does not decode to original payload")
	}
}

func TestOptimizeLeavesDamagedArmoredStreams(t *testing.T) {
	bad := []byte("zz not hex >")
	doc := docWithStream(nil)
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("ASCIIHexDecode"))
	doc.Objects[raw.ObjectRef{Num: 2}] = raw.NewStream(dict, bad)

	if err := optimize.New(optimize.DefaultConfig()).Optimize(context.Background(), doc); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	stream := doc.Objects[raw.ObjectRef{Num: 2}].(*raw.StreamObj)
	if !bytes.Equal(stream.Data, bad) {
		t.Fatal("undecodable stream was rewritten")
	}
}

func TestOptimizeSkipsFilteredStreams(t *testing.T) {
	original := []byte{0x01, 0x02, 0x03}
	doc := docWithStream(nil)
	dict := raw.Dict()
	dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("DCTDecode"))
	doc.Objects[raw.ObjectRef{Num: 2}] = raw.NewStream(dict, original)

	if err := optimize.New(optimize.DefaultConfig()).Optimize(context.Background(), doc); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	stream := doc.Objects[raw.ObjectRef{Num: 2}].(*raw.StreamObj)
	if !bytes.Equal(stream.Data, original) {
		t.Fatal("already-filtered stream was rewritten")
	}
}

func TestOptimizeKeepsIncompressibleStreams(t *testing.T) {
	// Too short to shrink under the zlib framing overhead.
	doc := docWithStream([]byte("ab"))

	if err := optimize.New(optimize.DefaultConfig()).Optimize(context.Background(), doc); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	stream := doc.Objects[raw.ObjectRef{Num: 2}].(*raw.StreamObj)
	if !bytes.Equal(stream.Data, []byte("ab")) {
		t.Fatal("tiny stream should stay uncompressed")
	}
	if _, ok := stream.Dict.Get(raw.NameLiteral("Filter")); ok {
		t.Fatal("filter set without compression")
	}
}

func TestOptimizePrunesUnreachableObjects(t *testing.T) {
	doc := docWithStream([]byte("x"))
	orphan := raw.Dict()
	orphan.Set(raw.NameLiteral("Type"), raw.NameLiteral("Font"))
	doc.Objects[raw.ObjectRef{Num: 9}] = orphan

	if err := optimize.New(optimize.DefaultConfig()).Optimize(context.Background(), doc); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	if _, ok := doc.Objects[raw.ObjectRef{Num: 9}]; ok {
		t.Fatal("orphan object survived pruning")
	}
	if _, ok := doc.Objects[raw.ObjectRef{Num: 1}]; !ok {
		t.Fatal("reachable catalog was pruned")
	}
	if _, ok := doc.Objects[raw.ObjectRef{Num: 2}]; !ok {
		t.Fatal("reachable stream was pruned")
	}
}

func TestOptimizeConfigDisablesPasses(t *testing.T) {
	payload := []byte(strings.Repeat("duplicate line\n", 100))
	doc := docWithStream(payload)
	doc.Objects[raw.ObjectRef{Num: 9}] = raw.Dict()

	cfg := optimize.Config{CompressStreams: false, PruneUnreachable: false}
	if err := optimize.New(cfg).Optimize(context.Background(), doc); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	stream := doc.Objects[raw.ObjectRef{Num: 2}].(*raw.StreamObj)
	if !bytes.Equal(stream.Data, payload) {
		t.Fatal("compression ran while disabled")
	}
	if _, ok := doc.Objects[raw.ObjectRef{Num: 9}]; !ok {
		t.Fatal("pruning ran while disabled")
	}
}

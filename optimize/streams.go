package optimize

import (
	"context"

	"github.com/Vibes-INS/ins-pdf-utils/filters"
	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
)

// compressStreams flate-compresses unfiltered streams, and recodes streams
// whose filter chain is ASCII armor (hex or base85, possibly over flate)
// back to plain flate. Chains with any other filter pass through untouched;
// their content stays opaque.
func (o *Optimizer) compressStreams(ctx context.Context, doc *raw.Document) error {
	pipeline := filters.NewPipeline([]filters.Decoder{
		filters.NewFlateDecoder(),
		filters.NewASCIIHexDecoder(),
		filters.NewASCII85Decoder(),
	}, filters.Limits{})

	for _, ref := range doc.Refs() {
		stream, ok := doc.Objects[ref].(*raw.StreamObj)
		if !ok {
			continue
		}
		if stream.Dict == nil {
			stream.Dict = raw.Dict()
		}

		data := stream.Data
		names, params := filters.StreamFilters(stream.Dict)
		if len(names) > 0 {
			if !recodeWorthwhile(names) {
				continue
			}
			decoded, err := pipeline.Decode(ctx, data, names, params)
			if err != nil {
				continue // damaged or mislabeled; leave the stream as-is
			}
			data = decoded
		}

		compressed, err := filters.EncodeFlate(data)
		if err != nil {
			return err
		}
		if len(compressed) >= len(stream.Data) {
			continue // not worth it for tiny or incompressible payloads
		}
		stream.Data = compressed
		stream.Dict.Set(raw.NameLiteral("Filter"), raw.NameLiteral("FlateDecode"))
		stream.Dict.Delete(raw.NameLiteral("DecodeParms"))
		stream.Dict.Set(raw.NameLiteral("Length"), raw.NumberInt(int64(len(compressed))))
	}
	return nil
}

// recodeWorthwhile reports whether decoding the chain and re-flating can
// shrink the stream: every filter must be decodable here and at least one
// must be an ASCII armor layer worth removing.
func recodeWorthwhile(names []string) bool {
	ascii := false
	for _, name := range names {
		switch name {
		case "ASCIIHexDecode", "ASCII85Decode":
			ascii = true
		case "FlateDecode":
		default:
			return false
		}
	}
	return ascii
}

package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
	"github.com/Vibes-INS/ins-pdf-utils/recovery"
	"github.com/Vibes-INS/ins-pdf-utils/scanner"
	"github.com/Vibes-INS/ins-pdf-utils/xref"
)

// Config controls high-level PDF parsing (xref resolution + object loading).
type Config struct {
	Recovery recovery.Strategy
	Limits   scanner.Config
}

// DocumentParser builds a raw.Document by resolving the xref table and
// loading every indirect object it lists.
type DocumentParser struct {
	cfg Config
}

func NewDocumentParser(cfg Config) *DocumentParser {
	return &DocumentParser{cfg: cfg}
}

func (p *DocumentParser) Parse(ctx context.Context, r io.ReaderAt) (*raw.Document, error) {
	data := scanner.ReadAll(r)
	return p.parseBytes(ctx, data)
}

// ParseBytes decodes an in-memory PDF buffer.
func (p *DocumentParser) ParseBytes(ctx context.Context, data []byte) (*raw.Document, error) {
	return p.parseBytes(ctx, data)
}

func (p *DocumentParser) parseBytes(ctx context.Context, data []byte) (*raw.Document, error) {
	version, err := headerVersion(data)
	if err != nil {
		return nil, parseErr(err)
	}

	resolver := xref.NewResolver(xref.ResolverConfig{})
	table, err := resolver.Resolve(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, parseErr(fmt.Errorf("resolve xref: %w", err))
	}

	doc := raw.NewDocument(version)
	loader := &objectLoader{data: data, table: table, cfg: p.cfg}

	for _, objNum := range table.Objects() {
		offset, gen, _ := table.Lookup(objNum)
		obj, err := loader.load(objNum, offset, gen)
		if err != nil {
			return nil, parseErr(fmt.Errorf("object %d %d: %w", objNum, gen, err))
		}
		ref := raw.ObjectRef{Num: objNum, Gen: gen}
		doc.Objects[ref] = obj
		if objNum > doc.MaxID {
			doc.MaxID = objNum
		}
	}

	trailer, err := loader.trailerAt(resolver.TrailerOffset())
	if err != nil {
		return nil, parseErr(fmt.Errorf("trailer: %w", err))
	}
	doc.Trailer = trailer

	if _, ok := trailer.Get(raw.NameLiteral("Encrypt")); ok {
		return nil, parseErr(ErrEncrypted)
	}
	if _, ok := doc.Root(); !ok {
		return nil, parseErr(errors.New("trailer missing Root reference"))
	}
	return doc, nil
}

func headerVersion(data []byte) (string, error) {
	// The header comment must appear near the start; some producers prepend
	// junk bytes, so search a small window.
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	idx := bytes.Index(data[:limit], []byte("%PDF-"))
	if idx < 0 {
		return "", errors.New("missing %PDF header")
	}
	rest := data[idx+len("%PDF-"):]
	end := 0
	for end < len(rest) && rest[end] != '\r' && rest[end] != '\n' && rest[end] != ' ' {
		end++
	}
	if end == 0 {
		return "", errors.New("malformed %PDF header")
	}
	return string(rest[:end]), nil
}

// objectLoader scans individual objects out of the buffered file.
type objectLoader struct {
	data  []byte
	table xref.Table
	cfg   Config
}

func (o *objectLoader) newScanner() scanner.Scanner {
	cfg := o.cfg.Limits
	cfg.Recovery = o.cfg.Recovery
	return scanner.NewBytes(o.data, cfg)
}

func (o *objectLoader) load(objNum int, offset int64, gen int) (raw.Object, error) {
	return o.scanObject(o.newScanner(), objNum, offset, gen)
}

func (o *objectLoader) scanObject(s scanner.Scanner, objNum int, offset int64, gen int) (raw.Object, error) {
	if err := s.SeekTo(offset); err != nil {
		return nil, err
	}
	tr := newTokenReader(s)

	// Expect "<objNum> <gen> obj"
	tokNum, err := tr.next()
	if err != nil {
		return nil, err
	}
	if tokNum.Type != scanner.TokenNumber || !tokNum.IsInt || int(tokNum.Int) != objNum {
		return nil, errors.New("object header number mismatch")
	}
	tokGen, err := tr.next()
	if err != nil {
		return nil, err
	}
	if tokGen.Type != scanner.TokenNumber || !tokGen.IsInt || int(tokGen.Int) != gen {
		return nil, errors.New("object header generation mismatch")
	}
	tokObj, err := tr.next()
	if err != nil {
		return nil, err
	}
	if tokObj.Type != scanner.TokenKeyword || tokObj.Str != "obj" {
		return nil, errors.New("expected obj keyword")
	}

	obj, err := parseObject(tr)
	if err != nil {
		return nil, err
	}
	if dict, ok := obj.(*raw.DictObj); ok {
		hint, err := o.resolveStreamLength(dict)
		if err != nil {
			return nil, err
		}
		if hint > 0 {
			tr.setStreamLengthHint(hint)
		} else {
			tr.clearStreamLengthHint()
		}
		if streamTok, err := tr.next(); err == nil && streamTok.Type == scanner.TokenStream {
			obj = raw.NewStream(dict, streamTok.Bytes)
		} else if err == nil {
			tr.unread(streamTok)
		}
	}
	return obj, nil
}

// resolveStreamLength reads the dictionary's /Length, following one level of
// indirection when the length is stored as a separate object.
func (o *objectLoader) resolveStreamLength(dict *raw.DictObj) (int64, error) {
	val, ok := dict.Get(raw.NameLiteral("Length"))
	if !ok {
		return 0, nil
	}
	switch v := val.(type) {
	case raw.NumberObj:
		return v.Int(), nil
	case raw.RefObj:
		offset, gen, ok := o.table.Lookup(v.R.Num)
		if !ok {
			return 0, fmt.Errorf("length reference %s not in xref", v.R)
		}
		obj, err := o.scanObject(o.newScanner(), v.R.Num, offset, gen)
		if err != nil {
			return 0, err
		}
		if num, ok := obj.(raw.NumberObj); ok {
			return num.Int(), nil
		}
		return 0, fmt.Errorf("length reference %s is not numeric", v.R)
	default:
		return 0, nil
	}
}

func (o *objectLoader) trailerAt(offset int64) (*raw.DictObj, error) {
	if offset < 0 {
		return nil, errors.New("trailer offset unknown")
	}
	s := o.newScanner()
	if err := s.SeekTo(offset); err != nil {
		return nil, err
	}
	tr := newTokenReader(s)
	tok, err := tr.next()
	if err != nil {
		return nil, err
	}
	if tok.Type != scanner.TokenKeyword || tok.Str != "trailer" {
		return nil, errors.New("expected trailer keyword")
	}
	obj, err := parseObject(tr)
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(*raw.DictObj)
	if !ok {
		return nil, errors.New("trailer is not a dictionary")
	}
	return dict, nil
}

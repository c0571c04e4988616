// Package writer serializes a raw.Document back to PDF bytes: object table
// in ascending numeric order, classic xref table, trailer, startxref.
package writer

import (
	"context"
	"io"

	"github.com/Vibes-INS/ins-pdf-utils/ir/raw"
)

// Writer encodes documents.
type Writer interface {
	Write(ctx context.Context, doc *raw.Document, w io.Writer) error
	SerializeObject(ref raw.ObjectRef, obj raw.Object) ([]byte, error)
}

// New returns the default writer.
func New() Writer { return &impl{} }

// Encode serializes doc into a fresh buffer.
func Encode(ctx context.Context, doc *raw.Document) ([]byte, error) {
	return encodeDocument(ctx, doc)
}

// EncodeError classifies serialization failures.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "encode: " + e.Err.Error() }
func (e *EncodeError) Unwrap() error { return e.Err }

func encodeErr(err error) error {
	if err == nil {
		return nil
	}
	return &EncodeError{Err: err}
}

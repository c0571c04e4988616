package parser

import "errors"

// ErrEncrypted reports a document carrying an /Encrypt dictionary. Encrypted
// input is rejected up front rather than partially decoded.
var ErrEncrypted = errors.New("encrypted document not supported")

// ParseError classifies any defect found while decoding a document into an
// object graph. Callers can match the class with errors.As and the cause
// with errors.Is.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Err: err}
}

// Package recovery decides how the scanning layer reacts to structural
// defects in a PDF file: abort immediately, or record the defect and keep
// going.
package recovery

// Defect locates a problem in the input byte stream.
type Defect struct {
	ByteOffset int64
	Component  string
}

// Action is a strategy's verdict on a single defect.
type Action int

const (
	// Abort stops scanning with the original error.
	Abort Action = iota
	// Continue suppresses the error; the scanner skips or repairs the
	// damaged construct and keeps going.
	Continue
)

func (a Action) String() string {
	if a == Continue {
		return "continue"
	}
	return "abort"
}

// Strategy inspects each defect as it is found and decides whether scanning
// continues. A nil strategy is treated as strict.
type Strategy interface {
	OnDefect(err error, at Defect) Action
}

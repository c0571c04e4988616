package recovery

import "fmt"

// Strict aborts on the first defect. It is the merge pipeline's default
// posture: a malformed input aborts the whole merge.
type Strict struct{}

func NewStrict() *Strict { return &Strict{} }

func (*Strict) OnDefect(err error, at Defect) Action { return Abort }

// Lenient records every defect with its location and keeps scanning. The
// caller inspects Defects afterwards to decide whether the tolerated damage
// is acceptable.
type Lenient struct {
	Defects []error
}

func NewLenient() *Lenient { return &Lenient{} }

func (l *Lenient) OnDefect(err error, at Defect) Action {
	l.Defects = append(l.Defects, fmt.Errorf("[%s] offset %d: %w", at.Component, at.ByteOffset, err))
	return Continue
}

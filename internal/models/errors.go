package models

import (
	"errors"
	"fmt"
)

// ErrStructural is matched by every StructuralError via errors.Is.
var ErrStructural = errors.New("structural error")

// ErrResourceExhausted reports that a step's computational budget ran out
// before every candidate was served. Nothing over budget is applied.
var ErrResourceExhausted = errors.New("resource exhausted")

// StructuralError reports malformed input: an invalid pattern, a link whose
// outgoing set does not resolve, or rule inputs the rule rejects. It aborts
// only the offending operation.
type StructuralError struct {
	Op     string // operation that rejected the input, e.g. "put"
	ID     string // offending atom or pattern element, if any
	Reason string
}

func (e *StructuralError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.ID, e.Reason)
}

// Is makes errors.Is(err, ErrStructural) hold for any StructuralError.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// Structuralf builds a StructuralError with a formatted reason.
func Structuralf(op, id, format string, args ...any) *StructuralError {
	return &StructuralError{Op: op, ID: id, Reason: fmt.Sprintf(format, args...)}
}

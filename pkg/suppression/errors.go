package suppression

import (
	"errors"
	"fmt"
)

// ErrMalformedSuppression matches every MalformedSuppressionError via errors.Is.
var ErrMalformedSuppression = errors.New("malformed suppression")

// MalformedSuppressionError reports a suppression block that cannot be parsed.
type MalformedSuppressionError struct {
	Source string // file or descriptor
	Line   int    // 1-based line where the problem was detected
	Reason string
	Err    error // underlying cause, e.g. a glob compile error
}

func (e *MalformedSuppressionError) Error() string {
	msg := fmt.Sprintf("%s:%d: malformed suppression: %s", e.Source, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedSuppressionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformedSuppression) true.
func (e *MalformedSuppressionError) Is(target error) bool {
	return target == ErrMalformedSuppression
}

func malformed(source string, line int, reason string) error {
	return &MalformedSuppressionError{Source: source, Line: line, Reason: reason}
}

// IsMalformed reports whether err is or wraps a MalformedSuppressionError.
func IsMalformed(err error) bool {
	var m *MalformedSuppressionError
	return errors.As(err, &m)
}

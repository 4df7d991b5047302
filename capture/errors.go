package capture

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEnvironment reports that the host has no usable streaming
// video encoder. It is surfaced before any capture state is created.
var ErrUnsupportedEnvironment = errors.New("capture: no usable video encoder in this environment")

// An EncoderError wraps a failure inside the encoder after capture has
// started.
type EncoderError struct {
	Op  string
	Err error
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("capture: encoder %s: %v", e.Op, e.Err)
}

func (e *EncoderError) Unwrap() error {
	return e.Err
}

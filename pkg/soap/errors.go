package soap

import (
	"errors"
	"fmt"
)

// ErrRequestFailed matches every error returned by Driver calls
var ErrRequestFailed = errors.New("soap: request failed")

// RequestFailedError is returned when a remote call fails at the HTTP,
// transport or SOAP fault level.
type RequestFailedError struct {
	Procedure string
	Err       error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("soap: %s request failed: %v", e.Procedure, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }

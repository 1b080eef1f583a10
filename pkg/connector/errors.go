package connector

import "errors"

var (
	ErrInvalidDescriptor = errors.New("connector: invalid descriptor")
	ErrHandlerRequired   = errors.New("connector: handler function is required")
	ErrHandlerPanic      = errors.New("connector: handler panicked")
	ErrOutputEncoding    = errors.New("connector: output encoding failed")
)

// HandlerError carries an error returned by a typed handler. Its text is the
// handler's own message, unchanged.
type HandlerError struct {
	Err error
}

func (e *HandlerError) Error() string { return e.Err.Error() }
func (e *HandlerError) Unwrap() error { return e.Err }

package evaluator

import (
	"errors"
	"fmt"
)

// ErrExecution is matched by every *Error.
var ErrExecution = errors.New("execution error")

// Error is a failure raised while running a code fragment, such as a syntax
// error or an exception thrown by the code itself.
type Error struct {
	// Message describes the failure as the caller should see it.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Errorf creates an *Error with a formatted message and no cause.
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrExecution.
func (e *Error) Is(target error) bool {
	return target == ErrExecution
}

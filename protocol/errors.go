package protocol

import "fmt"

// Error codes. The set is closed: no other code is ever emitted.
const (
	CodeParseError     = "parse_error"
	CodeExecutionError = "execution_error"
	CodeUnknownMethod  = "unknown_method"
)

// Error is the error object carried by an error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("kernel: %s (code: %s)", e.Message, e.Code)
}

// Is implements errors.Is comparison by error code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewParseError creates a parse error for a line that is not valid JSON.
func NewParseError(msg string) *Error {
	return &Error{Code: CodeParseError, Message: msg}
}

// NewExecutionError creates an execution error for a failed evaluation.
func NewExecutionError(msg string) *Error {
	return &Error{Code: CodeExecutionError, Message: msg}
}

// NewUnknownMethod creates an unknown method error. The message is the
// method's text form, which may be empty.
func NewUnknownMethod(method string) *Error {
	return &Error{Code: CodeUnknownMethod, Message: method}
}

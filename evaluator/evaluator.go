// Package evaluator defines the capability the kernel uses to run code.
//
// An Evaluator runs a code fragment and returns a textual representation of
// its value. Whatever state the evaluator keeps between calls (variable
// bindings, loaded definitions) is its own business; the kernel never resets
// it.
package evaluator

import (
	"context"
	"strings"
)

// Evaluator runs caller-supplied code.
//
// Contract:
//   - Evaluate is called from one goroutine at a time.
//   - Context: implementations should stop and return an error when ctx is
//     done, if the underlying engine allows it.
//   - Errors: the error's message is reported to the caller verbatim.
type Evaluator interface {
	Evaluate(ctx context.Context, code string) (string, error)
}

// Func adapts an ordinary function to the Evaluator interface.
type Func func(ctx context.Context, code string) (string, error)

// Evaluate calls f(ctx, code).
func (f Func) Evaluate(ctx context.Context, code string) (string, error) {
	return f(ctx, code)
}

// Output combines text printed during an evaluation with the representation
// of its value. When the value is absent only the printed text is returned;
// when nothing was printed only the representation is.
func Output(printed, repr string, hasValue bool) string {
	switch {
	case printed == "":
		return repr
	case !hasValue:
		return printed
	case strings.HasSuffix(printed, "\n"):
		return printed + repr
	default:
		return printed + "\n" + repr
	}
}

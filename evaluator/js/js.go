// Package js provides an Evaluator backed by an embedded JavaScript runtime.
//
// A single runtime lives for the lifetime of the Evaluator, so bindings
// created by one fragment are visible to the next:
//
//	e := js.New()
//	e.Evaluate(ctx, "var x = 40")
//	e.Evaluate(ctx, "x + 2") // "42"
//
// With WithTypeScript, fragments are transpiled by esbuild before they run.
package js

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/felixgeelhaar/kernel-go/evaluator"
)

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithTypeScript makes the evaluator accept TypeScript fragments.
func WithTypeScript() Option {
	return func(e *Evaluator) {
		e.typescript = true
	}
}

// Evaluator runs JavaScript fragments in a persistent goja runtime.
type Evaluator struct {
	mu         sync.Mutex
	vm         *goja.Runtime
	printed    strings.Builder
	typescript bool
}

var _ evaluator.Evaluator = (*Evaluator)(nil)

// New creates an Evaluator with a fresh runtime.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{vm: goja.New()}
	for _, opt := range opts {
		opt(e)
	}
	e.installConsole()
	return e
}

// Language returns the name of the language the evaluator accepts.
func (e *Evaluator) Language() string {
	if e.typescript {
		return "typescript"
	}
	return "javascript"
}

// Evaluate runs code and returns the printed output followed by the
// representation of the completion value. Exceptions, syntax errors and
// interruptions are returned as *evaluator.Error.
func (e *Evaluator) Evaluate(ctx context.Context, code string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.typescript {
		var err error
		if code, err = transpile(code); err != nil {
			return "", err
		}
	}

	if err := ctx.Err(); err != nil {
		return "", &evaluator.Error{Message: fmt.Sprintf("execution interrupted: %v", err), Err: err}
	}

	interrupted := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		e.vm.Interrupt(ctx.Err())
		close(interrupted)
	})

	e.printed.Reset()
	value, err := e.vm.RunString(code)

	if !stop() {
		<-interrupted
	}
	e.vm.ClearInterrupt()

	if err != nil {
		return "", e.failure(err)
	}

	text, err := e.inspect(value)
	if err != nil {
		return "", err
	}
	hasValue := value != nil && !goja.IsUndefined(value)
	return evaluator.Output(e.printed.String(), text, hasValue), nil
}

func (e *Evaluator) failure(err error) *evaluator.Error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &evaluator.Error{Message: fmt.Sprintf("execution interrupted: %v", interrupted.Value()), Err: err}
	}
	var exception *goja.Exception
	if errors.As(err, &exception) && exception.Value() != nil {
		return &evaluator.Error{Message: e.text(exception.Value()), Err: err}
	}
	return &evaluator.Error{Message: err.Error(), Err: err}
}

// inspect renders the completion value. Rendering runs user code
// (toJSON, toString), so a throw there is reported as an execution error.
func (e *Evaluator) inspect(v goja.Value) (string, error) {
	var out string
	if ex := e.vm.Try(func() { out = e.render(v) }); ex != nil {
		return "", e.failure(ex)
	}
	return out, nil
}

// render echoes a value the way a REPL would. It may panic with a
// *goja.Exception and must run under Try or inside the runtime.
func (e *Evaluator) render(v goja.Value) string {
	switch {
	case v == nil || goja.IsUndefined(v):
		return "undefined"
	case goja.IsNull(v):
		return "null"
	}

	if sym, ok := v.(*goja.Symbol); ok {
		return "Symbol(" + sym.String() + ")"
	}

	if obj, ok := v.(*goja.Object); ok {
		if _, isFunc := goja.AssertFunction(obj); isFunc {
			return obj.String()
		}
		if s, ok := e.stringify(obj); ok {
			return s
		}
		if !hasMethod(obj, "toString") && !hasMethod(obj, "valueOf") {
			return "[object " + obj.ClassName() + "]"
		}
		return obj.String()
	}

	if s, ok := v.Export().(string); ok {
		return strconv.Quote(s)
	}
	return v.String()
}

// text converts a thrown value to a message without ever panicking.
func (e *Evaluator) text(v goja.Value) string {
	var out string
	if ex := e.vm.Try(func() { out = v.String() }); ex != nil {
		if obj, ok := v.(*goja.Object); ok {
			return "[object " + obj.ClassName() + "]"
		}
		return "uncaught exception"
	}
	return out
}

func hasMethod(obj *goja.Object, name string) bool {
	_, ok := goja.AssertFunction(obj.Get(name))
	return ok
}

// stringify calls the runtime's JSON.stringify. It reports false for cyclic
// structures and values JSON cannot represent.
func (e *Evaluator) stringify(obj *goja.Object) (string, bool) {
	jsonObj := e.vm.Get("JSON")
	if jsonObj == nil || goja.IsUndefined(jsonObj) || goja.IsNull(jsonObj) {
		return "", false
	}
	fn, ok := goja.AssertFunction(jsonObj.ToObject(e.vm).Get("stringify"))
	if !ok {
		return "", false
	}
	out, err := fn(goja.Undefined(), obj)
	if err != nil || out == nil || goja.IsUndefined(out) {
		return "", false
	}
	return out.String(), true
}

func (e *Evaluator) installConsole() {
	capture := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			if s, ok := arg.Export().(string); ok {
				parts[i] = s
			} else {
				parts[i] = e.render(arg)
			}
		}
		e.printed.WriteString(strings.Join(parts, " "))
		e.printed.WriteByte('\n')
		return goja.Undefined()
	}

	console := e.vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(name, capture)
	}
	_ = e.vm.Set("console", console)
}

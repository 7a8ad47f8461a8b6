package js

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/kernel-go/evaluator"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"arithmetic", "1+1", "2"},
		{"float", "0.5 * 3", "1.5"},
		{"boolean", "1 < 2", "true"},
		{"string is quoted", `"a" + "b"`, `"ab"`},
		{"object", `({a: 1, b: [true, null]})`, `{"a":1,"b":[true,null]}`},
		{"array", "[1, 2, 3].map(x => x * 2)", "[2,4,6]"},
		{"undefined", "undefined", "undefined"},
		{"declaration has no value", "var unused = 1", "undefined"},
		{"null", "null", "null"},
		{"empty code", "", "undefined"},
		{"console output only", `console.log("hi")`, "hi\n"},
		{"console output and value", `console.log("a", 1, {k: "v"}); 3`, "a 1 {\"k\":\"v\"}\n3"},
		{"symbol", `Symbol("x")`, "Symbol(x)"},
		{"symbol without description", "Symbol()", "Symbol()"},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tt.code)
			if err != nil {
				t.Fatalf("Evaluate(%q) error = %v", tt.code, err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Function(t *testing.T) {
	e := New()
	got, err := e.Evaluate(context.Background(), "(function () { return 1 })")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "function") {
		t.Errorf("function representation = %q, want source text", got)
	}
}

func TestEvaluate_CyclicObject(t *testing.T) {
	e := New()
	got, err := e.Evaluate(context.Background(), "var o = {}; o.self = o; o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[object Object]" {
		t.Errorf("cyclic object = %q, want [object Object]", got)
	}
}

func TestEvaluate_NullPrototypeCycle(t *testing.T) {
	e := New()
	ctx := context.Background()

	got, err := e.Evaluate(ctx, "var o = Object.create(null); o.self = o; o")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[object Object]" {
		t.Errorf("null-prototype cycle = %q, want [object Object]", got)
	}

	got, err = e.Evaluate(ctx, "console.log(o)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[object Object]\n" {
		t.Errorf("printed null-prototype cycle = %q", got)
	}
}

func TestEvaluate_UnrenderableValue(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		contains string
	}{
		{
			name:     "toJSON and toString throw",
			code:     `({toJSON() { throw new Error("j") }, toString() { throw new Error("s") }})`,
			contains: "Error: s",
		},
		{
			name:     "cycle with throwing toString",
			code:     `var c = {toString() { throw new TypeError("no text") }}; c.self = c; c`,
			contains: "TypeError: no text",
		},
		{
			name:     "printing a throwing value",
			code:     `console.log({toJSON() { throw new Error("j") }, toString() { throw new Error("p") }})`,
			contains: "Error: p",
		},
		{
			name:     "thrown value without text",
			code:     `throw {toString() { throw 1 }}`,
			contains: "[object Object]",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(context.Background(), tt.code)
			if err == nil {
				t.Fatalf("Evaluate(%q) = %q, want error", tt.code, got)
			}
			if !errors.Is(err, evaluator.ErrExecution) {
				t.Errorf("error %T should match evaluator.ErrExecution", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.contains)
			}
			if strings.Contains(err.Error(), "panic") {
				t.Errorf("error = %q, should not mention a panic", err.Error())
			}
		})
	}

	got, err := e.Evaluate(context.Background(), "1+1")
	if err != nil || got != "2" {
		t.Errorf("Evaluate after render failures = %q, %v", got, err)
	}
}

func TestEvaluate_StatePersists(t *testing.T) {
	e := New()
	ctx := context.Background()

	if _, err := e.Evaluate(ctx, "var x = 40; function inc(n) { return n + 1 }"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := e.Evaluate(ctx, "inc(x) + 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "42" {
		t.Errorf("Evaluate() = %q, want 42", got)
	}
}

func TestEvaluate_OutputIsPerCall(t *testing.T) {
	e := New()
	ctx := context.Background()

	if _, err := e.Evaluate(ctx, `console.log("first")`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := e.Evaluate(ctx, "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "2" {
		t.Errorf("output leaked between calls: %q", got)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		contains string
	}{
		{"reference error", "missing + 1", "ReferenceError"},
		{"thrown error", `throw new Error("boom")`, "boom"},
		{"thrown string", `throw "plain"`, "plain"},
		{"syntax error", "1 +* 2", "SyntaxError"},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(context.Background(), tt.code)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, evaluator.ErrExecution) {
				t.Errorf("error %T should match evaluator.ErrExecution", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.contains)
			}
		})
	}

	// The runtime stays usable after a failure.
	got, err := e.Evaluate(context.Background(), "1+1")
	if err != nil || got != "2" {
		t.Errorf("Evaluate after errors = %q, %v", got, err)
	}
}

func TestEvaluate_Deadline(t *testing.T) {
	e := New()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Evaluate(ctx, "while (true) {}")
	if err == nil {
		t.Fatal("expected interruption error")
	}
	if !strings.Contains(err.Error(), "interrupted") {
		t.Errorf("error = %q, want interruption", err.Error())
	}

	got, err := e.Evaluate(context.Background(), "1+1")
	if err != nil || got != "2" {
		t.Errorf("Evaluate after interruption = %q, %v", got, err)
	}
}

func TestEvaluate_CancelledContext(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, "1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestTypeScript(t *testing.T) {
	e := New(WithTypeScript())
	if e.Language() != "typescript" {
		t.Errorf("Language() = %q, want typescript", e.Language())
	}

	ctx := context.Background()
	if _, err := e.Evaluate(ctx, "interface P { n: number }\nconst p: P = { n: 2 };"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := e.Evaluate(ctx, "p.n * 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "6" {
		t.Errorf("Evaluate() = %q, want 6", got)
	}

	_, err = e.Evaluate(ctx, "const = ;")
	if err == nil {
		t.Fatal("expected transpile error")
	}
	if !errors.Is(err, evaluator.ErrExecution) || !strings.HasPrefix(err.Error(), "TypeScript: ") {
		t.Errorf("transpile error = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Errorf("transpile error should carry a location: %q", err.Error())
	}
}

func TestLanguage(t *testing.T) {
	if got := New().Language(); got != "javascript" {
		t.Errorf("Language() = %q, want javascript", got)
	}
}

// Package gorun provides an Evaluator that compiles and runs Go fragments
// with the Go toolchain.
//
// Each fragment becomes the body of func main in a throwaway program, so no
// state survives between calls. The fragment's value is whatever the program
// prints.
package gorun

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/kernel-go/evaluator"
)

const program = `package main

import "fmt"

var _ = fmt.Sprint

func main() {
%s
}
`

// Source returns the program that runs code as the body of main. fmt is
// imported and always referenced, so fragments may use it freely.
func Source(code string) string {
	return fmt.Sprintf(program, code)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithBinary sets the go command to invoke. Default: "go" from PATH.
func WithBinary(path string) Option {
	return func(e *Evaluator) {
		e.binary = path
	}
}

// WithTempDir sets the parent directory for per-call workspaces.
// Default: os.TempDir().
func WithTempDir(dir string) Option {
	return func(e *Evaluator) {
		e.tempDir = dir
	}
}

// Evaluator runs Go fragments with `go run`.
type Evaluator struct {
	binary  string
	tempDir string
}

var _ evaluator.Evaluator = (*Evaluator)(nil)

// New creates a Go evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{binary: "go"}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Language returns "go".
func (e *Evaluator) Language() string {
	return "go"
}

// Evaluate writes code into a fresh workspace, runs it and returns its
// combined stdout and stderr. A failed build or a non-zero exit yields an
// *evaluator.Error carrying the program's output.
func (e *Evaluator) Evaluate(ctx context.Context, code string) (string, error) {
	dir, err := os.MkdirTemp(e.tempDir, "kernel-go-*")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "main.go")
	if err := os.WriteFile(file, []byte(Source(code)), 0o644); err != nil {
		return "", fmt.Errorf("write program: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.binary, "run", file)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &evaluator.Error{Message: fmt.Sprintf("execution interrupted: %v", ctxErr), Err: ctxErr}
		}
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			msg = err.Error()
		}
		return "", &evaluator.Error{Message: msg, Err: err}
	}
	return string(out), nil
}

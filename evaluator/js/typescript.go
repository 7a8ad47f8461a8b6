package js

import (
	"fmt"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/felixgeelhaar/kernel-go/evaluator"
)

// transpile strips TypeScript syntax from a fragment. Statement order is
// preserved, so the completion value is the same as the source's.
func transpile(code string) (string, error) {
	result := esbuild.Transform(code, esbuild.TransformOptions{
		Loader:     esbuild.LoaderTS,
		Target:     esbuild.ES2017,
		Sourcefile: "cell.ts",
		LogLevel:   esbuild.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", transpileError(result.Errors)
	}
	return string(result.Code), nil
}

func transpileError(messages []esbuild.Message) *evaluator.Error {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Location != nil {
			lines = append(lines, fmt.Sprintf("%s (line %d, col %d)", msg.Text, msg.Location.Line, msg.Location.Column+1))
		} else {
			lines = append(lines, msg.Text)
		}
	}
	return &evaluator.Error{Message: "TypeScript: " + strings.Join(lines, "; ")}
}

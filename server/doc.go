// Package server provides the kernel core behind every transport.
//
// A Server owns the evaluator, so evaluator state outlives individual
// requests and connections. Most users should use the root kernel package,
// which dispatches requests to a Server:
//
//	srv := server.New(server.Info{Name: "kernel", Version: "1.0.0"},
//	    server.WithEvaluator(js.New(js.WithTypeScript())),
//	)
//	result, err := srv.Execute(ctx, "1 + 1") // {"text/plain": "2"}
package server

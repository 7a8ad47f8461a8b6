// Command kernel runs a code-evaluation kernel that reads one JSON request
// per line on stdin and answers each with one JSON line on stdout.
//
// All settings come from KERNEL_* environment variables; see Config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	kernel "github.com/felixgeelhaar/kernel-go"
	"github.com/felixgeelhaar/kernel-go/evaluator"
	"github.com/felixgeelhaar/kernel-go/evaluator/gorun"
	"github.com/felixgeelhaar/kernel-go/evaluator/js"
	"github.com/felixgeelhaar/kernel-go/middleware"
	"github.com/felixgeelhaar/kernel-go/protocol"
	"github.com/felixgeelhaar/kernel-go/transport"
)

var version = "dev"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kernel: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg, os.Stderr)
	if err := run(ctx, cfg, log, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("kernel stopped")
		stop()
		os.Exit(1)
	}
}

// run serves until input ends, ctx is canceled or the transport fails.
func run(ctx context.Context, cfg Config, log zerolog.Logger, stdin io.Reader, stdout io.Writer) error {
	srv := kernel.NewServer(kernel.ServerInfo{
		Name:    "kernel",
		Version: version,
	}, kernel.WithEvaluator(newEvaluator(cfg)))

	handler := kernel.NewHandler(srv, kernel.WithMiddleware(middlewareStack(cfg, log)...))

	var t transport.Transport
	if cfg.Listen != "" {
		t = transport.NewWebSocket(cfg.Listen, transport.WithWebSocketShutdown(transport.ShutdownConfig{
			OnShutdownStart: func() { log.Info().Msg("draining") },
		}))
	} else {
		t = transport.NewStdio(transport.WithStdin(stdin), transport.WithStdout(stdout))
	}

	info := srv.Info()
	log.Info().
		Str("language", info.Language).
		Str("version", info.Version).
		Str("transport", t.Addr()).
		Msg("kernel started")

	err := t.Serve(ctx, handler)
	log.Info().Int64("executions", srv.ExecutionCount()).Msg("kernel exiting")
	return err
}

func newLogger(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.LogFormat != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newEvaluator(cfg Config) evaluator.Evaluator {
	switch cfg.Language {
	case LanguageTypeScript:
		return js.New(js.WithTypeScript())
	case LanguageGo:
		return gorun.New(gorun.WithBinary(cfg.GoBinary))
	default:
		return js.New()
	}
}

// middlewareStack builds the request pipeline. Deadlines and rate limits
// only ever apply to execute.
func middlewareStack(cfg Config, log zerolog.Logger) []middleware.Middleware {
	logger := middleware.Zerolog(log)

	stack := []middleware.Middleware{
		middleware.Recover(),
		middleware.RequestID(),
		middleware.OTel(middleware.WithOTelServiceName("kernel")),
		middleware.Logging(logger),
	}
	if cfg.ExecuteRate > 0 {
		stack = append(stack, middleware.Only(
			middleware.RateLimit(cfg.ExecuteRate, cfg.ExecuteBurst, middleware.WithRateLimitLogger(logger)),
			protocol.MethodExecute,
		))
	}
	if cfg.ExecuteTimeout > 0 {
		stack = append(stack, middleware.Only(middleware.Timeout(cfg.ExecuteTimeout), protocol.MethodExecute))
	}
	return stack
}

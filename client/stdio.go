package client

import (
	"fmt"
	"os/exec"
	"sync"
)

// StdioTransport connects to a kernel running as a subprocess.
type StdioTransport struct {
	*PipeTransport

	cmd *exec.Cmd

	closeOnce sync.Once
	closeErr  error
}

// NewStdioTransport starts command and talks to it over its stdin/stdout.
// The kernel's stderr is discarded; use StartStdioTransport to keep it.
func NewStdioTransport(command string, args ...string) (*StdioTransport, error) {
	return StartStdioTransport(exec.Command(command, args...))
}

// StartStdioTransport starts a prepared command, leaving its environment,
// working directory and stderr as the caller configured them.
func StartStdioTransport(cmd *exec.Cmd) (*StdioTransport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start command: %w", err)
	}

	return &StdioTransport{
		PipeTransport: NewPipeTransport(stdout, stdin),
		cmd:           cmd,
	}, nil
}

// Close closes the kernel's stdin and waits for it to exit. A kernel exits
// with status 0 at end of input, so a clean shutdown returns nil.
func (t *StdioTransport) Close() error {
	t.closeOnce.Do(func() {
		_ = t.PipeTransport.Close()
		t.closeErr = t.cmd.Wait()
	})
	return t.closeErr
}

// Kill terminates the kernel process immediately.
func (t *StdioTransport) Kill() error {
	if t.cmd.Process == nil {
		return nil
	}
	return t.cmd.Process.Kill()
}

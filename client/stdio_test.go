package client_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/felixgeelhaar/kernel-go/client"
)

func TestStdioTransport(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	// cat echoes each request line back, which is a well-formed response
	// with a matching id and no result.
	tr, err := client.NewStdioTransport("cat")
	if err != nil {
		t.Fatalf("NewStdioTransport() error = %v", err)
	}
	c := client.New(tr)

	for i := 0; i < 3; i++ {
		got, err := c.Call(context.Background(), "ping", nil)
		if err != nil {
			t.Fatalf("Call() error = %v", err)
		}
		if string(got) != "null" {
			t.Errorf("Call() = %s, want null", got)
		}
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewStdioTransport_MissingCommand(t *testing.T) {
	if _, err := client.NewStdioTransport("definitely-not-a-kernel-binary"); err == nil {
		t.Error("expected error for missing command")
	}
}

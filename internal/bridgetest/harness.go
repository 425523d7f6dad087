// Package bridgetest drives a bridge client through scripted peer sessions
// for integration-style tests.
package bridgetest

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	inspectbridge "github.com/example/inspect-bridge-go"
)

// Harness wires a fresh client to an in-memory transport and replays peer
// scripts against it.
type Harness struct {
	Client    *inspectbridge.Client
	Transport *inspectbridge.InMemoryTransport
}

// New creates a harness with a test logger. Fatal on configuration errors.
func New(t *testing.T) *Harness {
	t.Helper()

	transport := inspectbridge.NewInMemoryTransport()
	client, err := inspectbridge.NewClient(inspectbridge.ClientConfig{
		Transport: transport,
		Logger:    zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	transport.Bind(client)

	return &Harness{Client: client, Transport: transport}
}

// Connect simulates the peer coming online.
func (h *Harness) Connect() { h.Transport.Connect() }

// Disconnect simulates the peer going away.
func (h *Harness) Disconnect() { h.Transport.Disconnect() }

// Replay decodes newline-separated JSON frames and delivers each to the
// client in order, exactly as a framing transport would.
func (h *Harness) Replay(frames string) error {
	for i, line := range strings.Split(frames, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		msg, err := inspectbridge.DecodeMessage([]byte(line))
		if err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		h.Transport.Deliver(msg)
	}
	return nil
}

// Package connecttransport carries bridge envelopes over Connect RPC.
//
// The host pushes outbound envelopes with the unary Send procedure and
// receives inbound ones on the Subscribe server stream. Envelopes travel as
// structpb.Struct values, so no generated schema is required on either
// side; the wire shape stays the schema-less envelope the bridge protocol
// defines.
package connecttransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	inspectbridge "github.com/example/inspect-bridge-go"
)

const (
	// SendProcedure is the unary RPC carrying host → peer envelopes.
	SendProcedure = "/inspectbridge.v1.Bridge/Send"

	// SubscribeProcedure is the server-stream RPC carrying peer → host
	// envelopes.
	SubscribeProcedure = "/inspectbridge.v1.Bridge/Subscribe"
)

// Config configures a Transport.
type Config struct {
	// BaseURL is the peer's HTTP endpoint. Required.
	BaseURL string

	// Handler receives connection events and inbound messages; usually the
	// bridge *Client. Required.
	Handler inspectbridge.Handler

	// HTTPClient is used for Connect calls. Defaults to a plain
	// http.Client.
	HTTPClient connect.HTTPClient

	// Logger receives transport diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Validate checks Config for errors.
func (cfg *Config) Validate() error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("%w: BaseURL is required", inspectbridge.ErrInvalidConfig)
	}
	if cfg.Handler == nil {
		return fmt.Errorf("%w: Handler is required", inspectbridge.ErrInvalidConfig)
	}
	return nil
}

// Transport implements inspectbridge.Transport over Connect RPC.
type Transport struct {
	cfg       Config
	logger    *zap.Logger
	send      *connect.Client[structpb.Struct, structpb.Struct]
	subscribe *connect.Client[structpb.Struct, structpb.Struct]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Transport. It does not contact the peer until Open.
func New(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Transport{
		cfg:    cfg,
		logger: cfg.Logger,
		send: connect.NewClient[structpb.Struct, structpb.Struct](
			cfg.HTTPClient, cfg.BaseURL+SendProcedure),
		subscribe: connect.NewClient[structpb.Struct, structpb.Struct](
			cfg.HTTPClient, cfg.BaseURL+SubscribeProcedure),
	}, nil
}

// Open establishes the subscribe stream and reports OnConnected to the
// handler. The receive loop runs on its own goroutine until the stream ends
// or Close is called; either way the handler sees OnDisconnected exactly
// once per successful Open.
func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return fmt.Errorf("connecttransport: already open")
	}
	t.mu.Unlock()

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := t.subscribe.CallServerStream(streamCtx, connect.NewRequest(&structpb.Struct{}))
	if err != nil {
		cancel()
		return fmt.Errorf("connecttransport: subscribe: %w", err)
	}

	done := make(chan struct{})
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		cancel()
		stream.Close()
		return fmt.Errorf("connecttransport: already open")
	}
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	go t.receiveLoop(stream, done)
	t.cfg.Handler.OnConnected()
	return nil
}

// Close tears down the subscription and waits for the receive loop, which
// reports OnDisconnected on its way out. Close is safe to call when the
// transport is not open.
func (t *Transport) Close() error {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel = nil
	t.done = nil
	t.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// SendMessage implements inspectbridge.Transport. Delivery is asynchronous:
// the caller may hold the bridge lock, so the RPC runs on its own
// goroutine and failures are logged, never surfaced.
func (t *Transport) SendMessage(payload map[string]any) {
	go func() {
		frame, err := toStruct(payload)
		if err != nil {
			t.logger.Warn("dropping unencodable outbound envelope", zap.Error(err))
			return
		}
		if _, err := t.send.CallUnary(context.Background(), connect.NewRequest(frame)); err != nil {
			t.logger.Warn("send to peer failed", zap.Error(err))
		}
	}()
}

func (t *Transport) receiveLoop(stream *connect.ServerStreamForClient[structpb.Struct], done chan struct{}) {
	defer close(done)
	defer t.cfg.Handler.OnDisconnected()

	for stream.Receive() {
		msg, err := inspectbridge.MessageFromPayload(stream.Msg().AsMap())
		if err != nil {
			t.logger.Warn("discarding malformed inbound envelope", zap.Error(err))
			continue
		}
		t.cfg.Handler.OnMessageReceived(msg)
	}
	if err := stream.Err(); err != nil && !canceled(err) {
		t.logger.Warn("subscribe stream ended", zap.Error(err))
	}
	if err := stream.Close(); err != nil {
		t.logger.Debug("closing subscribe stream", zap.Error(err))
	}
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || connect.CodeOf(err) == connect.CodeCanceled
}

// toStruct converts an envelope into a structpb.Struct. The JSON round
// trip normalizes values structpb cannot hold directly, typed slices in
// particular.
func toStruct(payload map[string]any) (*structpb.Struct, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var normalized map[string]any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return nil, err
	}
	return structpb.NewStruct(normalized)
}

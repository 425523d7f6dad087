package connecttransport

import (
	"context"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// Peer is an in-process inspection peer serving the Send and Subscribe
// procedures. It records every envelope hosts send and broadcasts injected
// envelopes to every subscribed host. Tests and examples use it in place of
// a real desktop peer.
type Peer struct {
	mu          sync.Mutex
	received    []map[string]any
	subscribers map[chan *structpb.Struct]struct{}
}

// NewPeer creates an idle peer.
func NewPeer() *Peer {
	return &Peer{
		subscribers: make(map[chan *structpb.Struct]struct{}),
	}
}

// Handler returns the http.Handler serving both bridge procedures.
func (p *Peer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(SendProcedure, connect.NewUnaryHandler(SendProcedure, p.handleSend))
	mux.Handle(SubscribeProcedure, connect.NewServerStreamHandler(SubscribeProcedure, p.handleSubscribe))
	return mux
}

func (p *Peer) handleSend(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	p.mu.Lock()
	p.received = append(p.received, req.Msg.AsMap())
	p.mu.Unlock()
	return connect.NewResponse(&structpb.Struct{}), nil
}

func (p *Peer) handleSubscribe(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
	stream *connect.ServerStream[structpb.Struct],
) error {
	ch := make(chan *structpb.Struct, 16)
	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.subscribers, ch)
		p.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-ch:
			if err := stream.Send(frame); err != nil {
				return err
			}
		}
	}
}

// Send broadcasts one envelope to every subscribed host. A host whose
// buffer is full misses the envelope rather than blocking the peer.
func (p *Peer) Send(payload map[string]any) error {
	frame, err := toStruct(payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subscribers {
		select {
		case ch <- frame:
		default:
		}
	}
	return nil
}

// Received returns a copy of every envelope received from hosts, oldest
// first.
func (p *Peer) Received() []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]map[string]any, len(p.received))
	copy(out, p.received)
	return out
}

// Subscribers reports how many hosts are currently subscribed.
func (p *Peer) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

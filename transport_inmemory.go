package inspectbridge

import "sync"

// InMemoryTransport is a Transport with no wire behind it: outbound
// messages are recorded, and peer events are injected by the embedding
// code. It backs the package's own tests and lets a host run the bridge
// without a live peer.
type InMemoryTransport struct {
	mu      sync.Mutex
	handler Handler
	sent    []map[string]any
}

// NewInMemoryTransport creates an empty in-memory transport.
func NewInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{}
}

// SendMessage records the outbound message.
func (t *InMemoryTransport) SendMessage(payload map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, payload)
}

// Bind attaches the handler that receives injected peer events.
func (t *InMemoryTransport) Bind(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Connect simulates the peer coming online.
func (t *InMemoryTransport) Connect() {
	if h := t.boundHandler(); h != nil {
		h.OnConnected()
	}
}

// Disconnect simulates the peer going away.
func (t *InMemoryTransport) Disconnect() {
	if h := t.boundHandler(); h != nil {
		h.OnDisconnected()
	}
}

// Deliver injects one inbound message as if sent by the peer.
func (t *InMemoryTransport) Deliver(msg Message) {
	if h := t.boundHandler(); h != nil {
		h.OnMessageReceived(msg)
	}
}

func (t *InMemoryTransport) boundHandler() Handler {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handler
}

// Sent returns a copy of every message sent so far, oldest first.
func (t *InMemoryTransport) Sent() []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]map[string]any, len(t.sent))
	copy(out, t.sent)
	return out
}

// LastSent returns the most recent message, or nil if nothing was sent.
func (t *InMemoryTransport) LastSent() map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return nil
	}
	return t.sent[len(t.sent)-1]
}

// Reset discards all recorded messages.
func (t *InMemoryTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = nil
}

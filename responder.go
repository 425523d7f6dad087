package inspectbridge

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Responder answers exactly one peer request. It is bound to the request id
// at construction and may be completed later, from any goroutine, without
// holding the client lock.
type Responder interface {
	// Success sends {id, success: value} to the peer.
	Success(value any)

	// Error sends {id, error: value} to the peer.
	Error(value any)
}

// oneShotResponder enforces the at-most-once reply contract. The second
// completion, through either method, is a logged no-op.
type oneShotResponder struct {
	id        int64
	transport Transport
	logger    *zap.Logger
	done      atomic.Bool
}

func newResponder(id int64, transport Transport, logger *zap.Logger) *oneShotResponder {
	return &oneShotResponder{id: id, transport: transport, logger: logger}
}

func (r *oneShotResponder) Success(value any) { r.complete("success", value) }

func (r *oneShotResponder) Error(value any) { r.complete("error", value) }

func (r *oneShotResponder) complete(key string, value any) {
	if !r.done.CompareAndSwap(false, true) {
		r.logger.Warn("request already answered, dropping reply",
			zap.Int64("id", r.id))
		return
	}
	r.transport.SendMessage(map[string]any{"id": r.id, key: value})
}

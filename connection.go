package inspectbridge

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Receiver handles one peer call into a plugin. The responder is nil when
// the peer did not ask for a reply. Receivers run while the client lock is
// held; long work should move to another goroutine, completing the
// responder whenever it finishes.
type Receiver func(params map[string]any, responder Responder)

// Connection is the live per-plugin channel handed to a plugin on
// activation. It exists only while the plugin is active.
type Connection interface {
	// Send pushes an unsolicited message from the plugin to the peer.
	Send(method string, params map[string]any)

	// Receive registers the handler for peer calls to the named method,
	// replacing any previous handler for that method.
	Receive(method string, receiver Receiver)
}

// pluginConnection is the concrete Connection bound to one (plugin,
// transport) pair. The client dispatches execute requests into it via call.
type pluginConnection struct {
	id        string // per-activation, for log correlation
	pluginID  string
	transport Transport
	logger    *zap.Logger

	mu        sync.RWMutex
	receivers map[string]Receiver
}

func newPluginConnection(pluginID string, transport Transport, logger *zap.Logger) *pluginConnection {
	return &pluginConnection{
		id:        uuid.NewString(),
		pluginID:  pluginID,
		transport: transport,
		logger:    logger,
		receivers: make(map[string]Receiver),
	}
}

// Send wraps the payload in an execute envelope naming this plugin as the
// api, the same shape the peer uses for calls in the other direction.
func (c *pluginConnection) Send(method string, params map[string]any) {
	c.transport.SendMessage(map[string]any{
		"method": "execute",
		"params": map[string]any{
			"api":    c.pluginID,
			"method": method,
			"params": params,
		},
	})
}

func (c *pluginConnection) Receive(method string, receiver Receiver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receivers[method] = receiver
}

// call dispatches one peer request to the registered receiver. Ownership of
// the responder transfers to the receiver; the caller neither waits for nor
// requires a reply.
func (c *pluginConnection) call(method string, params map[string]any, responder Responder) {
	c.mu.RLock()
	receiver, ok := c.receivers[method]
	c.mu.RUnlock()

	if !ok {
		c.logger.Warn("no receiver registered",
			zap.String("plugin", c.pluginID),
			zap.String("conn", c.id),
			zap.String("method", method))
		if responder != nil {
			responder.Error(map[string]any{
				"message": fmt.Sprintf("receiver %s not found for plugin %s", method, c.pluginID),
			})
		}
		return
	}
	receiver(params, responder)
}

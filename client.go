package inspectbridge

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ClientConfig configures a bridge Client.
type ClientConfig struct {
	// Transport is the channel to the remote inspection peer.
	// Required.
	Transport Transport

	// Logger receives local diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Recorder captures named lifecycle steps for introspection.
	// Defaults to a fresh recorder.
	Recorder *StateRecorder

	// DisableContainment lets failures inside entry points propagate to the
	// caller (and panics re-panic) instead of being reported and
	// suppressed. Intended for debug builds only.
	DisableContainment bool
}

// Validate checks ClientConfig for errors.
func (cfg *ClientConfig) Validate() error {
	if cfg.Transport == nil {
		return fmt.Errorf("%w: Transport is required", ErrInvalidConfig)
	}
	return nil
}

// Client is the bridge core: plugin registry, connection lifecycle tracker
// and message dispatcher behind one containment boundary.
//
// A single non-reentrant mutex guards the plugin map, the connection map
// and the connected flag together; every entry point holds it for its whole
// critical section. Plugin callbacks run under that lock and must not call
// back into the client.
type Client struct {
	cfg      ClientConfig
	logger   *zap.Logger
	recorder *StateRecorder

	mu          sync.Mutex
	plugins     map[string]Plugin
	connections map[string]*pluginConnection
	connected   bool
}

// NewClient creates a bridge client. The client starts disconnected; the
// transport flips it via OnConnected and OnDisconnected.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = NewStateRecorder()
	}

	return &Client{
		cfg:         cfg,
		logger:      cfg.Logger,
		recorder:    cfg.Recorder,
		plugins:     make(map[string]Plugin),
		connections: make(map[string]*pluginConnection),
	}, nil
}

// AddPlugin registers a plugin. If the peer is connected the registry
// change is pushed immediately. Returns ErrDuplicatePlugin if a plugin with
// the same identifier is already registered; the registry is unchanged.
func (c *Client) AddPlugin(p Plugin) error {
	return c.perform("addPlugin", func() error {
		c.logger.Debug("adding plugin", zap.String("plugin", p.Identifier()))
		step := c.recorder.Start("Add plugin " + p.Identifier())

		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.plugins[p.Identifier()]; ok {
			step.Fail()
			return fmt.Errorf("%w: %q", ErrDuplicatePlugin, p.Identifier())
		}
		c.plugins[p.Identifier()] = p
		step.Complete()

		if c.connected {
			c.refreshPluginsLocked()
		}
		return nil
	})
}

// RemovePlugin deactivates and unregisters a plugin. Returns
// ErrPluginNotFound if it was never registered; the registry is unchanged.
func (c *Client) RemovePlugin(p Plugin) error {
	return c.perform("removePlugin", func() error {
		c.logger.Debug("removing plugin", zap.String("plugin", p.Identifier()))

		c.mu.Lock()
		defer c.mu.Unlock()

		if _, ok := c.plugins[p.Identifier()]; !ok {
			return fmt.Errorf("%w: %q", ErrPluginNotFound, p.Identifier())
		}
		c.deactivateLocked(p)
		delete(c.plugins, p.Identifier())

		if c.connected {
			c.refreshPluginsLocked()
		}
		return nil
	})
}

// GetPlugin returns the registered plugin with the given identifier, or
// false if there is none.
func (c *Client) GetPlugin(identifier string) (Plugin, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.plugins[identifier]
	return p, ok
}

// HasPlugin reports whether a plugin with the given identifier is
// registered.
func (c *Client) HasPlugin(identifier string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.plugins[identifier]
	return ok
}

// Plugins returns all registered identifiers in sorted order.
func (c *Client) Plugins() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pluginIDsLocked()
}

func (c *Client) pluginIDsLocked() []string {
	ids := make([]string, 0, len(c.plugins))
	for id := range c.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OnConnected is invoked by the transport once the peer connection is
// established. Background plugins are activated; a plugin that is already
// active keeps its connection, so a repeated connected event cannot
// double-activate.
func (c *Client) OnConnected() {
	c.perform("onConnected", func() error {
		c.logger.Info("peer connected")

		c.mu.Lock()
		defer c.mu.Unlock()

		c.connected = true
		c.activateBackgroundPluginsLocked()
		return nil
	})
}

// OnDisconnected is invoked by the transport when the peer connection is
// lost. Every live connection is torn down and registry-change
// notifications stop until the next OnConnected.
func (c *Client) OnDisconnected() {
	c.perform("onDisconnected", func() error {
		c.logger.Info("peer disconnected")
		step := c.recorder.Start("Deactivate plugins on disconnect")

		c.mu.Lock()
		defer c.mu.Unlock()

		c.connected = false
		for _, p := range c.plugins {
			c.deactivateLocked(p)
		}
		step.Complete()
		return nil
	})
}

// OnMessageReceived dispatches one decoded message from the peer.
//
// A responder exists only when the message carries an id. Reply-bearing
// branches drop their reply, with a debug log, when no responder exists;
// the peer said it does not want one.
func (c *Client) OnMessageReceived(msg Message) {
	c.perform("onMessageReceived", func() error {
		c.mu.Lock()
		defer c.mu.Unlock()

		var responder Responder
		if msg.ID != nil {
			responder = newResponder(*msg.ID, c.cfg.Transport, c.logger)
		}

		switch msg.Method {
		case "getPlugins":
			if responder == nil {
				c.logger.Debug("dropping getPlugins reply, request has no id")
				return nil
			}
			ids := c.pluginIDsLocked()
			plugins := make([]any, len(ids))
			for i, id := range ids {
				plugins[i] = id
			}
			responder.Success(map[string]any{"plugins": plugins})
			return nil

		case "init":
			identifier, err := stringParam(msg.Params, "plugin")
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			p, ok := c.plugins[identifier]
			if !ok {
				return fmt.Errorf("%w: %q for method %q", ErrPluginNotFound, identifier, msg.Method)
			}
			if !p.RunsInBackground() {
				// A repeated init replaces the previous connection. The old
				// one is deactivated first so its callbacks are not leaked.
				c.deactivateLocked(p)
				c.activateLocked(p)
			}
			return nil

		case "deinit":
			identifier, err := stringParam(msg.Params, "plugin")
			if err != nil {
				return fmt.Errorf("deinit: %w", err)
			}
			p, ok := c.plugins[identifier]
			if !ok {
				return fmt.Errorf("%w: %q for method %q", ErrPluginNotFound, identifier, msg.Method)
			}
			if !p.RunsInBackground() {
				c.deactivateLocked(p)
			}
			return nil

		case "execute":
			api, err := stringParam(msg.Params, "api")
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}
			conn, ok := c.connections[api]
			if !ok {
				return fmt.Errorf("%w: %q for method %q", ErrConnectionNotFound, api, msg.Method)
			}
			method, err := stringParam(msg.Params, "method")
			if err != nil {
				return fmt.Errorf("execute: %w", err)
			}
			var params map[string]any
			if inner, ok := msg.Params["params"].(map[string]any); ok {
				params = inner
			}
			// Fire and forget: the connection owns the responder now and
			// may complete it later, off this lock.
			conn.call(method, params, responder)
			return nil

		default:
			if responder == nil {
				c.logger.Warn("received unknown method, no id to answer",
					zap.String("method", msg.Method))
				return nil
			}
			responder.Error(unknownMethodPayload(msg.Method))
			return nil
		}
	})
}

// Snapshot returns the diagnostic step log as display text.
func (c *Client) Snapshot() string {
	return c.recorder.Snapshot()
}

// StateElements returns the recorded diagnostic steps.
func (c *Client) StateElements() []StateElement {
	return c.recorder.Elements()
}

// SetStateListener installs a listener notified on every diagnostic state
// change.
func (c *Client) SetStateListener(l StateListener) {
	c.recorder.SetListener(l)
}

// Shutdown deactivates every live connection and detaches all plugins. A
// panicking OnDeactivated callback is converted to an error; all such
// errors are aggregated and returned. The client must not be used
// afterwards.
func (c *Client) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false

	var errs error
	for id := range c.connections {
		p, ok := c.plugins[id]
		if !ok {
			delete(c.connections, id)
			continue
		}
		if err := c.deactivateGuardedLocked(p); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	c.plugins = make(map[string]Plugin)
	return errs
}

// activateBackgroundPluginsLocked creates connections for every background
// plugin that does not already have one.
func (c *Client) activateBackgroundPluginsLocked() {
	for id, p := range c.plugins {
		if !p.RunsInBackground() {
			continue
		}
		if _, active := c.connections[id]; active {
			continue
		}
		c.activateLocked(p)
	}
}

func (c *Client) activateLocked(p Plugin) {
	conn := newPluginConnection(p.Identifier(), c.cfg.Transport, c.logger)
	c.connections[p.Identifier()] = conn
	c.logger.Debug("plugin activated",
		zap.String("plugin", p.Identifier()),
		zap.String("conn", conn.id))
	p.OnActivated(conn)
}

// deactivateLocked tears down the plugin's live connection if it has one;
// deactivating an inactive plugin is a no-op.
func (c *Client) deactivateLocked(p Plugin) {
	conn, ok := c.connections[p.Identifier()]
	if !ok {
		return
	}
	delete(c.connections, p.Identifier())
	c.logger.Debug("plugin deactivated",
		zap.String("plugin", p.Identifier()),
		zap.String("conn", conn.id))
	p.OnDeactivated()
}

func (c *Client) deactivateGuardedLocked(p Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s: panic during deactivation: %v", p.Identifier(), r)
		}
	}()
	c.deactivateLocked(p)
	return nil
}

// refreshPluginsLocked notifies the peer that the registry changed. The
// transport contract makes this non-blocking for the caller.
func (c *Client) refreshPluginsLocked() {
	c.cfg.Transport.SendMessage(refreshPluginsMessage())
}

// perform is the containment boundary wrapping every public entry point.
//
// Classified failures become a peer-visible error envelope when connected,
// or a local log line when not. Unclassified failures and panics are logged
// generically and never forwarded, so internal detail stays on the host. The
// error is also returned, giving in-process callers a typed result without
// a crash path. With DisableContainment set, fn runs bare.
func (c *Client) perform(op string, fn func() error) (err error) {
	if c.cfg.DisableContainment {
		return fn()
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("suppressed panic in bridge entry point",
				zap.String("op", op),
				zap.Any("panic", r))
			err = fmt.Errorf("panic in %s", op)
		}
	}()

	err = fn()
	if err == nil {
		return nil
	}
	if classified(err) {
		c.reportError(err)
		return err
	}
	c.logger.Error("suppressed failure in bridge entry point",
		zap.String("op", op),
		zap.Error(err))
	return err
}

// reportError forwards a classified failure to the peer when connected and
// logs it locally when not.
func (c *Client) reportError(err error) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if connected {
		c.cfg.Transport.SendMessage(errorEnvelope(err.Error()))
		return
	}
	c.logger.Error("bridge error", zap.Error(err))
}

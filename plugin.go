package inspectbridge

// Plugin is the interface implemented by feature modules exposed to the
// inspection peer. The registry holds a non-owning reference: the host
// application remains responsible for the plugin's lifetime.
type Plugin interface {
	// Identifier returns the plugin's unique identifier. It must be stable
	// for the lifetime of the plugin.
	Identifier() string

	// RunsInBackground reports whether the plugin is activated as soon as
	// the peer connects, rather than on demand via an init request.
	RunsInBackground() bool

	// OnActivated is called with the plugin's live connection when it is
	// activated. It runs while the client lock is held and must not call
	// back into the client.
	OnActivated(conn Connection)

	// OnDeactivated is called when the plugin's connection is torn down.
	// Same re-entrancy rule as OnActivated.
	OnDeactivated()
}

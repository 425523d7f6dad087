// Package inspectbridge is the in-process half of a debugging and
// inspection bridge embedded in an application.
//
// # Overview
//
// Independently developed plugins register with a central Client. A remote
// inspection peer, reached through a pluggable Transport, drives the client
// with structured messages; the client routes them to registry and lifecycle
// operations or to the live Connection of an active plugin.
//
// The client owns three pieces of state under one lock:
//
//   - the plugin registry (identifier → Plugin, unique keys)
//   - the live connections (identifier → connection, at most one per plugin)
//   - the connected flag that gates background activation and
//     registry-change notifications
//
// Every public entry point runs inside an error-containment boundary: a
// fault in a single plugin or handler becomes a peer-visible error reply or
// a local log line, never a crash of the host application.
//
// # Basic Usage
//
// Implement the Plugin interface and register it:
//
//	type networkPlugin struct{ conn inspectbridge.Connection }
//
//	func (p *networkPlugin) Identifier() string     { return "network" }
//	func (p *networkPlugin) RunsInBackground() bool { return true }
//	func (p *networkPlugin) OnDeactivated()         { p.conn = nil }
//	func (p *networkPlugin) OnActivated(conn inspectbridge.Connection) {
//	    p.conn = conn
//	    conn.Receive("getRequests", func(params map[string]any, r inspectbridge.Responder) {
//	        r.Success(map[string]any{"requests": []any{}})
//	    })
//	}
//
//	client, err := inspectbridge.NewClient(inspectbridge.ClientConfig{
//	    Transport: transport,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	client.AddPlugin(&networkPlugin{})
//
// The transport calls OnConnected, OnDisconnected and OnMessageReceived as
// peer events arrive; everything else follows from those.
package inspectbridge

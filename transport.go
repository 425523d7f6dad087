package inspectbridge

// Transport is the channel to the remote inspection peer. The connection
// manager that owns the socket, performs the handshake and frames messages
// lives behind this interface; the client only hands it pre-built
// structured messages.
type Transport interface {
	// SendMessage delivers one structured message to the peer. It is called
	// with the client lock held and therefore must not block and must not
	// call back into the client.
	SendMessage(payload map[string]any)
}

// Handler receives transport lifecycle events and inbound messages.
// *Client implements Handler; transports drive it as peer events arrive.
type Handler interface {
	// OnConnected is called once the peer connection is established.
	OnConnected()

	// OnDisconnected is called when the peer connection is lost.
	OnDisconnected()

	// OnMessageReceived is called once per decoded inbound message.
	OnMessageReceived(msg Message)
}

// Package memtransport provides an in-memory net.Listener and HTTP client
// built on net.Pipe(). It lets a bridge host and an in-process inspection
// peer speak full Connect RPC without TCP, Unix sockets, or any other
// OS-level networking.
//
// Usage:
//
//	ln := memtransport.New()
//
//	// Peer side
//	srv := &http.Server{Handler: peer.Handler()}
//	go srv.Serve(ln)
//
//	// Host side — dials through net.Pipe()
//	transport, _ := connecttransport.New(connecttransport.Config{
//	    BaseURL:    "http://mem",
//	    HTTPClient: ln.HTTPClient(),
//	    Handler:    client,
//	})
package memtransport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
)

// Listener is an in-memory net.Listener backed by net.Pipe(). Each
// DialContext call creates a pipe pair: one end goes to the dialer, the
// other is handed to Accept.
type Listener struct {
	conns  chan net.Conn
	once   sync.Once
	closed chan struct{}
}

// New creates a listener ready for use.
func New() *Listener {
	return &Listener{
		conns:  make(chan net.Conn, 16),
		closed: make(chan struct{}),
	}
}

// Accept waits for and returns the next connection. It blocks until a
// client dials or the listener is closed.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case conn, ok := <-l.conns:
		if !ok {
			return nil, errors.New("memtransport: listener closed")
		}
		return conn, nil
	case <-l.closed:
		return nil, errors.New("memtransport: listener closed")
	}
}

// Close stops the listener; blocked Accept calls return an error. Safe to
// call more than once.
func (l *Listener) Close() error {
	l.once.Do(func() {
		close(l.closed)
	})
	return nil
}

// Addr returns a placeholder address for the in-memory listener.
func (l *Listener) Addr() net.Addr {
	return memAddr{}
}

// DialContext creates a new pipe pair, sending the server end to Accept and
// returning the client end. Intended as http.Transport.DialContext.
func (l *Listener) DialContext(ctx context.Context, _, _ string) (net.Conn, error) {
	select {
	case <-l.closed:
		return nil, errors.New("memtransport: listener closed")
	default:
	}

	serverConn, clientConn := net.Pipe()

	select {
	case l.conns <- serverConn:
		return clientConn, nil
	case <-l.closed:
		serverConn.Close()
		clientConn.Close()
		return nil, errors.New("memtransport: listener closed")
	case <-ctx.Done():
		serverConn.Close()
		clientConn.Close()
		return nil, ctx.Err()
	}
}

// HTTPClient returns an *http.Client that dials through this listener.
// net.Pipe carries no TLS, so connections stay HTTP/1.1.
func (l *Listener) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext:       l.DialContext,
			ForceAttemptHTTP2: false,
		},
	}
}

// memAddr is the placeholder net.Addr for the in-memory listener.
type memAddr struct{}

func (memAddr) Network() string { return "mem" }
func (memAddr) String() string  { return "mem://in-process" }

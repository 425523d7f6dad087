package memtransport_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/example/inspect-bridge-go/internal/memtransport"
)

func TestListenerIsNetListener(t *testing.T) {
	var _ net.Listener = memtransport.New()
}

func TestAddr(t *testing.T) {
	ln := memtransport.New()
	defer ln.Close()

	addr := ln.Addr()
	if addr.Network() != "mem" {
		t.Errorf("Network() = %q, want %q", addr.Network(), "mem")
	}
	if addr.String() != "mem://in-process" {
		t.Errorf("String() = %q, want %q", addr.String(), "mem://in-process")
	}
}

func TestDialAndAccept(t *testing.T) {
	ln := memtransport.New()
	defer ln.Close()

	go func() {
		conn, err := ln.DialContext(context.Background(), "", "")
		if err != nil {
			t.Errorf("DialContext failed: %v", err)
			return
		}
		conn.Write([]byte("ping"))
		conn.Close()
	}()

	conn, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	defer conn.Close()

	buf := make([]byte, 16)
	n, _ := conn.Read(buf)
	if string(buf[:n]) != "ping" {
		t.Errorf("read = %q, want %q", buf[:n], "ping")
	}
}

func TestHTTPRoundTrip(t *testing.T) {
	ln := memtransport.New()

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fmt.Fprintf(w, "echo: %s", body)
	})}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	resp, err := ln.HTTPClient().Post("http://mem/echo", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "echo: " {
		t.Errorf("body = %q, want %q", body, "echo: ")
	}
}

func TestConcurrentRequests(t *testing.T) {
	ln := memtransport.New()

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		fmt.Fprint(w, r.URL.Query().Get("id"))
	})}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	client := ln.HTTPClient()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			resp, err := client.Get(fmt.Sprintf("http://mem/?id=%d", id))
			if err != nil {
				errs <- fmt.Errorf("request %d: %w", id, err)
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if want := fmt.Sprintf("%d", id); string(body) != want {
				errs <- fmt.Errorf("request %d: body = %q, want %q", id, body, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestClose(t *testing.T) {
	ln := memtransport.New()

	if err := ln.Close(); err != nil {
		t.Errorf("first Close() error: %v", err)
	}
	if err := ln.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}

	if _, err := ln.Accept(); err == nil {
		t.Error("Accept() after Close() should return error")
	}
	if _, err := ln.DialContext(context.Background(), "", ""); err == nil {
		t.Error("DialContext() after Close() should return error")
	}
}

func TestDialContextCanceled(t *testing.T) {
	ln := memtransport.New()
	defer ln.Close()

	// Fill the pending-connection buffer so the next dial has to block.
	for i := 0; i < 16; i++ {
		ln.DialContext(context.Background(), "", "")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ln.DialContext(ctx, "", ""); err == nil {
		t.Fatal("DialContext() with canceled context should return error")
	}
}

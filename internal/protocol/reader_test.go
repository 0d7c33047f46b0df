package protocol

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/bannerscan/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serveOnce starts a loopback listener that hands its first connection to
// handle, and returns a client connection to it along with the port.
func serveOnce(t *testing.T, handle func(conn net.Conn)) (net.Conn, uint16) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn, uint16(ln.Addr().(*net.TCPAddr).Port) //nolint:gosec // listener ports fit in uint16
}

// greet writes payload and holds the connection until the client leaves.
func greet(payload string) func(net.Conn) {
	return func(conn net.Conn) {
		_, _ = io.WriteString(conn, payload)
		_, _ = io.Copy(io.Discard, conn)
	}
}

// TestReaderReadBanner tests banner capture against fixture servers.
func TestReaderReadBanner(t *testing.T) {
	t.Parallel()

	t.Run("reads FTP greeting", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, greet("220 Test FTP Server (vsFTPd 3.0.3) ready.\r\n"))
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if banner.Text != "220 Test FTP Server (vsFTPd 3.0.3) ready." {
			t.Errorf("unexpected banner %q", banner.Text)
		}
		if got := Classify(banner.Text); got.Kind != model.ServiceFTP {
			t.Errorf("expected FTP, got %s", got.Kind)
		}
	})

	t.Run("skips blank lines before the greeting", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, greet("\r\n\r\n220 Test FTP Server (vsFTPd 3.0.3) ready.\r\n"))
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if banner.Text != "220 Test FTP Server (vsFTPd 3.0.3) ready." {
			t.Errorf("unexpected banner %q", banner.Text)
		}
		got := Classify(banner.Text)
		if got.Kind != model.ServiceFTP || got.Detail != "Test FTP Server (vsFTPd 3.0.3) ready." {
			t.Errorf("expected FTP with detail, got %+v", got)
		}
	})

	t.Run("only blank lines yields no banner", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, func(conn net.Conn) {
			_, _ = io.WriteString(conn, "\r\n\r\n")
		})
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !banner.IsEmpty() {
			t.Errorf("expected no banner, got %q", banner.Text)
		}
	})

	t.Run("reads SMTP greeting", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, greet("220 test.local ESMTP Postfix (Ubuntu)\r\n"))
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		id := Classify(banner.Text)
		if id.Kind != model.ServiceSMTP || id.Detail != "test.local" {
			t.Errorf("expected SMTP test.local, got %+v", id)
		}
	})

	t.Run("reads pushed HTTP response head", func(t *testing.T) {
		t.Parallel()

		payload := "HTTP/1.1 200 OK\nServer: TestServer/1.0\nX-Powered-By: Python\nContent-Type: text/html\nContent-Length: 25\n\n<h1>Test HTTP Server</h1>"
		conn, port := serveOnce(t, greet(payload))
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(banner.Text, "<h1>") {
			t.Errorf("body should not be captured: %q", banner.Text)
		}
		id := Classify(banner.Text)
		if id.Kind != model.ServiceHTTP || id.Detail != "TestServer/1.0" {
			t.Errorf("expected HTTP TestServer/1.0, got %+v", id)
		}
	})

	t.Run("reads multi-line greeting to final line", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, greet("220-mail.example.com ESMTP Exim 4.94\r\n220-No UCE\r\n220 Ready\r\n"))
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "220-mail.example.com ESMTP Exim 4.94\n220-No UCE\n220 Ready"
		if banner.Text != want {
			t.Errorf("expected %q, got %q", want, banner.Text)
		}
	})

	t.Run("probes configured HTTP port immediately", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Server", "TestServer/1.0")
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		addr := srv.Listener.Addr().(*net.TCPAddr)
		conn, err := net.Dial("tcp", addr.String())
		if err != nil {
			t.Fatalf("failed to dial: %v", err)
		}
		port := uint16(addr.Port) //nolint:gosec // listener ports fit in uint16
		r := NewReader(WithHTTPPorts(port), WithReaderLogger(quietLogger()))

		// A passive wait would consume the whole timeout; the probe must go first.
		start := time.Now()
		banner, err := r.ReadBanner(context.Background(), conn, port, 4*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("HTTP port waited passively: %v", elapsed)
		}
		id := Classify(banner.Text)
		if id.Kind != model.ServiceHTTP || id.Detail != "TestServer/1.0" {
			t.Errorf("expected HTTP TestServer/1.0, got %+v (%q)", id, banner.Text)
		}
	})

	t.Run("probes silent port after passive wait", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, func(conn net.Conn) {
			br := bufio.NewReader(conn)
			line, err := br.ReadString('\n')
			if err != nil || !strings.HasPrefix(line, "HEAD ") {
				return
			}
			_, _ = io.WriteString(conn, "HTTP/1.0 200 OK\r\nServer: Late/1.0\r\n\r\n")
			_, _ = io.Copy(io.Discard, br)
		})
		r := NewReader(WithHTTPPorts(), WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := Classify(banner.Text); got.Detail != "Late/1.0" {
			t.Errorf("expected Late/1.0, got %+v", got)
		}
	})

	t.Run("silent peer times out with no banner", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, func(conn net.Conn) {
			_, _ = io.Copy(io.Discard, conn)
		})
		r := NewReader(WithReaderLogger(quietLogger()))

		start := time.Now()
		banner, err := r.ReadBanner(context.Background(), conn, port, 300*time.Millisecond)
		if !errors.Is(err, ErrReadTimeout) {
			t.Errorf("expected ErrReadTimeout, got %v", err)
		}
		if !banner.IsEmpty() {
			t.Errorf("expected no banner, got %q", banner.Text)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("read not bounded by timeout: %v", elapsed)
		}
	})

	t.Run("peer closing first yields no banner", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, func(net.Conn) {})
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !banner.IsEmpty() {
			t.Errorf("expected no banner, got %q", banner.Text)
		}
	})

	t.Run("cancellation unblocks read", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, func(conn net.Conn) {
			_, _ = io.Copy(io.Discard, conn)
		})
		r := NewReader(WithReaderLogger(quietLogger()))

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(50*time.Millisecond, cancel)

		start := time.Now()
		_, err := r.ReadBanner(ctx, conn, port, 10*time.Second)
		if !errors.Is(err, ErrReadError) || !errors.Is(err, context.Canceled) {
			t.Errorf("expected cancelled read error, got %v", err)
		}
		if elapsed := time.Since(start); elapsed > 3*time.Second {
			t.Errorf("cancellation not observed promptly: %v", elapsed)
		}
	})

	t.Run("connection is closed on return", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, greet("220 Test FTP Server (vsFTPd 3.0.3) ready.\r\n"))
		r := NewReader(WithReaderLogger(quietLogger()))

		if _, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := conn.Write([]byte("x")); !errors.Is(err, net.ErrClosed) {
			t.Errorf("expected closed connection, got %v", err)
		}
	})
}

// TestReaderFollowUp tests the capability query after a greeting.
func TestReaderFollowUp(t *testing.T) {
	t.Parallel()

	t.Run("sends HELP after FTP greeting", func(t *testing.T) {
		t.Parallel()

		received := make(chan string, 1)
		conn, port := serveOnce(t, func(conn net.Conn) {
			_, _ = io.WriteString(conn, "220 Test FTP Server (vsFTPd 3.0.3) ready.\r\n")
			br := bufio.NewReader(conn)
			line, _ := br.ReadString('\n')
			received <- strings.TrimSpace(line)
			_, _ = io.WriteString(conn, "214-The following commands are recognized.\r\n USER PASS QUIT\r\n214 Help OK.\r\n")
			_, _ = io.Copy(io.Discard, br)
		})
		r := NewReader(WithFollowUp(true), WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := <-received; got != "HELP" {
			t.Errorf("expected HELP, got %q", got)
		}
		if len(banner.Extra) != 3 {
			t.Fatalf("expected 3 reply lines, got %d: %q", len(banner.Extra), banner.Extra)
		}
		if banner.Extra[2] != "214 Help OK." {
			t.Errorf("unexpected final line %q", banner.Extra[2])
		}
	})

	t.Run("sends EHLO after SMTP greeting", func(t *testing.T) {
		t.Parallel()

		received := make(chan string, 1)
		conn, port := serveOnce(t, func(conn net.Conn) {
			_, _ = io.WriteString(conn, "220 test.local ESMTP Postfix (Ubuntu)\r\n")
			br := bufio.NewReader(conn)
			line, _ := br.ReadString('\n')
			received <- strings.TrimSpace(line)
			_, _ = io.WriteString(conn, "250-test.local\r\n250-PIPELINING\r\n250 8BITMIME\r\n")
			_, _ = io.Copy(io.Discard, br)
		})
		r := NewReader(WithFollowUp(true), WithHeloName("scanner.test"), WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := <-received; got != "EHLO scanner.test" {
			t.Errorf("expected EHLO scanner.test, got %q", got)
		}
		want := []string{"250-test.local", "250-PIPELINING", "250 8BITMIME"}
		if strings.Join(banner.Extra, "|") != strings.Join(want, "|") {
			t.Errorf("expected %q, got %q", want, banner.Extra)
		}
	})

	t.Run("disabled by default", func(t *testing.T) {
		t.Parallel()

		conn, port := serveOnce(t, greet("220 test.local ESMTP Postfix (Ubuntu)\r\n"))
		r := NewReader(WithReaderLogger(quietLogger()))

		banner, err := r.ReadBanner(context.Background(), conn, port, 2*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if banner.Extra != nil {
			t.Errorf("expected no follow-up, got %q", banner.Extra)
		}
	})
}

// TestDecode tests text cleanup of raw banner bytes.
func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{name: "plain ASCII", raw: []byte("220 ready"), want: "220 ready"},
		{name: "UTF-8 kept", raw: []byte("220 café"), want: "220 café"},
		{name: "Latin-1 decoded", raw: []byte{'c', 'a', 'f', 0xe9}, want: "café"},
		{name: "escape sequences stripped", raw: []byte("a\x1b[31mb\x07"), want: "a[31mb"},
		{name: "tab kept", raw: []byte("a\tb"), want: "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := decode(tt.raw); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestNewReader tests Reader construction.
func TestNewReader(t *testing.T) {
	t.Parallel()

	r := NewReader()
	for _, port := range DefaultHTTPPorts {
		if !r.IsHTTPPort(port) {
			t.Errorf("expected %d to be an HTTP port", port)
		}
	}
	if r.IsHTTPPort(21) {
		t.Error("21 should not be an HTTP port")
	}

	r = NewReader(WithHTTPPorts(9000))
	if r.IsHTTPPort(80) || !r.IsHTTPPort(9000) {
		t.Error("WithHTTPPorts should replace the default set")
	}
}

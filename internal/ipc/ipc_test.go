package ipc

import (
	"context"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wlframe/internal/dispatch"
	"github.com/1broseidon/wlframe/internal/logging"
	"github.com/1broseidon/wlframe/internal/shm"
	"github.com/1broseidon/wlframe/internal/trace"
	"github.com/1broseidon/wlframe/internal/window"
)

const inspectTrace = `
offer_data:
  100:
    text/plain: hi
steps:
  - action: create_window
    title: inspect
    width: 200
    height: 100
    decorated: true
  - event: toplevel_configure
    window: 1
    width: 400
    height: 300
  - event: surface_configure
    window: 1
    serial: 2
  - pump: true
  - event: offer_created
    offer: 100
  - event: offer_mime
    offer: 100
    mime: text/plain
  - event: selection
    offer: 100
`

// startSession replays inspectTrace through a running dispatch loop and
// serves it on a socket in a temp dir.
func startSession(t *testing.T) (*Client, *dispatch.Loop, context.CancelFunc) {
	t.Helper()
	tr, err := trace.Parse([]byte(inspectTrace))
	if err != nil {
		t.Fatalf("parse trace: %v", err)
	}
	opts := window.DefaultOptions()
	opts.Allocator = shm.HeapAllocator{}
	opts.Logger = logging.Discard()
	env, err := trace.NewEnv(tr, opts, nil)
	if err != nil {
		t.Fatalf("new env: %v", err)
	}
	loop := dispatch.New(env.Session, dispatch.Config{Logger: opts.Logger})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	go loop.Run(ctx)
	if err := trace.NewPlayer(env, &trace.Looped{Ctx: ctx, Loop: loop}, opts.Logger).Run(tr); err != nil {
		cancel()
		t.Fatalf("replay: %v", err)
	}

	srv, err := NewServer(loop, ServerConfig{
		SocketPath: filepath.Join(t.TempDir(), "wlframe.sock"),
		Source:     "inspect.yaml",
		Logger:     opts.Logger,
	})
	if err != nil {
		cancel()
		t.Fatalf("new server: %v", err)
	}
	if err := srv.Start(); err != nil {
		cancel()
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
		srv.Stop()
	})
	return NewClient(srv.SocketPath()), loop, cancel
}

func TestServer_StatusWindowsAndOffers(t *testing.T) {
	client, _, _ := startSession(t)

	status, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Windows != 1 || status.Offers != 1 || status.Source != "inspect.yaml" {
		t.Fatalf("unexpected status %+v", status)
	}

	windows, err := client.GetWindows()
	if err != nil {
		t.Fatalf("GetWindows: %v", err)
	}
	if len(windows.Windows) != 1 {
		t.Fatalf("expected one window, got %d", len(windows.Windows))
	}
	w := windows.Windows[0]
	if w.Title != "inspect" || w.Width != 400 || w.Height != 300 {
		t.Fatalf("unexpected window %+v", w)
	}

	one, err := client.GetWindow(w.ID)
	if err != nil {
		t.Fatalf("GetWindow: %v", err)
	}
	if one.Surface != w.Surface {
		t.Fatalf("GetWindow surface = %d, want %d", one.Surface, w.Surface)
	}

	offers, err := client.GetOffers()
	if err != nil {
		t.Fatalf("GetOffers: %v", err)
	}
	if len(offers.Offers) != 1 || offers.Offers[0].ID != 100 {
		t.Fatalf("unexpected offers %+v", offers.Offers)
	}
	if got := offers.Offers[0].Mimes; len(got) != 1 || got[0] != "text/plain" {
		t.Fatalf("unexpected offer mimes %v", got)
	}
}

func TestServer_Errors(t *testing.T) {
	client, _, _ := startSession(t)

	if _, err := client.GetWindow(42); err == nil || !strings.Contains(err.Error(), "unknown window 42") {
		t.Fatalf("expected unknown window error, got %v", err)
	}

	var resp Response
	if err := client.do(CommandType("EXPLODE"), nil, &resp); err == nil || !strings.Contains(err.Error(), "Unknown command: EXPLODE") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestServer_StoppedSessionReportsUnavailable(t *testing.T) {
	client, loop, cancel := startSession(t)
	cancel()
	<-loop.Done()

	if _, err := client.GetStatus(); err == nil || !strings.Contains(err.Error(), "Session unavailable") {
		t.Fatalf("expected unavailable session, got %v", err)
	}
}

func TestServer_InvalidRequest(t *testing.T) {
	client, _, _ := startSession(t)

	conn, err := net.Dial("unix", client.socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(buf[:n]), "Invalid request") {
		t.Fatalf("unexpected reply %q", buf[:n])
	}
}

func TestClient_NoServer(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	if err := c.Ping(); err == nil || !strings.Contains(err.Error(), "failed to connect") {
		t.Fatalf("expected connect failure, got %v", err)
	}
}

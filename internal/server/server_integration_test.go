package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/ayusman/handpointer/internal/gesture"
	"github.com/ayusman/handpointer/internal/store"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatusHub_Broadcast(t *testing.T) {
	hub := NewStatusHub(zaptest.NewLogger(t))
	srv := New(Config{Hub: hub})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	// Publishing without clients is a no-op.
	hub.Publish(gesture.Snapshot{Frame: 1})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.Clients() == 1 })

	hub.Publish(gesture.Snapshot{Frame: 7, Scroll: gesture.ScrollSnapshot{Present: true, Active: true}})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var snap gesture.Snapshot
	if err := json.Unmarshal(msg, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Frame != 7 || !snap.Scroll.Active {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	hub.Close()
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
	waitFor(t, func() bool { return hub.Clients() == 0 })

	// A closed hub refuses new clients.
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() after close error = %v", err)
	}
	defer late.Close()
	if _, _, err := late.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close for late client, got %v", err)
	}
}

func TestServer_ServeShutsDown(t *testing.T) {
	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	hub := NewStatusHub(nil)
	srv := New(Config{
		Status:  &fakeStatus{enabled: true},
		Hub:     hub,
		Frames:  newFakeFrames(),
		Store:   s,
		ScreenW: 1920,
		ScreenH: 1080,
		Logger:  zaptest.NewLogger(t),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	for _, path := range []string{"/api/health", "/api/status", "/api/recordings"} {
		resp, err := http.Get(base + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}

	// An open stream must not hold up shutdown.
	streamResp, err := http.Get(base + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer streamResp.Body.Close()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestServer_RunReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	srv := New(Config{Addr: ln.Addr().String()})
	if err := srv.Run(context.Background()); err == nil {
		t.Error("expected error when the address is in use")
	}
}

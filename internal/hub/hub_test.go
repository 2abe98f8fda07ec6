package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil || line != ": connected\n" {
		t.Fatalf("expected connected comment, got %q (%v)", line, err)
	}

	waitFor(t, func() bool { return h.ClientCount() == 1 })
	h.Broadcast("batch_processed", map[string]int{"batch": 2})

	var frame []string
	for len(frame) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read frame: %v", err)
		}
		if line = strings.TrimSpace(line); line != "" {
			frame = append(frame, line)
		}
	}
	if frame[0] != "event: batch_processed" || frame[1] != `data: {"batch":2}` {
		t.Errorf("unexpected frame %q", frame)
	}
}

func TestHubDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New()
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	defer srv.Close()

	reqCtx, reqCancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()

	waitFor(t, func() bool { return h.ClientCount() == 1 })
	reqCancel()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestHubStopClosesStreams(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New()
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer resp.Body.Close()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return h.ClientCount() == 0 })

	// New connections are refused once the hub has stopped
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := New()
	for i := 0; i < cap(h.broadcast)+10; i++ {
		h.Broadcast("sync_started", nil)
	}
	if len(h.broadcast) != cap(h.broadcast) {
		t.Errorf("queue length = %d, want %d", len(h.broadcast), cap(h.broadcast))
	}
}

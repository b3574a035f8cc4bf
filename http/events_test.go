package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	nethttp "net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/lumi-notes/domain"
	"github.com/vinizap/lumi-notes/events"
)

func TestEventStream(t *testing.T) {
	ts := newTestServer(t, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go ts.App().Listener(ln)
	t.Cleanup(func() { _ = ts.App().ShutdownWithTimeout(time.Second) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := nethttp.NewRequestWithContext(ctx, "GET", "http://"+ln.Addr().String()+"/api/events", nil)
	resp, err := nethttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get(fiber.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	// The subscription is registered asynchronously, so keep publishing until
	// an event arrives.
	note := &domain.Note{ID: 7, Title: "live"}
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()

	var eventType string
	for {
		select {
		case <-tick.C:
			ts.hub.NoteUpdated(note)
		case line, ok := <-lines:
			if !ok {
				t.Fatal("stream closed before an event arrived")
			}
			if v, found := strings.CutPrefix(line, "event: "); found {
				eventType = v
				continue
			}
			if v, found := strings.CutPrefix(line, "data: "); found {
				var ev events.Event
				if err := json.Unmarshal([]byte(v), &ev); err != nil {
					t.Fatalf("event data %q: %v", v, err)
				}
				if eventType != events.NoteUpdated || ev.NoteID != 7 || ev.Note == nil || ev.Note.Title != "live" {
					t.Errorf("event %q = %+v", eventType, ev)
				}
				return
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestEventStreamHubStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := events.NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	s := NewServer(stubStore{}, nil, hub, Options{})
	resp := do(t, s.App(), "GET", "/api/events", "")
	if resp.status != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.status)
	}
}

package events

import (
	"context"
	"testing"
	"time"

	"github.com/vinizap/lumi-notes/domain"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func receive(t *testing.T, s *Subscription) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-s.C:
		return ev, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}, false
}

func TestHubFanOut(t *testing.T) {
	h, _ := startHub(t)

	a := h.Subscribe()
	b := h.Subscribe()
	defer a.Close()
	defer b.Close()

	h.NoteCreated(&domain.Note{ID: 3, Title: "x"})

	for _, s := range []*Subscription{a, b} {
		ev, ok := receive(t, s)
		if !ok || ev.Type != NoteCreated || ev.NoteID != 3 || ev.Note == nil {
			t.Errorf("event = %+v, ok = %v", ev, ok)
		}
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h, _ := startHub(t)

	s := h.Subscribe()
	s.Close()
	if _, ok := receive(t, s); ok {
		t.Error("channel should be closed after Close")
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h, _ := startHub(t)

	slow := h.Subscribe()
	fast := h.Subscribe()
	defer fast.Close()

	for i := 0; i < subscriberBuffer+1; i++ {
		h.NoteDeleted(int64(i))
		if _, ok := receive(t, fast); !ok {
			t.Fatalf("fast subscriber closed at event %d", i)
		}
	}

	n := 0
	for range slow.C {
		n++
	}
	if n != subscriberBuffer {
		t.Errorf("slow subscriber got %d buffered events before being dropped, want %d", n, subscriberBuffer)
	}
}

func TestHubStop(t *testing.T) {
	h, cancel := startHub(t)
	s := h.Subscribe()
	cancel()

	if _, ok := receive(t, s); ok {
		t.Error("channel should be closed when the hub stops")
	}
	if h.Subscribe() != nil {
		t.Error("Subscribe() after stop should return nil")
	}
	s.Close()
}

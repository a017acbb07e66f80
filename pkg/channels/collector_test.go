package channels

import (
	"sync"
	"testing"
	"time"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
)

type flushRecorder struct {
	mu     sync.Mutex
	events []bus.AlbumEvent
	feeds  []string
	signal chan struct{}
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{signal: make(chan struct{}, 8)}
}

func (r *flushRecorder) record(feed string, ev bus.AlbumEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.feeds = append(r.feeds, feed)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *flushRecorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("album was never flushed")
	}
}

func (r *flushRecorder) snapshot() ([]bus.AlbumEvent, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bus.AlbumEvent(nil), r.events...), append([]string(nil), r.feeds...)
}

func TestCollectorFlushesGroupAfterQuietPeriod(t *testing.T) {
	rec := newFlushRecorder()
	c := newAlbumCollector(20*time.Millisecond, rec.record)

	c.add("feed_a", "g1", bus.AlbumItem{MessageID: 1, Caption: "first"})
	c.add("feed_a", "g1", bus.AlbumItem{MessageID: 2})
	c.add("feed_a", "g1", bus.AlbumItem{MessageID: 3})

	rec.wait(t)
	events, feeds := rec.snapshot()
	if len(events) != 1 {
		t.Fatalf("flushes = %d, want 1", len(events))
	}
	if feeds[0] != "feed_a" {
		t.Errorf("feed = %q", feeds[0])
	}
	ev := events[0]
	if ev.GroupID != "g1" || len(ev.Items) != 3 {
		t.Fatalf("event = %+v", ev)
	}
	for i, item := range ev.Items {
		if item.MessageID != i+1 {
			t.Errorf("item %d arrived out of order: id %d", i, item.MessageID)
		}
	}
}

func TestCollectorKeepsGroupsSeparate(t *testing.T) {
	rec := newFlushRecorder()
	c := newAlbumCollector(20*time.Millisecond, rec.record)

	c.add("feed_a", "g1", bus.AlbumItem{MessageID: 1})
	c.add("feed_b", "g2", bus.AlbumItem{MessageID: 2})
	c.add("feed_a", "g1", bus.AlbumItem{MessageID: 3})

	rec.wait(t)
	rec.wait(t)
	events, _ := rec.snapshot()
	if len(events) != 2 {
		t.Fatalf("flushes = %d, want 2", len(events))
	}
	sizes := map[string]int{}
	for _, ev := range events {
		sizes[ev.GroupID] = len(ev.Items)
	}
	if sizes["g1"] != 2 || sizes["g2"] != 1 {
		t.Errorf("group sizes = %v", sizes)
	}
}

func TestCollectorStopDropsPending(t *testing.T) {
	rec := newFlushRecorder()
	c := newAlbumCollector(20*time.Millisecond, rec.record)

	c.add("feed_a", "g1", bus.AlbumItem{MessageID: 1})
	c.stop()

	time.Sleep(60 * time.Millisecond)
	events, _ := rec.snapshot()
	if len(events) != 0 {
		t.Errorf("stopped collector still flushed: %v", events)
	}
}

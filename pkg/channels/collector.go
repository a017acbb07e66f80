package channels

import (
	"sync"
	"time"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
)

// defaultFlushDelay is how long a media group waits for further items before
// it is flushed as one album event.
const defaultFlushDelay = 2 * time.Second

// albumCollector assembles album batches. The Bot API delivers each album
// item as its own update sharing a media_group_id; the mirror core expects
// one atomic batch per album. Items are buffered per group id and flushed
// after a quiet period, preserving arrival order.
type albumCollector struct {
	mu         sync.Mutex
	pending    map[string]*pendingAlbum
	flushDelay time.Duration
	flush      func(feed string, ev bus.AlbumEvent)
}

type pendingAlbum struct {
	feed  string
	items []bus.AlbumItem
	timer *time.Timer
}

func newAlbumCollector(flushDelay time.Duration, flush func(feed string, ev bus.AlbumEvent)) *albumCollector {
	if flushDelay <= 0 {
		flushDelay = defaultFlushDelay
	}
	return &albumCollector{
		pending:    make(map[string]*pendingAlbum),
		flushDelay: flushDelay,
		flush:      flush,
	}
}

// add buffers one album item and (re)arms the flush timer for its group.
func (c *albumCollector) add(feed, groupID string, item bus.AlbumItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[groupID]
	if !ok {
		p = &pendingAlbum{feed: feed}
		c.pending[groupID] = p
		p.timer = time.AfterFunc(c.flushDelay, func() { c.flushGroup(groupID) })
	} else {
		p.timer.Reset(c.flushDelay)
	}
	p.items = append(p.items, item)
}

func (c *albumCollector) flushGroup(groupID string) {
	c.mu.Lock()
	p, ok := c.pending[groupID]
	if ok {
		delete(c.pending, groupID)
	}
	c.mu.Unlock()

	if !ok || len(p.items) == 0 {
		return
	}
	c.flush(p.feed, bus.AlbumEvent{GroupID: groupID, Items: p.items})
}

// stop drops all pending groups without flushing.
func (c *albumCollector) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.pending {
		p.timer.Stop()
		delete(c.pending, id)
	}
}

// Package mirror implements the state-reconciliation core of mirrorclaw: it
// decides which incoming posts get mirrored, keeps the durable source-to-
// destination mapping, reconciles album batches, and propagates edits and
// retractions. All state mutation funnels through the store's single
// mutation gate; collaborator I/O (classify, rewrite, media transfer,
// send/edit/delete) happens outside of it.
package mirror

import (
	"context"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
	"github.com/tinyland-inc/mirrorclaw/pkg/dedup"
	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
	"github.com/tinyland-inc/mirrorclaw/pkg/media"
	"github.com/tinyland-inc/mirrorclaw/pkg/moderation"
	"github.com/tinyland-inc/mirrorclaw/pkg/state"
)

// Moderation is what the pipeline needs from the classify/rewrite
// collaborators. *moderation.Moderator implements it.
type Moderation interface {
	Classify(ctx context.Context, text string) moderation.Verdict
	Rewrite(ctx context.Context, text string) string
}

// Options wires a Mirror.
type Options struct {
	Store             *state.Store
	Window            *dedup.Window
	Moderation        Moderation
	Transport         Transport
	Media             *media.Store
	DestinationHandle string
}

// Mirror consumes transport events and drives the moderation pipeline, the
// album reconciler and the edit/delete propagator against the shared state.
type Mirror struct {
	store      *state.Store
	window     *dedup.Window
	mod        Moderation
	transport  Transport
	media      *media.Store
	destHandle string
}

func New(opts Options) *Mirror {
	opts.Window.Restore(opts.Store.History())
	return &Mirror{
		store:      opts.Store,
		window:     opts.Window,
		mod:        opts.Moderation,
		transport:  opts.Transport,
		media:      opts.Media,
		destHandle: opts.DestinationHandle,
	}
}

// Run drains the bus until ctx is canceled. A single consumer goroutine
// processes events one at a time, so handlers never race on window eviction
// order or on the persisted document.
func (m *Mirror) Run(ctx context.Context, eventBus *bus.EventBus) {
	logger.InfoC("mirror", "Mirror loop started")
	for {
		ev, ok := eventBus.Consume(ctx)
		if !ok {
			logger.InfoC("mirror", "Mirror loop stopped")
			return
		}
		m.Handle(ctx, ev)
	}
}

// Handle processes one event to completion. Exported so tests and alternate
// drivers can feed events without a bus.
func (m *Mirror) Handle(ctx context.Context, ev bus.Event) {
	switch ev.Kind {
	case bus.EventNewPost:
		m.handleNewPost(ctx, ev.Feed, ev.Post)
	case bus.EventEditedPost:
		m.handleEdit(ctx, ev.Feed, ev.Edit)
	case bus.EventAlbum:
		m.handleAlbum(ctx, ev.Feed, ev.Album)
	default:
		logger.WarnCF("mirror", "Unknown event kind", map[string]any{"kind": string(ev.Kind)})
	}
}

// recordHistory appends text to the duplicate window and persists the new
// history in one mutation. This runs before dispatch so the dedup decision
// survives a crash between record and send: at-least-once dedup, never an
// orphaned mapping.
func (m *Mirror) recordHistory(text string) error {
	return m.store.Update(func(s *state.MirrorState) error {
		m.window.Record(text)
		s.History = m.window.Snapshot()
		return nil
	})
}

func (m *Mirror) suppress(feed, reason string, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["feed"] = feed
	fields["reason"] = reason
	logger.InfoCF("mirror", "Post suppressed", fields)
}

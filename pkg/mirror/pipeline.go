package mirror

import (
	"context"
	"strconv"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
	"github.com/tinyland-inc/mirrorclaw/pkg/moderation"
	"github.com/tinyland-inc/mirrorclaw/pkg/state"
)

// handleNewPost runs the moderation pipeline for a single post:
// classify -> dedup check -> record history -> rewrite -> dispatch -> map.
// The ad check runs before the dedup check so ad text never pollutes the
// dedup window, and the mapping is written only after the send is confirmed.
func (m *Mirror) handleNewPost(ctx context.Context, feed string, ev bus.PostEvent) {
	key := state.SourceKey{Feed: feed, ID: strconv.Itoa(ev.MessageID)}

	// Redelivered event for an already-mirrored post: the mapping is
	// idempotent, never duplicated.
	if _, ok := m.store.Single(key); ok {
		logger.DebugCF("mirror", "Post already mirrored", map[string]any{"key": key.String()})
		return
	}

	text := ev.Text

	if text != "" && m.mod.Classify(ctx, text) == moderation.Ad {
		m.suppress(feed, "ad", map[string]any{"message_id": ev.MessageID})
		return
	}

	if m.window.IsDuplicate(text) {
		m.suppress(feed, "duplicate", map[string]any{"message_id": ev.MessageID})
		return
	}

	if err := m.recordHistory(text); err != nil {
		logger.ErrorCF("mirror", "Failed to persist dedup history",
			map[string]any{"key": key.String(), "error": err.Error()})
		return
	}

	if text != "" {
		text = m.mod.Rewrite(ctx, text)
	}

	destID, sent := m.dispatchSingle(ctx, feed, ev, text)
	if !sent {
		return
	}

	if err := m.store.Update(func(s *state.MirrorState) error {
		s.Singles[key.String()] = destID
		return nil
	}); err != nil {
		logger.ErrorCF("mirror", "Failed to persist mapping",
			map[string]any{"key": key.String(), "dest_id": destID, "error": err.Error()})
		return
	}

	logger.InfoCF("mirror", "Post mirrored",
		map[string]any{"key": key.String(), "dest_id": destID})
}

// dispatchSingle sends the post to the destination. A post with media whose
// download yields nothing falls back to a plain text send; a post with
// neither media nor text is skipped. Send failure is fatal for this item
// only: logged, no mapping written.
func (m *Mirror) dispatchSingle(
	ctx context.Context,
	feed string,
	ev bus.PostEvent,
	text string,
) (int, bool) {
	if ev.HasMedia {
		path, ok, err := m.transport.FetchMedia(ctx, ev.Media)
		if err != nil {
			logger.ErrorCF("mirror", "Media download failed",
				map[string]any{"feed": feed, "message_id": ev.MessageID, "error": err.Error()})
			ok = false
		}
		if ok {
			destID, err := m.transport.SendMedia(ctx, path, safeCaption(text, m.destHandle), ev.IsVideo)
			if err != nil {
				logger.ErrorCF("mirror", "Media send failed",
					map[string]any{"feed": feed, "message_id": ev.MessageID, "error": err.Error()})
				return 0, false
			}
			m.media.Remove(path)
			return destID, true
		}
	}

	if text == "" {
		return 0, false
	}

	destID, err := m.transport.SendText(ctx, text)
	if err != nil {
		logger.ErrorCF("mirror", "Text send failed",
			map[string]any{"feed": feed, "message_id": ev.MessageID, "error": err.Error()})
		return 0, false
	}
	return destID, true
}

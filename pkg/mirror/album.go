package mirror

import (
	"context"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
	"github.com/tinyland-inc/mirrorclaw/pkg/moderation"
	"github.com/tinyland-inc/mirrorclaw/pkg/state"
)

// handleAlbum reconciles one album batch. A group id moves Unseen ->
// Dispatching -> Recorded; once Recorded it is terminal and every further
// event for the same group id is an edit against the caption message.
func (m *Mirror) handleAlbum(ctx context.Context, feed string, ev bus.AlbumEvent) {
	key := state.SourceKey{Feed: feed, ID: ev.GroupID}
	caption := firstCaption(ev.Items)

	if rec, ok := m.store.Album(key); ok {
		m.editAlbum(ctx, key, rec, caption)
		return
	}

	if caption != "" && m.mod.Classify(ctx, caption) == moderation.Ad {
		m.suppress(feed, "ad", map[string]any{"group_id": ev.GroupID})
		return
	}

	if m.window.IsDuplicate(caption) {
		m.suppress(feed, "duplicate", map[string]any{"group_id": ev.GroupID})
		return
	}

	if err := m.recordHistory(caption); err != nil {
		logger.ErrorCF("mirror", "Failed to persist dedup history",
			map[string]any{"key": key.String(), "error": err.Error()})
		return
	}

	if caption != "" {
		caption = m.mod.Rewrite(ctx, caption)
	}
	caption = safeCaption(caption, m.destHandle)

	rec, sent := m.dispatchAlbum(ctx, feed, ev, caption)
	if !sent {
		return
	}

	if err := m.store.Update(func(s *state.MirrorState) error {
		s.Albums[key.String()] = rec
		return nil
	}); err != nil {
		logger.ErrorCF("mirror", "Failed to persist album mapping",
			map[string]any{"key": key.String(), "error": err.Error()})
		return
	}

	logger.InfoCF("mirror", "Album mirrored", map[string]any{
		"key":        key.String(),
		"items":      len(rec.TargetMessageIDs),
		"caption_id": rec.CaptionMessageID,
	})
}

// dispatchAlbum downloads the batch and sends it. Albums containing a video
// are sent item by item (grouped sends lose streaming metadata); the first
// item whose send succeeds carries the caption. Albums without media fall
// back to a single text message when a caption exists.
func (m *Mirror) dispatchAlbum(
	ctx context.Context,
	feed string,
	ev bus.AlbumEvent,
	caption string,
) (state.AlbumRecord, bool) {
	var files []MediaFile
	anyVideo := false
	for _, item := range ev.Items {
		if !item.HasMedia {
			continue
		}
		path, ok, err := m.transport.FetchMedia(ctx, item.Media)
		if err != nil {
			logger.ErrorCF("mirror", "Album media download failed",
				map[string]any{"feed": feed, "message_id": item.MessageID, "error": err.Error()})
			continue
		}
		if !ok {
			continue
		}
		files = append(files, MediaFile{Path: path, Video: item.IsVideo})
		if item.IsVideo {
			anyVideo = true
		}
	}

	if len(files) == 0 {
		if caption == "" {
			return state.AlbumRecord{}, false
		}
		destID, err := m.transport.SendText(ctx, caption)
		if err != nil {
			logger.ErrorCF("mirror", "Album text send failed",
				map[string]any{"feed": feed, "group_id": ev.GroupID, "error": err.Error()})
			return state.AlbumRecord{}, false
		}
		return state.AlbumRecord{
			TargetMessageIDs: []int{destID},
			CaptionMessageID: destID,
		}, true
	}

	var ids []int
	if anyVideo {
		ids = m.sendIndividually(ctx, feed, files, caption)
	} else {
		sent, err := m.transport.SendMediaGroup(ctx, files, caption)
		if err != nil {
			logger.ErrorCF("mirror", "Album group send failed",
				map[string]any{"feed": feed, "group_id": ev.GroupID, "error": err.Error()})
		}
		ids = sent
	}
	if len(ids) == 0 {
		return state.AlbumRecord{}, false
	}

	for _, f := range files {
		m.media.Remove(f.Path)
	}

	// Caption rides on the first successfully sent item.
	return state.AlbumRecord{
		TargetMessageIDs: ids,
		CaptionMessageID: ids[0],
	}, true
}

// sendIndividually sends each file as its own message. The first successful
// send carries the caption; the rest go out with empty captions. Per-item
// failures are logged and skipped.
func (m *Mirror) sendIndividually(
	ctx context.Context,
	feed string,
	files []MediaFile,
	caption string,
) []int {
	var ids []int
	nextCaption := caption
	for _, f := range files {
		destID, err := m.transport.SendMedia(ctx, f.Path, nextCaption, f.Video)
		if err != nil {
			logger.ErrorCF("mirror", "Album item send failed",
				map[string]any{"feed": feed, "path": f.Path, "error": err.Error()})
			continue
		}
		ids = append(ids, destID)
		nextCaption = ""
	}
	return ids
}

// editAlbum applies a later event for a Recorded group id as an edit of the
// caption message. A caption re-classified as an ad is a policy violation:
// the album is retracted, not left stale.
func (m *Mirror) editAlbum(ctx context.Context, key state.SourceKey, rec state.AlbumRecord, caption string) {
	if caption != "" && m.mod.Classify(ctx, caption) == moderation.Ad {
		logger.WarnCF("mirror", "Album edited into an ad, retracting",
			map[string]any{"key": key.String()})
		m.retractAlbum(ctx, key, rec)
		return
	}

	if caption != "" {
		caption = m.mod.Rewrite(ctx, caption)
	}
	caption = safeCaption(caption, m.destHandle)

	if err := m.transport.EditText(ctx, rec.CaptionMessageID, caption); err != nil {
		logger.ErrorCF("mirror", "Album caption edit failed",
			map[string]any{"key": key.String(), "caption_id": rec.CaptionMessageID, "error": err.Error()})
		return
	}
	logger.InfoCF("mirror", "Album caption edited",
		map[string]any{"key": key.String(), "caption_id": rec.CaptionMessageID})
}

// firstCaption returns the first non-empty caption in arrival order.
func firstCaption(items []bus.AlbumItem) string {
	for _, item := range items {
		if item.Caption != "" {
			return item.Caption
		}
	}
	return ""
}

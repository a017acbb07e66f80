package mirror

import (
	"context"
	"strconv"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
	"github.com/tinyland-inc/mirrorclaw/pkg/moderation"
	"github.com/tinyland-inc/mirrorclaw/pkg/state"
)

// handleEdit propagates a source-side edit to the destination. Edits to
// posts that were never mirrored (originally suppressed, or unknown) are
// ignored; suppression is not retroactively undone.
func (m *Mirror) handleEdit(ctx context.Context, feed string, ev bus.EditEvent) {
	if ev.GroupID != "" {
		key := state.SourceKey{Feed: feed, ID: ev.GroupID}
		rec, ok := m.store.Album(key)
		if !ok {
			return
		}
		m.editAlbum(ctx, key, rec, ev.Text)
		return
	}

	key := state.SourceKey{Feed: feed, ID: strconv.Itoa(ev.MessageID)}
	destID, ok := m.store.Single(key)
	if !ok {
		return
	}

	text := ev.Text

	// A post edited into an ad is retracted, not left stale.
	if text != "" && m.mod.Classify(ctx, text) == moderation.Ad {
		logger.WarnCF("mirror", "Post edited into an ad, retracting",
			map[string]any{"key": key.String(), "dest_id": destID})
		m.retractSingle(ctx, key, destID)
		return
	}

	if text != "" {
		text = m.mod.Rewrite(ctx, text)
	}

	if err := m.transport.EditText(ctx, destID, text); err != nil {
		logger.ErrorCF("mirror", "Edit propagation failed",
			map[string]any{"key": key.String(), "dest_id": destID, "error": err.Error()})
		return
	}
	logger.InfoCF("mirror", "Edit propagated",
		map[string]any{"key": key.String(), "dest_id": destID})
}

// retractSingle deletes the destination message and removes the mapping.
// The delete is best-effort: even when it fails the mapping is removed, so
// the mirror never retries forever against an inconsistent destination.
func (m *Mirror) retractSingle(ctx context.Context, key state.SourceKey, destID int) {
	if err := m.transport.Delete(ctx, destID); err != nil {
		logger.WarnCF("mirror", "Destination delete failed, dropping mapping anyway",
			map[string]any{"key": key.String(), "dest_id": destID, "error": err.Error()})
	}

	if err := m.store.Update(func(s *state.MirrorState) error {
		delete(s.Singles, key.String())
		return nil
	}); err != nil {
		logger.ErrorCF("mirror", "Failed to persist mapping removal",
			map[string]any{"key": key.String(), "error": err.Error()})
	}
}

// retractAlbum deletes every destination message of an album and removes the
// mapping, with the same best-effort delete semantics as retractSingle.
func (m *Mirror) retractAlbum(ctx context.Context, key state.SourceKey, rec state.AlbumRecord) {
	for _, destID := range rec.TargetMessageIDs {
		if err := m.transport.Delete(ctx, destID); err != nil {
			logger.WarnCF("mirror", "Destination delete failed, dropping mapping anyway",
				map[string]any{"key": key.String(), "dest_id": destID, "error": err.Error()})
		}
	}

	if err := m.store.Update(func(s *state.MirrorState) error {
		delete(s.Albums, key.String())
		return nil
	}); err != nil {
		logger.ErrorCF("mirror", "Failed to persist mapping removal",
			map[string]any{"key": key.String(), "error": err.Error()})
	}
}

package mirror

import (
	"context"
	"testing"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
	"github.com/tinyland-inc/mirrorclaw/pkg/state"
)

func newPostEvent(id int, text string) bus.Event {
	return bus.Event{
		Kind: bus.EventNewPost,
		Feed: "feed_a",
		Post: bus.PostEvent{MessageID: id, Text: text},
	}
}

func TestPipeline_TextPostMirrored(t *testing.T) {
	rig := newTestRig(t)
	rig.mirror.Handle(context.Background(), newPostEvent(1, storyText))

	if len(rig.transport.sentTexts) != 1 {
		t.Fatalf("sent %d texts, want 1", len(rig.transport.sentTexts))
	}
	if rig.transport.sentTexts[0] != "rw: "+storyText {
		t.Errorf("dispatched text = %q, want rewritten", rig.transport.sentTexts[0])
	}

	destID, ok := rig.store.Single(state.SourceKey{Feed: "feed_a", ID: "1"})
	if !ok || destID == 0 {
		t.Errorf("mapping missing: %d %v", destID, ok)
	}
	if len(rig.store.History()) != 1 || rig.store.History()[0] != storyText {
		t.Error("raw text should be recorded in history before rewrite")
	}
}

func TestPipeline_AdSuppressed(t *testing.T) {
	rig := newTestRig(t)
	rig.mirror.Handle(context.Background(), newPostEvent(2, adText))

	if len(rig.transport.sentTexts)+len(rig.transport.sentMedia) != 0 {
		t.Error("ad was dispatched")
	}
	if _, ok := rig.store.Single(state.SourceKey{Feed: "feed_a", ID: "2"}); ok {
		t.Error("ad created a mapping")
	}
	if len(rig.store.History()) != 0 {
		t.Error("ad text polluted the dedup window")
	}
}

func TestPipeline_DuplicateSuppressed(t *testing.T) {
	rig := newTestRig(t)
	rig.mirror.Handle(context.Background(), newPostEvent(3, storyText))
	rig.mirror.Handle(context.Background(), bus.Event{
		Kind: bus.EventNewPost,
		Feed: "feed_b",
		Post: bus.PostEvent{MessageID: 4, Text: "Breaking: market rallies 5 percent today after the announcement"},
	})

	if len(rig.transport.sentTexts) != 1 {
		t.Errorf("duplicate from another feed was dispatched: %v", rig.transport.sentTexts)
	}
	if _, ok := rig.store.Single(state.SourceKey{Feed: "feed_b", ID: "4"}); ok {
		t.Error("duplicate created a mapping")
	}
}

func TestPipeline_RedeliveryIsIdempotent(t *testing.T) {
	rig := newTestRig(t)
	ev := newPostEvent(5, storyText)
	rig.mirror.Handle(context.Background(), ev)
	rig.mirror.Handle(context.Background(), ev)

	if len(rig.transport.sentTexts) != 1 {
		t.Errorf("redelivered event dispatched again: %d sends", len(rig.transport.sentTexts))
	}
}

func TestPipeline_CrashBetweenRecordAndDispatch(t *testing.T) {
	rig := newTestRig(t)
	rig.transport.failSends = true
	rig.mirror.Handle(context.Background(), newPostEvent(6, storyText))

	// Simulated crash: reload from the persisted document.
	reloaded, err := state.NewStore(rig.statePath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	history := reloaded.History()
	if len(history) != 1 || history[0] != storyText {
		t.Error("dedup history should survive the failed dispatch")
	}
	if _, ok := reloaded.Single(state.SourceKey{Feed: "feed_a", ID: "6"}); ok {
		t.Error("no mapping may exist for a post that was never sent")
	}
}

func TestPipeline_MediaPostUsesSafeCaption(t *testing.T) {
	rig := newTestRig(t)
	rig.mirror.Handle(context.Background(), bus.Event{
		Kind: bus.EventNewPost,
		Feed: "feed_a",
		Post: bus.PostEvent{
			MessageID: 7,
			Text:      "Big market story today, more at @source_channel soon",
			HasMedia:  true,
			IsVideo:   true,
			Media:     bus.MediaRef{FileID: "file-7"},
		},
	})

	if len(rig.transport.sentMedia) != 1 {
		t.Fatalf("sent %d media, want 1", len(rig.transport.sentMedia))
	}
	sent := rig.transport.sentMedia[0]
	if !sent.video {
		t.Error("video flag lost")
	}
	if sent.caption != "rw: Big market story today, more at @mirror_dest soon" {
		t.Errorf("caption = %q", sent.caption)
	}
}

func TestPipeline_MediaFetchMissFallsBackToText(t *testing.T) {
	rig := newTestRig(t)
	rig.mirror.Handle(context.Background(), bus.Event{
		Kind: bus.EventNewPost,
		Feed: "feed_a",
		Post: bus.PostEvent{MessageID: 8, Text: storyText, HasMedia: true},
	})

	if len(rig.transport.sentMedia) != 0 {
		t.Error("media sent despite nothing fetchable")
	}
	if len(rig.transport.sentTexts) != 1 {
		t.Error("expected text fallback send")
	}
}

func TestPipeline_EmptyPostSkipped(t *testing.T) {
	rig := newTestRig(t)
	rig.mirror.Handle(context.Background(), newPostEvent(9, ""))

	if len(rig.transport.sentTexts)+len(rig.transport.sentMedia) != 0 {
		t.Error("empty post dispatched")
	}
	if rig.mod.classifyCalls != 0 {
		t.Error("empty text sent to classifier")
	}
}

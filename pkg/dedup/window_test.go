package dedup

import (
	"fmt"
	"testing"
)

func TestWindow_DetectsNearDuplicate(t *testing.T) {
	w := NewWindow(Options{})
	w.Record("Breaking: market rallies 5% today")

	if !w.IsDuplicate("Breaking: market rallies 5 percent today") {
		t.Error("expected near-duplicate to be detected")
	}
	if w.IsDuplicate("Central bank leaves interest rates unchanged this quarter") {
		t.Error("unrelated text flagged as duplicate")
	}
}

func TestWindow_ShortTextsExempt(t *testing.T) {
	w := NewWindow(Options{})
	w.Record("short text")
	if w.Len() != 0 {
		t.Error("short text should not be recorded")
	}
	if w.IsDuplicate("short text") {
		t.Error("short text should never be flagged")
	}
}

func TestWindow_FIFOEviction(t *testing.T) {
	const capacity = 5
	w := NewWindow(Options{Capacity: capacity})

	texts := make([]string, capacity+1)
	for i := range texts {
		texts[i] = fmt.Sprintf("completely distinct qualifying story number %d about topic %d", i, i*37)
		w.Record(texts[i])
	}

	if w.Len() != capacity {
		t.Fatalf("window length = %d, want %d", w.Len(), capacity)
	}
	if w.IsDuplicate(texts[0]) {
		t.Error("oldest entry should have been evicted")
	}
	for _, text := range texts[1:] {
		if !w.IsDuplicate(text) {
			t.Errorf("entry %q should still be present", text)
		}
	}
}

func TestWindow_RecordIdempotentForUnrelated(t *testing.T) {
	w := NewWindow(Options{})
	story := "Breaking: market rallies 5% today and investors celebrate"
	w.Record(story)
	w.Record(story)

	unrelated := "Weather forecast predicts heavy snowfall in the mountains"
	if w.IsDuplicate(unrelated) {
		t.Error("recording twice changed verdict for unrelated text")
	}
}

func TestWindow_SnapshotRestore(t *testing.T) {
	w := NewWindow(Options{Capacity: 3})
	for i := 0; i < 3; i++ {
		w.Record(fmt.Sprintf("qualifying history entry number %d padding padding", i))
	}

	snap := w.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snap))
	}

	w2 := NewWindow(Options{Capacity: 3})
	w2.Restore(snap)
	if w2.Len() != 3 {
		t.Fatalf("restored length = %d, want 3", w2.Len())
	}
	if !w2.IsDuplicate(snap[0]) {
		t.Error("restored window lost an entry")
	}
}

func TestWindow_RestoreTrimsOversizedHistory(t *testing.T) {
	w := NewWindow(Options{Capacity: 2})
	w.Restore([]string{
		"oldest qualifying entry should be dropped on restore",
		"middle qualifying entry should be kept on restore!",
		"newest qualifying entry should be kept on restore!",
	})
	if w.Len() != 2 {
		t.Fatalf("restored length = %d, want 2", w.Len())
	}
	if w.IsDuplicate("oldest qualifying entry should be dropped on restore") {
		t.Error("oldest entry should have been trimmed")
	}
}

func TestWindow_MaxComparisonsBoundsLookback(t *testing.T) {
	w := NewWindow(Options{Capacity: 10, MaxComparisons: 2})
	old := "this qualifying entry falls outside the comparison budget"
	w.Record(old)
	w.Record("filler qualifying entry number one for lookback bound")
	w.Record("filler qualifying entry number two for lookback bound")

	if w.IsDuplicate(old) {
		t.Error("entry outside the comparison budget should not match")
	}
}

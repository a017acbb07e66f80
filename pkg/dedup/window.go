// Package dedup maintains a bounded history of recently published texts and
// answers whether an incoming text is a near-duplicate of any of them.
package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/tinyland-inc/mirrorclaw/pkg/similarity"
)

const (
	DefaultCapacity  = 100
	DefaultThreshold = 0.2
	DefaultMinLength = 20
)

// Options configures a Window. Zero values fall back to defaults.
type Options struct {
	Capacity       int     // max entries kept, FIFO eviction
	Threshold      float64 // similarity score above which a text is a duplicate
	MaxComparisons int     // most recent entries compared per check; 0 = Capacity
	MinLength      int     // texts shorter than this (trimmed runes) are exempt
}

// Window is a bounded FIFO history of published texts. It is not safe for
// concurrent use on its own; callers serialize access through the state
// store's mutation gate.
type Window struct {
	entries        []string
	capacity       int
	threshold      float64
	maxComparisons int
	minLength      int
}

func NewWindow(opts Options) *Window {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.MaxComparisons <= 0 {
		opts.MaxComparisons = opts.Capacity
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinLength
	}
	return &Window{
		capacity:       opts.Capacity,
		threshold:      opts.Threshold,
		maxComparisons: opts.MaxComparisons,
		minLength:      opts.MinLength,
	}
}

// qualifies reports whether a text is long enough to take part in
// deduplication at all. Short texts produce too few trigrams to compare.
func (w *Window) qualifies(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= w.minLength
}

// IsDuplicate reports whether text exceeds the similarity threshold against
// any of the most recent entries. Checking does not record.
func (w *Window) IsDuplicate(text string) bool {
	if !w.qualifies(text) {
		return false
	}

	checked := 0
	for i := len(w.entries) - 1; i >= 0 && checked < w.maxComparisons; i-- {
		if similarity.Score(text, w.entries[i]) > w.threshold {
			return true
		}
		checked++
	}
	return false
}

// Record appends text to the history, evicting the oldest entry once the
// window exceeds capacity. Texts below the minimum length are not recorded.
func (w *Window) Record(text string) {
	if !w.qualifies(text) {
		return
	}
	w.entries = append(w.entries, text)
	if len(w.entries) > w.capacity {
		w.entries = w.entries[1:]
	}
}

// Len returns the number of entries currently held.
func (w *Window) Len() int {
	return len(w.entries)
}

// Snapshot returns a copy of the history, oldest first. The result is what
// gets persisted as the state document's history field.
func (w *Window) Snapshot() []string {
	out := make([]string, len(w.entries))
	copy(out, w.entries)
	return out
}

// Restore replaces the history with the persisted entries, trimming to
// capacity from the oldest end if the document holds more than fits.
func (w *Window) Restore(entries []string) {
	if len(entries) > w.capacity {
		entries = entries[len(entries)-w.capacity:]
	}
	w.entries = make([]string, len(entries))
	copy(w.entries, entries)
}

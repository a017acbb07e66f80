// Package state owns the single persisted document that maps source posts to
// the destination messages they produced, plus the dedup history backing list.
// It is the sole source of truth for "have I already mirrored this".
package state

// SourceKey identifies a logical post in its originating feed: the message id
// for a single post, or the media group id for an album. Immutable once
// assigned.
type SourceKey struct {
	Feed string
	ID   string
}

func (k SourceKey) String() string {
	return k.Feed + ":" + k.ID
}

// AlbumRecord maps one source album to the destination messages it produced.
// CaptionMessageID is the destination message carrying the visible text; all
// future edits for the album apply to it.
type AlbumRecord struct {
	TargetMessageIDs []int `json:"target_msg_ids"`
	CaptionMessageID int   `json:"caption_msg_id"`
}

// MirrorState is the persisted root document. Destination ids stored here
// were always produced by a confirmed dispatch: mappings are written after a
// send succeeds, never before.
type MirrorState struct {
	Singles map[string]int         `json:"singles"`
	Albums  map[string]AlbumRecord `json:"albums"`
	History []string               `json:"history"`
}

// NewMirrorState returns an empty skeleton document.
func NewMirrorState() *MirrorState {
	return &MirrorState{
		Singles: make(map[string]int),
		Albums:  make(map[string]AlbumRecord),
	}
}

// normalize repairs zero-value fields after unmarshaling. A document missing
// the history field (written by an older version) is valid and starts empty.
func (s *MirrorState) normalize() {
	if s.Singles == nil {
		s.Singles = make(map[string]int)
	}
	if s.Albums == nil {
		s.Albums = make(map[string]AlbumRecord)
	}
}

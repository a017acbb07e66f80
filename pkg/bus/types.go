package bus

// EventKind tags the variant carried by an Event.
type EventKind string

const (
	EventNewPost    EventKind = "new_post"
	EventEditedPost EventKind = "edited_post"
	EventAlbum      EventKind = "album"
)

// MediaRef is an opaque handle the transport can later resolve to a local
// file. For Telegram this is the file id of the largest available variant.
type MediaRef struct {
	FileID string `json:"file_id,omitempty"`
}

func (r MediaRef) IsZero() bool {
	return r.FileID == ""
}

// PostEvent is a new single post seen in a source feed.
type PostEvent struct {
	MessageID int      `json:"message_id"`
	Text      string   `json:"text"`
	HasMedia  bool     `json:"has_media"`
	IsVideo   bool     `json:"is_video"`
	Media     MediaRef `json:"media,omitzero"`
}

// AlbumItem is one media item within an album batch, in arrival order.
type AlbumItem struct {
	MessageID int      `json:"message_id"`
	Caption   string   `json:"caption"`
	HasMedia  bool     `json:"has_media"`
	IsVideo   bool     `json:"is_video"`
	Media     MediaRef `json:"media,omitzero"`
}

// AlbumEvent is one complete album batch. The transport adapter is
// responsible for delivering an album as a single atomic event.
type AlbumEvent struct {
	GroupID string      `json:"group_id"`
	Items   []AlbumItem `json:"items"`
}

// EditEvent is an edit of a previously seen post. GroupID is set when the
// edited message belongs to an album.
type EditEvent struct {
	MessageID int    `json:"message_id"`
	GroupID   string `json:"group_id,omitempty"`
	Text      string `json:"text"`
}

// Event is the tagged union delivered from the transport layer to the mirror
// core. Exactly one of Post, Album, Edit is meaningful, selected by Kind.
type Event struct {
	Kind  EventKind  `json:"kind"`
	Feed  string     `json:"feed"`
	Post  PostEvent  `json:"post,omitzero"`
	Album AlbumEvent `json:"album,omitzero"`
	Edit  EditEvent  `json:"edit,omitzero"`
}

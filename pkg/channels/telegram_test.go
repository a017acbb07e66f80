package channels

import (
	"testing"

	"github.com/mymmrac/telego"
)

func TestBuildSourceIndex(t *testing.T) {
	index := buildSourceIndex([]string{"@NewsOne", "-1001234567890", " ", "@other"})

	if len(index) != 3 {
		t.Fatalf("index size = %d, want 3", len(index))
	}
	if index["@newsone"] != "@NewsOne" {
		t.Errorf("username key lost its casing: %v", index)
	}
	if index["-1001234567890"] != "-1001234567890" {
		t.Errorf("numeric source missing: %v", index)
	}
}

func TestFeedForMatchesUsernameAndID(t *testing.T) {
	c := &TelegramChannel{sources: buildSourceIndex([]string{"@NewsOne", "-100555"})}

	feed, ok := c.feedFor(telego.Chat{ID: 42, Username: "newsone"})
	if !ok || feed != "@NewsOne" {
		t.Errorf("username match = %q %v", feed, ok)
	}
	feed, ok = c.feedFor(telego.Chat{ID: -100555})
	if !ok || feed != "-100555" {
		t.Errorf("id match = %q %v", feed, ok)
	}
	if _, ok := c.feedFor(telego.Chat{ID: 7, Username: "stranger"}); ok {
		t.Error("unknown chat matched a feed")
	}
}

func TestParseChatID(t *testing.T) {
	if id := parseChatID("@mirror"); id.Username != "@mirror" {
		t.Errorf("username chat id = %+v", id)
	}
	if id := parseChatID("-100999"); id.ID != -100999 {
		t.Errorf("numeric chat id = %+v", id)
	}
	if id := parseChatID("mirror"); id.Username != "@mirror" {
		t.Errorf("bare name should gain an @ prefix: %+v", id)
	}
}

func TestMediaRefPicksLargestPhoto(t *testing.T) {
	msg := &telego.Message{
		Photo: []telego.PhotoSize{
			{FileID: "small", Width: 90},
			{FileID: "big", Width: 1280},
		},
	}
	ref, hasMedia, isVideo := mediaRef(msg)
	if !hasMedia || isVideo {
		t.Errorf("flags = %v %v", hasMedia, isVideo)
	}
	if ref.FileID != "big" {
		t.Errorf("file id = %q, want the last (largest) size", ref.FileID)
	}
}

func TestMediaRefVideoAndDocument(t *testing.T) {
	ref, hasMedia, isVideo := mediaRef(&telego.Message{Video: &telego.Video{FileID: "v1"}})
	if !hasMedia || !isVideo || ref.FileID != "v1" {
		t.Errorf("video: %+v %v %v", ref, hasMedia, isVideo)
	}

	ref, hasMedia, isVideo = mediaRef(&telego.Message{Document: &telego.Document{FileID: "d1"}})
	if !hasMedia || isVideo || ref.FileID != "d1" {
		t.Errorf("document: %+v %v %v", ref, hasMedia, isVideo)
	}

	if _, hasMedia, _ := mediaRef(&telego.Message{}); hasMedia {
		t.Error("text-only message reported media")
	}
}

func TestMessageTextPrefersTextOverCaption(t *testing.T) {
	if got := messageText(&telego.Message{Text: "body"}); got != "body" {
		t.Errorf("text = %q", got)
	}
	if got := messageText(&telego.Message{Caption: "cap"}); got != "cap" {
		t.Errorf("caption fallback = %q", got)
	}
}

func TestIsImagePath(t *testing.T) {
	for _, p := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp"} {
		if !isImagePath(p) {
			t.Errorf("%s should be an image", p)
		}
	}
	for _, p := range []string{"a.mp4", "b.pdf", "c"} {
		if isImagePath(p) {
			t.Errorf("%s should not be an image", p)
		}
	}
}

package mirror

import (
	"context"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
)

// MediaFile is a downloaded media item ready to send.
type MediaFile struct {
	Path  string
	Video bool
}

// Transport is the destination-side capability the mirror core needs from a
// feed client. All calls are I/O-bound and run outside the state store's
// mutation scope.
type Transport interface {
	// FetchMedia downloads the referenced media into the workdir. ok is false
	// when the item has no fetchable media; that is not an error.
	FetchMedia(ctx context.Context, ref bus.MediaRef) (path string, ok bool, err error)

	// SendText posts a plain text message and returns the destination id.
	SendText(ctx context.Context, text string) (int, error)

	// SendMedia posts one media file with a caption and returns the
	// destination id.
	SendMedia(ctx context.Context, file string, caption string, video bool) (int, error)

	// SendMediaGroup posts files as one grouped message, caption on the first
	// item, and returns the destination ids in order.
	SendMediaGroup(ctx context.Context, files []MediaFile, caption string) ([]int, error)

	// EditText replaces the text (or caption) of a destination message.
	EditText(ctx context.Context, messageID int, text string) error

	// Delete removes a destination message.
	Delete(ctx context.Context, messageID int) error
}

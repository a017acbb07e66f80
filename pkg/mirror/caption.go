package mirror

import "regexp"

// Telegram caps media captions at 1024 characters.
const maxCaptionLength = 1024

var mentionPattern = regexp.MustCompile(`@\w+`)

// safeCaption prepares a caption for the destination channel: clamps it to
// the platform limit and rewrites any @mention to the destination handle, so
// mirrored posts never advertise the source channel.
func safeCaption(text, destinationHandle string) string {
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) > maxCaptionLength {
		text = string(runes[:maxCaptionLength])
	}
	if destinationHandle == "" {
		return text
	}
	return mentionPattern.ReplaceAllString(text, "@"+destinationHandle)
}

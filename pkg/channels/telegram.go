// Package channels adapts feed transports to the mirror core. The Telegram
// channel is both the event source (long polling over the configured source
// channels) and the destination transport (send/edit/delete against the
// mirror channel).
package channels

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/tinyland-inc/mirrorclaw/pkg/bus"
	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
	"github.com/tinyland-inc/mirrorclaw/pkg/media"
	"github.com/tinyland-inc/mirrorclaw/pkg/mirror"
)

// Channel is a feed transport that can be started and stopped.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// TelegramOptions configures a TelegramChannel.
type TelegramOptions struct {
	Token       string
	Sources     []string
	Destination string
	Bus         *bus.EventBus
	Media       *media.Store
}

// TelegramChannel implements Channel for inbound events and
// mirror.Transport for outbound dispatch.
type TelegramChannel struct {
	bot         *telego.Bot
	eventBus    *bus.EventBus
	media       *media.Store
	sources     map[string]string // "@username" or chat id -> feed id
	destination telego.ChatID
	collector   *albumCollector
	httpClient  *http.Client
	running     atomic.Bool
}

var _ mirror.Transport = (*TelegramChannel)(nil)

func NewTelegramChannel(opts TelegramOptions) (*TelegramChannel, error) {
	bot, err := telego.NewBot(opts.Token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	c := &TelegramChannel{
		bot:         bot,
		eventBus:    opts.Bus,
		media:       opts.Media,
		sources:     buildSourceIndex(opts.Sources),
		destination: parseChatID(opts.Destination),
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
	}
	c.collector = newAlbumCollector(defaultFlushDelay, func(feed string, ev bus.AlbumEvent) {
		c.publish(bus.Event{Kind: bus.EventAlbum, Feed: feed, Album: ev})
	})
	return c, nil
}

func (c *TelegramChannel) Name() string {
	return "telegram"
}

func (c *TelegramChannel) IsRunning() bool {
	return c.running.Load()
}

// Start begins long polling for channel posts and edits in the source
// channels. It returns once polling is established; updates are handled on a
// background goroutine until ctx is canceled.
func (c *TelegramChannel) Start(ctx context.Context) error {
	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"channel_post", "edited_channel_post"},
	})
	if err != nil {
		return fmt.Errorf("starting long polling: %w", err)
	}

	c.running.Store(true)
	go func() {
		defer c.running.Store(false)
		for update := range updates {
			c.handleUpdate(update)
		}
	}()

	logger.InfoCF("telegram", "Channel started",
		map[string]any{"sources": len(c.sources)})
	return nil
}

func (c *TelegramChannel) Stop(_ context.Context) error {
	c.collector.stop()
	c.running.Store(false)
	return nil
}

func (c *TelegramChannel) handleUpdate(update telego.Update) {
	switch {
	case update.ChannelPost != nil:
		c.handlePost(update.ChannelPost)
	case update.EditedChannelPost != nil:
		c.handleEdit(update.EditedChannelPost)
	}
}

func (c *TelegramChannel) handlePost(msg *telego.Message) {
	feed, ok := c.feedFor(msg.Chat)
	if !ok {
		return
	}

	ref, hasMedia, isVideo := mediaRef(msg)

	if msg.MediaGroupID != "" {
		c.collector.add(feed, msg.MediaGroupID, bus.AlbumItem{
			MessageID: msg.MessageID,
			Caption:   messageText(msg),
			HasMedia:  hasMedia,
			IsVideo:   isVideo,
			Media:     ref,
		})
		return
	}

	c.publish(bus.Event{
		Kind: bus.EventNewPost,
		Feed: feed,
		Post: bus.PostEvent{
			MessageID: msg.MessageID,
			Text:      messageText(msg),
			HasMedia:  hasMedia,
			IsVideo:   isVideo,
			Media:     ref,
		},
	})
}

func (c *TelegramChannel) handleEdit(msg *telego.Message) {
	feed, ok := c.feedFor(msg.Chat)
	if !ok {
		return
	}
	c.publish(bus.Event{
		Kind: bus.EventEditedPost,
		Feed: feed,
		Edit: bus.EditEvent{
			MessageID: msg.MessageID,
			GroupID:   msg.MediaGroupID,
			Text:      messageText(msg),
		},
	})
}

func (c *TelegramChannel) publish(ev bus.Event) {
	if err := c.eventBus.Publish(context.TODO(), ev); err != nil {
		logger.WarnCF("telegram", "Dropping event, bus unavailable",
			map[string]any{"kind": string(ev.Kind), "error": err.Error()})
	}
}

// feedFor resolves a chat to the configured source feed id, matching either
// the @username or the numeric chat id.
func (c *TelegramChannel) feedFor(chat telego.Chat) (string, bool) {
	if chat.Username != "" {
		if feed, ok := c.sources["@"+strings.ToLower(chat.Username)]; ok {
			return feed, true
		}
	}
	feed, ok := c.sources[strconv.FormatInt(chat.ID, 10)]
	return feed, ok
}

// --- mirror.Transport ---

// FetchMedia resolves the file id and downloads the content into the
// workdir. ok is false for items without a fetchable file.
func (c *TelegramChannel) FetchMedia(ctx context.Context, ref bus.MediaRef) (string, bool, error) {
	if ref.IsZero() {
		return "", false, nil
	}

	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: ref.FileID})
	if err != nil {
		return "", false, fmt.Errorf("resolving file %s: %w", ref.FileID, err)
	}
	if file.FilePath == "" {
		return "", false, nil
	}

	dest := c.media.NewFilePath(path.Ext(file.FilePath))
	if err := c.download(ctx, c.bot.FileDownloadURL(file.FilePath), dest); err != nil {
		return "", false, err
	}
	return dest, true, nil
}

func (c *TelegramChannel) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading media: status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("writing media file: %w", err)
	}
	return out.Close()
}

func (c *TelegramChannel) SendText(ctx context.Context, text string) (int, error) {
	msg, err := c.bot.SendMessage(ctx, tu.Message(c.destination, text))
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *TelegramChannel) SendMedia(ctx context.Context, file, caption string, video bool) (int, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var msg *telego.Message
	switch {
	case video:
		msg, err = c.bot.SendVideo(ctx, tu.Video(c.destination, tu.File(f)).
			WithCaption(caption).
			WithSupportsStreaming())
	case isImagePath(file):
		msg, err = c.bot.SendPhoto(ctx, tu.Photo(c.destination, tu.File(f)).
			WithCaption(caption))
	default:
		msg, err = c.bot.SendDocument(ctx, tu.Document(c.destination, tu.File(f)).
			WithCaption(caption))
	}
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *TelegramChannel) SendMediaGroup(ctx context.Context, files []mirror.MediaFile, caption string) ([]int, error) {
	var handles []*os.File
	defer func() {
		for _, f := range handles {
			f.Close()
		}
	}()

	items := make([]telego.InputMedia, 0, len(files))
	for i, mf := range files {
		f, err := os.Open(mf.Path)
		if err != nil {
			return nil, err
		}
		handles = append(handles, f)

		itemCaption := ""
		if i == 0 {
			itemCaption = caption
		}
		switch {
		case mf.Video:
			items = append(items, tu.MediaVideo(tu.File(f)).WithCaption(itemCaption))
		case isImagePath(mf.Path):
			items = append(items, tu.MediaPhoto(tu.File(f)).WithCaption(itemCaption))
		default:
			items = append(items, tu.MediaDocument(tu.File(f)).WithCaption(itemCaption))
		}
	}

	sent, err := c.bot.SendMediaGroup(ctx, &telego.SendMediaGroupParams{
		ChatID: c.destination,
		Media:  items,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(sent))
	for _, msg := range sent {
		ids = append(ids, msg.MessageID)
	}
	return ids, nil
}

// EditText edits a destination message. Media messages carry their text as a
// caption, so a failed text edit falls back to a caption edit.
func (c *TelegramChannel) EditText(ctx context.Context, messageID int, text string) error {
	_, err := c.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    c.destination,
		MessageID: messageID,
		Text:      text,
	})
	if err == nil {
		return nil
	}

	_, capErr := c.bot.EditMessageCaption(ctx, &telego.EditMessageCaptionParams{
		ChatID:    c.destination,
		MessageID: messageID,
		Caption:   text,
	})
	if capErr != nil {
		return fmt.Errorf("editing message %d: %w", messageID, err)
	}
	return nil
}

func (c *TelegramChannel) Delete(ctx context.Context, messageID int) error {
	return c.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    c.destination,
		MessageID: messageID,
	})
}

// --- helpers ---

// buildSourceIndex maps each configured source (@username, case-insensitive,
// or numeric chat id) to itself as the feed id used in state keys.
func buildSourceIndex(sources []string) map[string]string {
	index := make(map[string]string, len(sources))
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if strings.HasPrefix(src, "@") {
			index[strings.ToLower(src)] = src
		} else {
			index[src] = src
		}
	}
	return index
}

func parseChatID(s string) telego.ChatID {
	if strings.HasPrefix(s, "@") {
		return tu.Username(s)
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tu.ID(id)
	}
	return tu.Username("@" + s)
}

// mediaRef extracts the downloadable file reference of a message: the
// largest photo size, the video, or the document.
func mediaRef(msg *telego.Message) (ref bus.MediaRef, hasMedia, isVideo bool) {
	switch {
	case msg.Video != nil:
		return bus.MediaRef{FileID: msg.Video.FileID}, true, true
	case len(msg.Photo) > 0:
		largest := msg.Photo[len(msg.Photo)-1]
		return bus.MediaRef{FileID: largest.FileID}, true, false
	case msg.Document != nil:
		return bus.MediaRef{FileID: msg.Document.FileID}, true, false
	case msg.Animation != nil:
		return bus.MediaRef{FileID: msg.Animation.FileID}, true, true
	}
	return bus.MediaRef{}, false, false
}

func messageText(msg *telego.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func isImagePath(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

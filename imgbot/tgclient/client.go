// Package tgclient implements the dispatcher's chat client on top of telebot.
package tgclient

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/imgbot/core/logger"
	tghelpers "github.com/m3rciful/imgbot/core/telegram/helpers"
	"github.com/m3rciful/imgbot/core/telegram/sender"
	"github.com/m3rciful/imgbot/imgbot/dispatch"

	tele "gopkg.in/telebot.v4"
)

// Options configures a Client.
type Options struct {
	// Sender retries outbound calls; nil calls the API directly.
	Sender *sender.Dispatcher
	// Dir receives downloaded photos. Defaults to "photos".
	Dir string
}

// Client sends replies and downloads photos through a telebot instance.
type Client struct {
	bot    *tele.Bot
	sender *sender.Dispatcher
	dir    string
}

var _ dispatch.ChatClient = (*Client)(nil)

// New returns a Client bound to bot.
func New(bot *tele.Bot, opts Options) *Client {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = "photos"
	}
	return &Client{bot: bot, sender: opts.Sender, dir: dir}
}

// Dir returns the directory photos are downloaded to.
func (c *Client) Dir() string { return c.dir }

func (c *Client) do(ctx context.Context, action, endpoint string, run func() error) error {
	var err error
	if c.sender == nil {
		err = run()
	} else {
		err = c.sender.Do(ctx, action, endpoint, run)
	}
	if err == nil && endpoint != "getFile" {
		tghelpers.CountSent(ctx)
	}
	return err
}

// SendText sends plain text to the chat.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.do(ctx, "send.text", "sendMessage", func() error {
		_, err := c.bot.Send(tele.ChatID(chatID), text)
		return err
	})
}

// SendTextReplying sends plain text quoting the message replyTo.
func (c *Client) SendTextReplying(ctx context.Context, chatID int64, text string, replyTo int) error {
	opts := &tele.SendOptions{}
	if replyTo != 0 {
		opts.ReplyTo = &tele.Message{ID: replyTo, Chat: &tele.Chat{ID: chatID}}
		opts.AllowWithoutReply = true
	}
	return c.do(ctx, "send.reply", "sendMessage", func() error {
		_, err := c.bot.Send(tele.ChatID(chatID), text, opts)
		return err
	})
}

// SendPhoto uploads a local file or lets Telegram fetch an http(s) URL.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, pathOrURL string) error {
	var file tele.File
	if isURL(pathOrURL) {
		file = tele.FromURL(pathOrURL)
	} else {
		if _, err := os.Stat(pathOrURL); err != nil {
			return fmt.Errorf("tgclient: photo %s: %w", pathOrURL, err)
		}
		file = tele.FromDisk(pathOrURL)
	}
	return c.do(ctx, "send.photo", "sendPhoto", func() error {
		_, err := c.bot.Send(tele.ChatID(chatID), &tele.Photo{File: file})
		return err
	})
}

// DownloadPhoto stores the event's photo under the download directory and returns its path.
func (c *Client) DownloadPhoto(ctx context.Context, ev dispatch.Event) (string, error) {
	if ev.Photo == nil || ev.Photo.FileID == "" {
		return "", dispatch.ErrNotAPhoto
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("tgclient: create %s: %w", c.dir, err)
	}

	var local string
	err := c.do(ctx, "download.photo", "getFile", func() error {
		file, err := c.bot.FileByID(ev.Photo.FileID)
		if err != nil {
			return err
		}
		name := path.Base(file.FilePath)
		if name == "." || name == "/" {
			name = ev.Photo.FileID + ".jpg"
		}
		local = filepath.Join(c.dir, localName(ev.ChatID, name))
		return c.bot.Download(&file, local)
	})
	if err != nil {
		return "", fmt.Errorf("tgclient: download %s: %w", ev.Photo.FileID, err)
	}
	logger.Debug(ctx, "tg", "photo.download",
		slog.String("status", "ok"),
		slog.String("path", local),
	)
	return local, nil
}

// localName prefixes the server file name so concurrent downloads of the same
// file, even from different chats, never share a path.
func localName(chatID int64, base string) string {
	return fmt.Sprintf("%d_%s_%s", chatID, uuid.NewString()[:8], base)
}

// Remove deletes transient photo files. Missing files are ignored.
func (c *Client) Remove(paths ...string) {
	for _, p := range paths {
		if p == "" || isURL(p) {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warn(context.Background(), "tg", "photo.remove",
				slog.String("status", "fail"),
				slog.String("path", p),
				slog.String("err", err.Error()),
			)
		}
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

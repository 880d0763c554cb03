package tgclient

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tghelpers "github.com/m3rciful/imgbot/core/telegram/helpers"
	"github.com/m3rciful/imgbot/core/telegram/sender"
	"github.com/m3rciful/imgbot/core/telegram/teletest"
	"github.com/m3rciful/imgbot/imgbot/dispatch"
)

func newClient(t *testing.T) (*Client, *teletest.Server) {
	t.Helper()
	srv := teletest.NewServer(t)
	disp := sender.NewDispatcher(sender.Options{
		Workers:      1,
		MaxRetries:   0,
		RetryBackoff: time.Millisecond,
		MaxDuration:  time.Second,
	})
	t.Cleanup(disp.Close)
	return New(srv.Bot(t), Options{Sender: disp, Dir: t.TempDir()}), srv
}

func TestSendTextCountsSent(t *testing.T) {
	c, srv := newClient(t)
	ctx := tghelpers.WithSentCounter(context.Background())

	if err := c.SendText(ctx, 42, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	calls := srv.Calls("sendMessage")
	if len(calls) != 1 || calls[0].Params["chat_id"] != "42" || calls[0].Params["text"] != "hello" {
		t.Fatalf("calls = %+v", calls)
	}
	if got := tghelpers.SentCount(ctx); got != 1 {
		t.Fatalf("sent = %d", got)
	}
}

func TestSendTextReplyingQuotesMessage(t *testing.T) {
	c, srv := newClient(t)
	if err := c.SendTextReplying(context.Background(), 42, "Error: nope", 7); err != nil {
		t.Fatalf("send: %v", err)
	}
	calls := srv.Calls("sendMessage")
	if len(calls) != 1 {
		t.Fatalf("calls = %+v", calls)
	}
	p := calls[0].Params
	if p["reply_to_message_id"] != "7" && !strings.Contains(p["reply_parameters"], "7") {
		t.Fatalf("reply target missing: %+v", p)
	}
}

func TestSendTextFailure(t *testing.T) {
	c, srv := newClient(t)
	srv.FailWith("sendMessage", 400)
	ctx := tghelpers.WithSentCounter(context.Background())

	if err := c.SendText(ctx, 42, "hello"); err == nil {
		t.Fatalf("expected error")
	}
	if got := tghelpers.SentCount(ctx); got != 0 {
		t.Fatalf("failed send counted: %d", got)
	}
}

func TestSendPhotoFromDisk(t *testing.T) {
	c, srv := newClient(t)
	path := filepath.Join(t.TempDir(), "out.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := c.SendPhoto(context.Background(), 42, path); err != nil {
		t.Fatalf("send photo: %v", err)
	}
	calls := srv.Calls("sendPhoto")
	if len(calls) != 1 || string(calls[0].Files["photo"]) != "jpeg" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestSendPhotoFromURL(t *testing.T) {
	c, srv := newClient(t)
	url := "https://detector.example/out/1.jpg"
	if err := c.SendPhoto(context.Background(), 42, url); err != nil {
		t.Fatalf("send photo: %v", err)
	}
	calls := srv.Calls("sendPhoto")
	if len(calls) != 1 || calls[0].Params["photo"] != url {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestSendPhotoMissingFile(t *testing.T) {
	c, srv := newClient(t)
	err := c.SendPhoto(context.Background(), 42, filepath.Join(t.TempDir(), "nope.jpg"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
	if calls := srv.Calls("sendPhoto"); len(calls) != 0 {
		t.Fatalf("unexpected upload: %+v", calls)
	}
}

func TestDownloadPhoto(t *testing.T) {
	c, srv := newClient(t)
	srv.AddFile("photos/A.jpg", []byte("pixels"))
	ctx := tghelpers.WithSentCounter(context.Background())

	path, err := c.DownloadPhoto(ctx, dispatch.Event{ChatID: 42, Photo: &dispatch.Photo{FileID: "A"}})
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if filepath.Dir(path) != c.Dir() {
		t.Fatalf("path = %s, want it under %s", path, c.Dir())
	}
	if base := filepath.Base(path); !strings.HasPrefix(base, "42_") || !strings.HasSuffix(base, "_A.jpg") {
		t.Fatalf("name = %s", base)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "pixels" {
		t.Fatalf("data = %q, %v", data, err)
	}
	if got := tghelpers.SentCount(ctx); got != 0 {
		t.Fatalf("download counted as sent: %d", got)
	}
}

func TestDownloadPhotoSameFileTwoChats(t *testing.T) {
	c, srv := newClient(t)
	srv.AddFile("photos/A.jpg", []byte("pixels"))
	ctx := context.Background()
	photo := &dispatch.Photo{FileID: "A"}

	first, err := c.DownloadPhoto(ctx, dispatch.Event{ChatID: 1, Photo: photo})
	if err != nil {
		t.Fatalf("download chat 1: %v", err)
	}
	second, err := c.DownloadPhoto(ctx, dispatch.Event{ChatID: 2, Photo: photo})
	if err != nil {
		t.Fatalf("download chat 2: %v", err)
	}
	again, err := c.DownloadPhoto(ctx, dispatch.Event{ChatID: 2, Photo: photo})
	if err != nil {
		t.Fatalf("download chat 2 again: %v", err)
	}
	if first == second || second == again {
		t.Fatalf("paths collide: %s %s %s", first, second, again)
	}

	c.Remove(second)
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("chat 1 file removed with chat 2 cleanup: %v", err)
	}
	if _, err := os.Stat(again); err != nil {
		t.Fatalf("second chat 2 file removed: %v", err)
	}
}

func TestDownloadPhotoRequiresPhoto(t *testing.T) {
	c, _ := newClient(t)
	if _, err := c.DownloadPhoto(context.Background(), dispatch.Event{ChatID: 42, Text: "hi"}); !errors.Is(err, dispatch.ErrNotAPhoto) {
		t.Fatalf("err = %v", err)
	}
}

func TestDownloadPhotoMissingOnServer(t *testing.T) {
	c, _ := newClient(t)
	if _, err := c.DownloadPhoto(context.Background(), dispatch.Event{ChatID: 42, Photo: &dispatch.Photo{FileID: "B"}}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRemoveIgnoresMissingAndURLs(t *testing.T) {
	c, _ := newClient(t)
	path := filepath.Join(c.Dir(), "tmp.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c.Remove(path, filepath.Join(c.Dir(), "gone.jpg"), "https://x/y.jpg", "")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file not removed: %v", err)
	}
}

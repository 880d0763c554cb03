package middleware

import (
	"errors"
	"testing"

	"github.com/m3rciful/imgbot/core/logger"
	tghelpers "github.com/m3rciful/imgbot/core/telegram/helpers"
	"github.com/m3rciful/imgbot/core/telegram/teletest"

	tele "gopkg.in/telebot.v4"
)

func newContext(t *testing.T, srv *teletest.Server, updateID int, msg *tele.Message) tele.Context {
	t.Helper()
	if msg != nil {
		msg.Chat = &tele.Chat{ID: 7, Type: tele.ChatPrivate}
		msg.Sender = &tele.User{ID: 9, Username: "alice"}
	}
	return srv.Bot(t).NewContext(tele.Update{ID: updateID, Message: msg})
}

func TestUpdateKind(t *testing.T) {
	srv := teletest.NewServer(t)
	cases := []struct {
		msg  *tele.Message
		want string
	}{
		{&tele.Message{Text: "/segment"}, "command"},
		{&tele.Message{Text: "hello"}, "text"},
		{&tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "x"}}}, "photo"},
		{&tele.Message{Sticker: &tele.Sticker{}}, "other"},
		{nil, "other"},
	}
	for i, tc := range cases {
		if got := UpdateKind(newContext(t, srv, i+1, tc.msg)); got != tc.want {
			t.Fatalf("case %d: kind = %q, want %q", i, got, tc.want)
		}
	}
}

func TestLoggerMiddlewareStoresContext(t *testing.T) {
	srv := teletest.NewServer(t)
	c := newContext(t, srv, 42, &tele.Message{Text: "hi"})

	var rid string
	var chatID int64
	h := LoggerMiddleware(func(c tele.Context) error {
		ctx, ok := tghelpers.ContextFrom(c)
		if !ok {
			t.Fatal("context not stored")
		}
		rid = logger.RIDFrom(ctx)
		chatID = logger.ChatIDFrom(ctx)
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rid != "42:7:9" || chatID != 7 {
		t.Fatalf("rid = %q chat = %d", rid, chatID)
	}
}

func TestMetricsMiddlewareCountsSends(t *testing.T) {
	srv := teletest.NewServer(t)
	c := newContext(t, srv, 3, &tele.Message{Text: "hi"})

	h := LoggerMiddleware(MessageMetricsMiddleware(func(c tele.Context) error {
		return tghelpers.SendText(c, "one")
	}))
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := GetCounters(c); got != 1 {
		t.Fatalf("messages = %d, want 1", got)
	}
	if calls := srv.Calls("sendMessage"); len(calls) != 1 || calls[0].Params["text"] != "one" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestRecoverRepliesAndReturnsError(t *testing.T) {
	srv := teletest.NewServer(t)
	c := newContext(t, srv, 4, &tele.Message{Text: "/rotate"})

	h := RecoverWithReply("custom failure")(func(tele.Context) error {
		panic("nil map")
	})
	err := h(c)
	if err == nil {
		t.Fatal("expected error from recovered panic")
	}
	calls := srv.Calls("sendMessage")
	if len(calls) != 1 || calls[0].Params["text"] != "custom failure" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestRecoverPassesErrorsThrough(t *testing.T) {
	srv := teletest.NewServer(t)
	c := newContext(t, srv, 5, &tele.Message{Text: "x"})
	boom := errors.New("boom")

	if err := RecoverMiddleware(func(tele.Context) error { return boom })(c); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if calls := srv.Calls("sendMessage"); len(calls) != 0 {
		t.Fatalf("unexpected reply %+v", calls)
	}
}

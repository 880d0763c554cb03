package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/imgbot/core/logger"
	"github.com/m3rciful/imgbot/core/telegram/chatqueue"

	tele "gopkg.in/telebot.v4"
)

// SerializeChats hands every update to q keyed by chat, so updates of one chat
// are handled in arrival order and never concurrently. The bot must process
// updates synchronously for arrival order to be kept. Errors returned by the
// rest of the chain are passed to onError since the update has already been
// accepted by then.
func SerializeChats(q *chatqueue.Queue, onError func(error, tele.Context)) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			err := q.Submit(ChatKey(c), func() {
				if err := next(c); err != nil && onError != nil {
					onError(err, c)
				}
			})
			if err != nil {
				logger.Warn(context.Background(), "tg", "update.drop",
					slog.String("status", "fail"),
					slog.Int("update_id", c.Update().ID),
					slog.Int64("chat_id", ChatKey(c)),
					slog.String("err", err.Error()),
				)
			}
			return err
		}
	}
}

// ChatKey returns the chat id of the update, falling back to the sender id.
func ChatKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/m3rciful/imgbot/core/logger"
	tghelpers "github.com/m3rciful/imgbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// DefaultPanicReply is sent to the chat when a handler panics.
const DefaultPanicReply = "Something went wrong. Please try again later."

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return RecoverWithReply("")(next)
}

// RecoverWithReply catches panics, logs them with the stack, answers the chat with
// reply and returns the panic as an error so the update is reported as failed.
func RecoverWithReply(reply string) tele.MiddlewareFunc {
	if strings.TrimSpace(reply) == "" {
		reply = DefaultPanicReply
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				ctx := tghelpers.BuildContext(c)
				logger.Error(ctx, "tg", "tg.panic",
					slog.String("status", "fail"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("panic: %v", r)
				if c.Chat() == nil {
					return
				}
				if sendErr := tghelpers.SendText(c, reply); sendErr != nil {
					logger.Warn(ctx, "tg", "tg.panic.reply",
						slog.String("status", "fail"),
						slog.String("err", sendErr.Error()),
					)
				}
			}()
			return next(c)
		}
	}
}

package telegram

import (
	"github.com/m3rciful/imgbot/core/telegram/middleware"
)

// DefaultMiddlewares builds the shared middleware chain for bots. panicReply is
// sent to the chat when a handler panics; empty uses the middleware default.
func DefaultMiddlewares(panicReply string) []Middleware {
	return []Middleware{
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
		{Name: "recover", Use: middleware.RecoverWithReply(panicReply)},
	}
}

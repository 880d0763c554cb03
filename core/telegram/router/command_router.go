package router

import (
	"time"

	tg "github.com/m3rciful/imgbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered command as a telebot endpoint and logs a
// handler summary for each invocation.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	names := reg.Commands()
	routes := make([]tg.Route, 0, len(names))
	for _, name := range names {
		def, _ := reg.Command(name)
		handlerName := normalizeHandlerName(name)
		h := def.Handler
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, handlerName, time.Now(), func() error {
					return h(c)
				})
			},
		})
	}
	return routes
}

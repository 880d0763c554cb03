package router

import (
	"time"

	tg "github.com/m3rciful/imgbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// MessageOptions holds the handlers for non-command messages. A nil handler
// leaves that kind of message unanswered.
type MessageOptions struct {
	Text  tele.HandlerFunc
	Photo tele.HandlerFunc
	// Other receives documents, stickers, voice notes and other media.
	Other tele.HandlerFunc
}

var otherEndpoints = []string{
	tele.OnDocument,
	tele.OnSticker,
	tele.OnVoice,
	tele.OnVideo,
	tele.OnAudio,
	tele.OnAnimation,
}

// MessageRoutes builds text, photo and media routes. Text that telebot did not
// match to a command endpoint, such as "/Segment" or "/segment@bot" in a group,
// is resolved through the registry before falling back to opts.Text.
func MessageRoutes(reg *tg.Registry, opts MessageOptions) []tg.Route {
	var routes []tg.Route

	textHandler := func(c tele.Context) error {
		start := time.Now()
		if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
			return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
				return cmd.Handler(c)
			})
		}
		if opts.Text == nil {
			logHandlerSummary(c, "text", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "text", start, func() error {
			return opts.Text(c)
		})
	}
	routes = append(routes, tg.Route{Endpoint: tele.OnText, Handler: textHandler})

	if opts.Photo != nil {
		routes = append(routes, tg.Route{
			Endpoint: tele.OnPhoto,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, "photo", time.Now(), func() error {
					return opts.Photo(c)
				})
			},
		})
	}

	if opts.Other != nil {
		other := func(c tele.Context) error {
			return handleWithSummary(c, "other", time.Now(), func() error {
				return opts.Other(c)
			})
		}
		for _, ep := range otherEndpoints {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: other})
		}
	}
	return routes
}

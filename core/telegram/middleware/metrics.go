package middleware

import (
	"github.com/m3rciful/imgbot/core/metrics"
	tghelpers "github.com/m3rciful/imgbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// MessageMetricsMiddleware counts the update by kind and attaches a counter of
// messages sent while handling it.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.IncUpdate(UpdateKind(c))
		ctx := tghelpers.WithSentCounter(tghelpers.BuildContext(c))
		tghelpers.StoreContext(c, ctx)
		return next(c)
	}
}

// GetCounters returns how many messages were sent for the current update.
func GetCounters(c tele.Context) int {
	ctx, ok := tghelpers.ContextFrom(c)
	if !ok {
		return 0
	}
	return tghelpers.SentCount(ctx)
}

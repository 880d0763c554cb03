package tgclient

import (
	"github.com/m3rciful/imgbot/imgbot/dispatch"

	tele "gopkg.in/telebot.v4"
)

// EventFrom converts a telebot message update into a dispatcher event.
// It reports false for updates without a message or chat.
func EventFrom(c tele.Context) (dispatch.Event, bool) {
	msg := c.Message()
	if msg == nil || msg.Chat == nil {
		return dispatch.Event{}, false
	}
	ev := dispatch.Event{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      msg.Text,
		Caption:   msg.Caption,
	}
	if msg.Photo != nil {
		ev.Photo = &dispatch.Photo{
			FileID:   msg.Photo.FileID,
			UniqueID: msg.Photo.UniqueID,
			Width:    msg.Photo.Width,
			Height:   msg.Photo.Height,
		}
	}
	return ev, true
}

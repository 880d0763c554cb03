// Package state keeps per-chat conversation sessions for Telegram bots.
// A session holds the step the chat is in plus a small temp map, lives in
// process memory only, and is keyed by chat id so group members share it.
package state

// Package dispatch routes inbound chat events to command and pending-action
// handlers and keeps each chat's conversation state consistent.
//
// A chat moves through the pending actions below. Commands set the pending
// action and prompt for a photo; the next photo runs the matching status
// handler, after which the chat returns to idle. The concat flow is the only
// two-step sequence: the first photo is remembered until the second arrives.
package dispatch

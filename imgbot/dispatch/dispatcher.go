package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/imgbot/core/logger"
	"github.com/m3rciful/imgbot/core/metrics"
	"github.com/m3rciful/imgbot/core/telegram/state"
)

// CommandFunc handles a recognized command.
type CommandFunc func(ctx context.Context, ev Event) error

// StatusFunc handles a photo for a pending action and returns the chat's next pending action.
type StatusFunc func(ctx context.Context, ev Event) (state.State, error)

// Command binds a command name (without slash) to its handler.
type Command struct {
	Name        string
	Description string
	Handle      CommandFunc
}

// Actions is the table a Dispatcher routes through.
type Actions struct {
	Commands []Command
	Status   map[state.State]StatusFunc
}

// Options configures a Dispatcher.
type Options struct {
	Store   Store
	Chat    ChatClient
	Actions Actions
	// BotUsername filters "/cmd@otherbot" in group chats; empty accepts any suffix.
	BotUsername string
	Recorder    Recorder
}

// Dispatcher routes inbound events. Events for one chat are handled one at a
// time; different chats proceed in parallel.
type Dispatcher struct {
	store    Store
	chat     ChatClient
	commands map[string]Command
	status   map[state.State]StatusFunc
	botName  string
	recorder Recorder
}

// New builds a Dispatcher from opts.
func New(opts Options) (*Dispatcher, error) {
	if opts.Chat == nil {
		return nil, errors.New("dispatch: chat client is required")
	}
	if opts.Store.Manager == nil {
		opts.Store = NewStore(nil)
	}
	if opts.Recorder == nil {
		opts.Recorder = NopRecorder{}
	}
	d := &Dispatcher{
		store:    opts.Store,
		chat:     opts.Chat,
		commands: make(map[string]Command, len(opts.Actions.Commands)),
		status:   opts.Actions.Status,
		botName:  opts.BotUsername,
		recorder: opts.Recorder,
	}
	for _, cmd := range opts.Actions.Commands {
		name := strings.ToLower(strings.TrimPrefix(cmd.Name, "/"))
		if name == "" || cmd.Handle == nil {
			return nil, errors.New("dispatch: command needs a name and a handler")
		}
		d.commands[name] = cmd
	}
	return d, nil
}

// Lookup returns the command the text invokes, if any.
func (d *Dispatcher) Lookup(text string) (Command, bool) {
	name, ok := parseCommand(text, d.botName)
	if !ok {
		return Command{}, false
	}
	cmd, ok := d.commands[name]
	return cmd, ok
}

// Handle processes one event to completion. Every failure has been answered in
// the chat by the time Handle returns; the returned error is for logging only.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	unlock := d.store.Lock(ev.ChatID)
	defer unlock()

	if ev.IsPhoto() {
		return d.handlePhoto(ctx, ev)
	}
	return d.handleText(ctx, ev)
}

func (d *Dispatcher) handleText(ctx context.Context, ev Event) error {
	if cmd, ok := d.Lookup(ev.Text); ok {
		return d.runCommand(ctx, cmd, ev)
	}
	if d.store.Tracked(ev.ChatID) {
		return d.chat.SendText(ctx, ev.ChatID, MsgStillWaiting)
	}
	return d.chat.SendText(ctx, ev.ChatID, MsgUseCommand)
}

func (d *Dispatcher) handlePhoto(ctx context.Context, ev Event) error {
	var errs []error
	if cmd, ok := d.Lookup(ev.Caption); ok {
		errs = append(errs, d.runCommand(ctx, cmd, ev))
	}

	pending := d.store.Pending(ev.ChatID)
	if pending == PendingNone {
		return errors.Join(append(errs, d.chat.SendText(ctx, ev.ChatID, MsgCommandFirst))...)
	}
	handler, ok := d.status[pending]
	if !ok {
		logger.Warn(ctx, "dispatch", "status.unknown",
			slog.String("state", string(pending)),
		)
		d.store.SetPending(ev.ChatID, PendingNone)
		return errors.Join(append(errs, d.chat.SendText(ctx, ev.ChatID, MsgCommandFirst))...)
	}

	ctx = logger.WithAction(ctx, string(pending))
	start := time.Now()
	next, err := handler(ctx, ev)
	if next == "" {
		next = PendingNone
	}
	d.store.SetPending(ev.ChatID, next)
	d.finish(ctx, ev, pending, next, time.Since(start), err)
	return errors.Join(append(errs, err)...)
}

func (d *Dispatcher) runCommand(ctx context.Context, cmd Command, ev Event) error {
	metrics.IncCommand(cmd.Name)
	logger.Debug(ctx, "dispatch", "command.run",
		slog.String("command", cmd.Name),
		slog.String("state", string(d.store.Pending(ev.ChatID))),
	)
	return cmd.Handle(ctx, ev)
}

func (d *Dispatcher) finish(ctx context.Context, ev Event, pending, next state.State, took time.Duration, err error) {
	outcome := OutcomeOK
	level := slog.LevelInfo
	var detailText string
	if err != nil {
		detailText = logger.SanitizeLimit(err.Error(), 256)
		outcome = OutcomeFail
		level = slog.LevelWarn
		if KindOf(err) == KindInput {
			outcome = OutcomeRejected
		}
	}
	metrics.ObserveAction(string(pending), outcome)

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("state", string(pending)),
		slog.String("next_state", string(next)),
		slog.String("outcome", outcome),
		slog.Duration("duration", took),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", detailText),
			slog.String("err_code", string(KindOf(err))),
		)
	}
	logger.Event(ctx, "dispatch", level, "action.done", attrs...)

	entry := Entry{
		ChatID:   ev.ChatID,
		Action:   string(pending),
		Outcome:  outcome,
		Detail:   detailText,
		Duration: took,
	}
	if recErr := d.recorder.Record(ctx, entry); recErr != nil {
		logger.Warn(ctx, "journal", "journal.record",
			slog.String("status", "fail"),
			slog.String("err", recErr.Error()),
		)
	}
}

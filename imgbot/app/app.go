package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/imgbot/core/bootstrap"
	"github.com/m3rciful/imgbot/core/buildinfo"
	"github.com/m3rciful/imgbot/core/httpserver"
	"github.com/m3rciful/imgbot/core/logger"
	"github.com/m3rciful/imgbot/core/metrics"
	"github.com/m3rciful/imgbot/core/telegram"
	"github.com/m3rciful/imgbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/imgbot/core/telegram/helpers"
	"github.com/m3rciful/imgbot/core/telegram/router"
	tgsender "github.com/m3rciful/imgbot/core/telegram/sender"
	"github.com/m3rciful/imgbot/core/telegram/state"
	"github.com/m3rciful/imgbot/imgbot/detect"
	"github.com/m3rciful/imgbot/imgbot/dispatch"
	"github.com/m3rciful/imgbot/imgbot/imgproc"
	"github.com/m3rciful/imgbot/imgbot/journal"
	"github.com/m3rciful/imgbot/imgbot/tgclient"

	tele "gopkg.in/telebot.v4"
)

// Deps carries infrastructure built outside the app. Detector and Images
// replace the default collaborators when set.
type Deps struct {
	Bot      *tele.Bot
	DB       *sqlx.DB
	Detector dispatch.Detector
	Images   dispatch.ImageLoader
}

// App holds the wired bot.
type App struct {
	cfg        *Config
	bot        *tele.Bot
	sender     *tgsender.Dispatcher
	chat       *tgclient.Client
	dispatcher *dispatch.Dispatcher
	registry   *telegram.Registry
	ops        *httpserver.Server
	closers    []func() error
}

// Bootstrap initializes logging and the optional database, connects to
// Telegram and wires the bot.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	bot, err := telegram.NewBot(cfg.CoreConfig())
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	a, err := New(cfg, Deps{Bot: bot, DB: infra.DB})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	a.closers = append(a.closers, infra.Close)
	return a, nil
}

// New wires the dispatcher and its collaborators around deps.Bot.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}
	if deps.Bot == nil {
		return nil, fmt.Errorf("app: telegram bot is required")
	}
	if err := os.MkdirAll(cfg.Images.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("app: create images dir: %w", err)
	}

	detector := deps.Detector
	if detector == nil {
		client, err := detect.New(detect.Options{
			URL:     cfg.Detection.URL,
			Timeout: time.Duration(cfg.Detection.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		detector = client
	}
	images := deps.Images
	if images == nil {
		images = imgproc.NewLoader(cfg.Images.Dir)
	}

	sender := tgsender.NewDispatcher(tgsender.Options{
		Workers:      2,
		MaxRetries:   2,
		RetryBackoff: time.Second,
	})
	chat := tgclient.New(deps.Bot, tgclient.Options{Sender: sender, Dir: cfg.Images.Dir})
	store := dispatch.NewStore(state.NewMemoryManager())

	actions := dispatch.ImageActions(dispatch.Deps{
		Store:    store,
		Chat:     chat,
		Images:   images,
		Detector: detector,
		Cleanup:  chat.Remove,
	})
	var username string
	if deps.Bot.Me != nil {
		username = deps.Bot.Me.Username
	}
	d, err := dispatch.New(dispatch.Options{
		Store:       store,
		Chat:        chat,
		Actions:     actions,
		BotUsername: username,
		Recorder:    journal.New(deps.DB),
	})
	if err != nil {
		sender.Close()
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		bot:        deps.Bot,
		sender:     sender,
		chat:       chat,
		dispatcher: d,
		registry:   telegram.NewRegistry(),
	}
	for _, cmd := range actions.Commands {
		a.registry.RegisterCommand("/"+cmd.Name, commands.Command{
			Handler:     a.handle,
			Description: cmd.Description,
		})
	}
	if cfg.Ops.Listen != "" {
		a.ops = httpserver.New(cfg.Ops.Listen)
	}
	return a, nil
}

// Registry exposes the registered bot commands.
func (a *App) Registry() *telegram.Registry { return a.registry }

// TelegramRunOptions returns the runtime configuration for RunTelegram.
func (a *App) TelegramRunOptions() (telegram.RunOptions, error) {
	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.MessageRoutes(a.registry, router.MessageOptions{
		Text:  a.handle,
		Photo: a.handle,
		Other: a.handle,
	})...)

	return telegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.sender,
		Middlewares: telegram.DefaultMiddlewares(dispatch.MsgProcessingError),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

// Close releases the database connection opened by Bootstrap.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// handle feeds any message update into the dispatcher.
func (a *App) handle(c tele.Context) error {
	ev, ok := tgclient.EventFrom(c)
	if !ok {
		return nil
	}
	return a.dispatcher.Handle(tghelpers.BuildContext(c), ev)
}

func (a *App) start(ctx context.Context, _ telegram.Runtime) error {
	metrics.MustRegister()
	metrics.SetBuildInfo(buildinfo.Version, buildinfo.Commit)
	logger.Info(ctx, "app", "wire",
		slog.Int("count", len(a.registry.Commands())),
		slog.String("path", a.chat.Dir()),
	)
	if a.ops == nil {
		logger.Info(ctx, "ops", "ops.skip", slog.String("status", "skip"))
		return nil
	}
	return a.ops.Start()
}

func (a *App) stop(ctx context.Context, _ telegram.Runtime) error {
	if a.ops == nil {
		return nil
	}
	return a.ops.Shutdown(ctx)
}

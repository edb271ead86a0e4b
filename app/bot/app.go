// Package bot wires the hungrylogs services to Telegram.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/app/config"
	"github.com/m3rciful/hungrylogs/app/flow"
	"github.com/m3rciful/hungrylogs/app/journal"
	"github.com/m3rciful/hungrylogs/app/meals"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
	coretelegram "github.com/m3rciful/hungrylogs/core/telegram"
	"github.com/m3rciful/hungrylogs/core/telegram/router"
	tgsender "github.com/m3rciful/hungrylogs/core/telegram/sender"
	"github.com/m3rciful/hungrylogs/core/telegram/state"
)

// Deps are the services the bot talks to.
type Deps struct {
	Config     *config.Config
	Store      storage.Store
	Classifier meals.Classifier
	Deriver    flow.Deriver
	Advisor    flow.Advisor
	Journal    journal.Recorder
	Now        func() time.Time
}

// Messenger sends a message outside of an update. *tele.Bot implements it.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Submitter runs outbound calls with retries. *sender.Dispatcher implements it.
type Submitter interface {
	Submit(ctx context.Context, action, endpoint string, run func() error, done func(error)) error
}

// App implements the runner's TelegramApp.
type App struct {
	cfg      *config.Config
	store    storage.Store
	profiles storage.Profiles
	sessions *flow.Sessions
	flow     *flow.Machine
	meals    *meals.Service
	journal  journal.Recorder
	registry *coretelegram.Registry
	now      func() time.Time

	messenger Messenger
	submitter Submitter
}

// New builds the services on top of the store.
func New(d Deps) (*App, error) {
	if d.Config == nil || d.Store == nil {
		return nil, errors.New("bot: config and store are required")
	}
	if d.Classifier == nil || d.Deriver == nil {
		return nil, errors.New("bot: classifier and deriver are required")
	}
	if d.Journal == nil {
		d.Journal = journal.Nop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	sessions := state.NewManager[flow.FlowState]()
	svc := meals.New(meals.Options{
		Profiles:   d.Store.Profiles(),
		Meals:      d.Store.Meals(),
		Classifier: d.Classifier,
		Sessions:   sessions,
		Journal:    d.Journal,
		Now:        d.Now,
	})
	a := &App{
		cfg:      d.Config,
		store:    d.Store,
		profiles: d.Store.Profiles(),
		sessions: sessions,
		meals:    svc,
		journal:  d.Journal,
		registry: coretelegram.NewRegistry(),
		now:      d.Now,
	}
	a.flow = flow.New(flow.Deps{
		Sessions: sessions,
		Profiles: a.profiles,
		Deriver:  d.Deriver,
		Advisor:  d.Advisor,
		Summary:  svc.Summary,
		Journal:  d.Journal,
	})
	a.registerCommands()
	if err := a.registerCallbacks(); err != nil {
		return nil, err
	}
	a.registry.SetTextFallback(a.onText)
	a.registry.SetCallbackNotFound(func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: flow.MsgStaleAction})
	})
	return a, nil
}

// Registry exposes the commands and callbacks.
func (a *App) Registry() *coretelegram.Registry { return a.registry }

// TelegramRunOptions assembles routes and middlewares for the core runner.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	cmdOpts := router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: a.onAdminReject,
	}

	var routes []coretelegram.Route
	routes = append(routes, router.CommandRoutes(a.registry, cmdOpts)...)
	routes = append(routes, router.CallbackRoute(a.registry))
	routes = append(routes, router.TextRoutes(fsmAdapter{a}, a.registry, router.TextOptions{
		Commands:        cmdOpts,
		UnknownDocument: a.onDocument,
	})...)

	return coretelegram.RunOptions{
		Config:   core,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			Workers:    4,
			MaxRetries: 2,
		},
		Middlewares: coretelegram.DefaultMiddlewares(core, a.onLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.messenger = rt.Bot
			a.submitter = rt.Dispatcher
			logger.Info(ctx, logger.CompApp, "wired",
				slog.String("storage", a.cfg.Storage.Driver),
				slog.Int("commands", len(a.registry.Commands())),
			)
			return nil
		},
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgSlowDown})
	}
	return nil
}

func (a *App) onAdminReject(c tele.Context) error {
	return send(c, msgNoRights)
}

func (a *App) onDocument(c tele.Context) error {
	return send(c, msgTextOnly)
}

package router

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/core/logger"
	tg "github.com/m3rciful/hungrylogs/core/telegram"
	"github.com/m3rciful/hungrylogs/core/telegram/commands"
	"github.com/m3rciful/hungrylogs/core/telegram/middleware"
)

// CommandRouteOptions configures admin gating for commands.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

func (o CommandRouteOptions) admin() middleware.AdminOptions {
	return middleware.AdminOptions{AdminID: o.AdminID, OnReject: o.OnAdminReject}
}

// wrapCommand applies admin gating and summary logging to a command handler.
func wrapCommand(name string, def commands.Command, opts CommandRouteOptions) tele.HandlerFunc {
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(opts.admin())(h)
	}
	inner := h
	return func(c tele.Context) error {
		return run(c, handlerName(name), func() error { return inner(c) })
	}
}

// CommandRoutes turns every registered command into a route.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		h := wrapCommand(name, def, opts)
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}
	logger.Info(context.Background(), logger.CompTGWire, "complete",
		slog.Int("count", len(routes)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

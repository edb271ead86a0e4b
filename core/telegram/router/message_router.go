package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/hungrylogs/core/telegram"
	"github.com/m3rciful/hungrylogs/core/telegram/middleware"
)

// FSM is the conversation engine consulted before any other text handling.
type FSM interface {
	InProgress(userID int64) bool
	HandleUpdate(c tele.Context) error
}

// TextOptions configures TextRoutes.
type TextOptions struct {
	Commands        CommandRouteOptions
	UnknownDocument tele.HandlerFunc
}

// TextRoutes routes plain text: an active conversation gets it first, then
// slash commands that telebot did not match directly, then the registry's
// text fallback.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		if fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID) {
			return run(c, "fsm", func() error { return fsm.HandleUpdate(c) })
		}
		msg := strings.TrimSpace(c.Text())
		if reg != nil && strings.HasPrefix(msg, "/") {
			if name, def, ok := reg.LookupCommand(msg); ok {
				return wrapCommand(name, def, opts.Commands)(c)
			}
		}
		if reg != nil && reg.TextFallback() != nil {
			return run(c, "fallback", func() error { return reg.TextFallback()(c) })
		}
		summarize(c, "unknown_text", time.Now(), "skip", nil)
		return nil
	}

	document := func(c tele.Context) error {
		if opts.UnknownDocument != nil {
			return run(c, "unexpected_document", func() error { return opts.UnknownDocument(c) })
		}
		summarize(c, "unexpected_document", time.Now(), "skip", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnDocument, Handler: wrap(document)},
		{Endpoint: tele.OnPhoto, Handler: wrap(document)},
	}
}

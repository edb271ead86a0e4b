package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/hungrylogs/core/telegram"
	"github.com/m3rciful/hungrylogs/core/telegram/callbacks"
	"github.com/m3rciful/hungrylogs/core/telegram/middleware"
)

// CallbackRoute dispatches every inline button press through the registry.
// Unknown keys go to the registry's CallbackNotFound handler.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key := callbacks.CallbackKey(c)
		name := "callback." + handlerName(key)
		attr := slog.String("cb_key", key)

		h, ok := reg.GetCallback(key)
		if !ok {
			return run(c, "callback.not_found", func() error { return reg.CallbackNotFound()(c) }, attr)
		}
		// Stop the spinner on the button before any slower work.
		_ = c.Respond()
		return run(c, name, func() error { return h(c) }, attr)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

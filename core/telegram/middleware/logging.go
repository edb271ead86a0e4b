package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/hungrylogs/core/telegram/helpers"
)

const seenTTL = 10 * time.Second

// seenUpdates remembers recently logged update ids; routes wrap handlers with
// LoggerMiddleware on top of the global chain and must not log twice.
var seenUpdates = struct {
	sync.Mutex
	at map[int]time.Time
}{at: make(map[int]time.Time)}

func firstSighting(updateID int) bool {
	now := time.Now()
	seenUpdates.Lock()
	defer seenUpdates.Unlock()
	for id, ts := range seenUpdates.at {
		if now.Sub(ts) > seenTTL {
			delete(seenUpdates.at, id)
		}
	}
	if _, ok := seenUpdates.at[updateID]; ok {
		return false
	}
	seenUpdates.at[updateID] = now
	return true
}

// LoggerMiddleware stores the request context (rid, ids) on the update and
// logs a sampled debug line for each received update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		user := c.Sender()
		if user != nil {
			userID = user.ID
		}
		if _, ok := tghelpers.ContextFrom(c); !ok {
			rid := logger.BuildRID(upd.ID, chatID, userID)
			c.Set("rid", rid)
			tghelpers.BuildContext(c)
		}

		if firstSighting(upd.ID) && logger.ShouldSampleDebug() {
			ctx := tghelpers.BuildContext(c)
			attrs := []slog.Attr{slog.String("status", "ok")}
			if user != nil {
				attrs = append(attrs,
					slog.String("username", logger.SanitizeLimit(user.Username, 64)),
					slog.String("lang", user.LanguageCode),
				)
			}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			switch {
			case upd.Callback != nil:
				key, payload := callbacks.ParseCallbackData(upd.Callback)
				attrs = append(attrs,
					slog.String("cb_key", logger.SanitizeLimit(key, 128)),
					slog.String("payload", logger.SanitizeLimit(payload, 256)),
				)
			case upd.Message != nil:
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
			}
			logger.Debug(ctx, logger.CompTG, "update.received", attrs...)
		}
		return next(c)
	}
}

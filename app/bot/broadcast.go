package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/helpers"
	tgsender "github.com/m3rciful/hungrylogs/core/telegram/sender"
)

// cmdBroadcast sends the payload to every registered user. Admin only.
func (a *App) cmdBroadcast(c tele.Context) error {
	text := broadcastText(c)
	if text == "" {
		return send(c, msgBroadcastHelp)
	}
	if a.messenger == nil {
		return send(c, msgFailed)
	}
	ctx := logger.WithRID(helpers.BuildContext(c), "bc-"+uuid.NewString()[:8])
	users, err := a.profiles.List(ctx)
	if err != nil {
		logger.Error(ctx, logger.CompTGSender, "broadcast.list", logger.Err(err))
		return send(c, msgFailed)
	}
	if err := send(c, msgBroadcastRun); err != nil {
		return err
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	sent, failed := a.broadcast(ctx, ids, text)
	logger.Info(ctx, logger.CompTGSender, "broadcast.done",
		slog.Int("users", len(ids)),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
	return send(c, fmt.Sprintf(msgBroadcastDone, sent, failed))
}

func broadcastText(c tele.Context) string {
	if m := c.Message(); m != nil && m.Payload != "" {
		return strings.TrimSpace(m.Payload)
	}
	text := strings.TrimSpace(c.Text())
	name, rest, _ := strings.Cut(text, " ")
	if !strings.HasPrefix(name, "/broadcast") {
		return ""
	}
	return strings.TrimSpace(rest)
}

// broadcast delivers text to ids through the dispatcher and waits for every
// job. Users who blocked the bot are counted as failed.
func (a *App) broadcast(ctx context.Context, ids []int64, text string) (sent, failed int) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(id int64, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			sent++
		case tgsender.IsBlocked(err):
			failed++
			a.journal.Event(ctx, "broadcast_skip", id, "forbidden")
		default:
			failed++
			a.journal.Event(ctx, "broadcast_error", id, tgsender.Redact(err.Error()))
		}
	}

	for _, id := range ids {
		id := id
		run := func() error {
			_, err := a.messenger.Send(&tele.User{ID: id}, text)
			return err
		}
		if a.submitter == nil {
			record(id, run())
			continue
		}
		wg.Add(1)
		done := func(err error) {
			defer wg.Done()
			record(id, err)
		}
		if err := a.submitter.Submit(ctx, "broadcast", "sendMessage", run, done); err != nil {
			wg.Done()
			logger.Warn(ctx, logger.CompTGSender, "broadcast.inline",
				slog.Int64("user_id", id),
				logger.Err(err),
			)
			record(id, run())
		}
	}
	wg.Wait()
	return sent, failed
}

package bot

import (
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/app/meals"
	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/callbacks"
	"github.com/m3rciful/hungrylogs/core/telegram/helpers"
)

// registerCallbacks binds inline button keys. The callback router answers
// the query before a handler runs.
func (a *App) registerCallbacks() error {
	handlers := map[string]tele.HandlerFunc{
		cbRegConfirm: func(c tele.Context) error {
			return reply(c, a.flow.ConfirmRegistration(helpers.BuildContext(c), senderID(c)))
		},
		cbRegEdit: func(c tele.Context) error {
			return reply(c, a.flow.EditRegistration(helpers.BuildContext(c), senderID(c)))
		},
		cbGoalAccept: func(c tele.Context) error {
			return reply(c, a.flow.AcceptGoal(helpers.BuildContext(c), senderID(c)))
		},
		cbFlowCancel: func(c tele.Context) error {
			return reply(c, a.flow.Cancel(helpers.BuildContext(c), senderID(c)))
		},
		cbMealDelete:     a.onMealDelete,
		cbMealKeep:       a.onMealKeep,
		cbRestartConfirm: a.onRestartConfirm,
		cbRestartCancel:  a.onRestartCancel,
	}
	var errs []error
	for key, h := range handlers {
		errs = append(errs, a.registry.RegisterCallback(key, h))
	}
	return errors.Join(errs...)
}

func (a *App) onMealDelete(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	id := senderID(c)
	idx, err := callbacks.PayloadInt(c)
	if err != nil {
		logger.Warn(ctx, logger.CompMeals, "meal.delete_payload",
			slog.String("payload", callbacks.CallbackPayload(c)),
			logger.Err(err),
		)
		return send(c, msgBadPayload)
	}
	removed, err := a.meals.ConfirmDelete(ctx, id, idx)
	if err != nil {
		logger.Error(ctx, logger.CompMeals, "meal.delete", slog.Int64("user_id", id), logger.Err(err))
		return edit(c, meals.MsgDeleteFailed)
	}
	if !removed.Found {
		return edit(c, meals.MsgNothingToDelete)
	}
	return edit(c, meals.Deleted(removed.Event))
}

func (a *App) onMealKeep(c tele.Context) error {
	a.journal.Event(helpers.BuildContext(c), "delete_last_meal_cancel", senderID(c), "")
	return edit(c, meals.MsgDeleteCancelled)
}

func (a *App) onRestartConfirm(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	id := senderID(c)
	if err := a.meals.Wipe(ctx, id); err != nil {
		logger.Error(ctx, logger.CompProfiles, "user.wipe", slog.Int64("user_id", id), logger.Err(err))
		return edit(c, msgFailed)
	}
	return edit(c, msgRestartDone)
}

func (a *App) onRestartCancel(c tele.Context) error {
	a.journal.Event(helpers.BuildContext(c), "user_restart_cancel", senderID(c), "")
	return edit(c, msgRestartCancel)
}

package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/app/meals"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/commands"
	"github.com/m3rciful/hungrylogs/core/telegram/helpers"
	"github.com/m3rciful/hungrylogs/core/telegram/keyboard"
)

// registerCommands fills the registry; the order is the menu order.
func (a *App) registerCommands() {
	reg := a.registry
	reg.RegisterCommand("/statistics", commands.Command{Handler: a.cmdStatistics, Description: "Statistics for a day, a week or 4 weeks"})
	reg.RegisterCommand("/goal", commands.Command{Handler: a.cmdGoal, Description: "Show the current goal"})
	reg.RegisterCommand("/update_goal", commands.Command{Handler: a.cmdUpdateGoal, Description: "Change the goal"})
	reg.RegisterCommand("/delete_last_meal", commands.Command{Handler: a.cmdDeleteLast, Description: "Delete the last meal"})
	reg.RegisterCommand("/start", commands.Command{Handler: a.cmdStart, Description: "Registration"})
	reg.RegisterCommand("/restart", commands.Command{Handler: a.cmdRestart, Description: "Delete the profile and start over"})
	reg.RegisterCommand("/help", commands.Command{Handler: a.cmdHelp, Description: "List all commands"})
	reg.RegisterCommand("/cancel", commands.Command{Handler: a.cmdCancel, Description: "Cancel the current action"})
	reg.RegisterCommand("/broadcast", commands.Command{Handler: a.cmdBroadcast, Description: "Send a message to every user", AdminOnly: true})
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func (a *App) cmdStart(c tele.Context) error {
	return reply(c, a.flow.StartRegistration(helpers.BuildContext(c), senderID(c)))
}

func (a *App) cmdUpdateGoal(c tele.Context) error {
	return reply(c, a.flow.StartGoalUpdate(helpers.BuildContext(c), senderID(c)))
}

func (a *App) cmdCancel(c tele.Context) error {
	id := senderID(c)
	a.sessions.ClearTemp(id, meals.PendingKey)
	return reply(c, a.flow.Cancel(helpers.BuildContext(c), id))
}

func (a *App) cmdHelp(c tele.Context) error {
	lines := []string{"📋 Available commands:"}
	for _, cmd := range a.registry.ListCommands(true) {
		lines = append(lines, fmt.Sprintf("%s: %s", cmd.Text, cmd.Description))
	}
	return send(c, strings.Join(lines, "\n\n"))
}

func (a *App) cmdGoal(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	id := senderID(c)
	p, err := a.profiles.Get(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		return send(c, meals.MsgRegisterFirst)
	default:
		logger.Error(ctx, logger.CompProfiles, "profile.lookup", slog.Int64("user_id", id), logger.Err(err))
		return send(c, msgFailed)
	}
	a.journal.Event(ctx, "goal_viewed", id, "")
	goal := p.Goal
	if strings.TrimSpace(goal) == "" {
		goal = "not set"
	}
	return send(c, fmt.Sprintf("🎯 Your current goal: %s\n\n🍽 Calories: %d kcal\n💪 Protein: %d g\n🥑 Fat: %d g\n🍞 Carbs: %d g",
		goal, p.Calories, p.Protein, p.Fat, p.Carbs))
}

func (a *App) cmdStatistics(c tele.Context) error {
	return send(c, msgChoosePeriod, statsMenu())
}

func (a *App) cmdDeleteLast(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	id := senderID(c)
	cand, err := a.meals.LastMeal(ctx, id)
	if err != nil {
		logger.Error(ctx, logger.CompMeals, "meal.last", slog.Int64("user_id", id), logger.Err(err))
		return send(c, msgFailed)
	}
	if !cand.Found {
		return send(c, meals.MsgNothingToDelete)
	}
	return send(c, meals.DeletePrompt(cand.Event), keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Delete", Unique: cbMealDelete, Data: strconv.Itoa(cand.Index)}},
		[]keyboard.InlineBtn{{Text: "❌ Cancel", Unique: cbMealKeep}},
	))
}

func (a *App) cmdRestart(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	id := senderID(c)
	ok, err := storage.Exists(ctx, a.profiles, id)
	if err != nil {
		logger.Error(ctx, logger.CompProfiles, "profile.lookup", slog.Int64("user_id", id), logger.Err(err))
		return send(c, msgFailed)
	}
	if !ok {
		return send(c, msgNotRegistered)
	}
	a.flow.Reset(id)
	return send(c, msgRestartAsk, keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Yes, delete my profile", Unique: cbRestartConfirm}},
		[]keyboard.InlineBtn{{Text: "❌ Cancel", Unique: cbRestartCancel}},
	))
}

package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/meals"
	"github.com/m3rciful/hungrylogs/app/stats"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/helpers"
	"github.com/m3rciful/hungrylogs/core/telegram/keyboard"
)

// onText handles text of idle users: statistics buttons, then meals.
func (a *App) onText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	switch text {
	case labelDay, labelWeek, labelFourWeek:
		return a.showStats(c, text)
	case "":
		return nil
	}

	ctx := helpers.BuildContext(c)
	_ = c.Notify(tele.Typing)
	out := a.meals.Log(ctx, senderID(c), text)
	switch out.Kind {
	case meals.Logged:
		return helpers.SendMDV2(c, meals.LoggedMarkdown(out))
	case meals.Clarify:
		return send(c, out.Question)
	case meals.NotRegistered:
		return send(c, meals.MsgRegisterFirst)
	case meals.Failed:
		return send(c, meals.MsgFailed)
	}
	return nil
}

func (a *App) showStats(c tele.Context, period string) error {
	ctx := helpers.BuildContext(c)
	id := senderID(c)
	p, err := a.profiles.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return send(c, meals.MsgRegisterFirst, keyboard.RemoveKeyboard())
	}
	if err != nil {
		logger.Error(ctx, logger.CompProfiles, "profile.lookup", slog.Int64("user_id", id), logger.Err(err))
		return send(c, msgFailed, keyboard.RemoveKeyboard())
	}
	events, err := a.meals.Events(ctx)
	if err != nil {
		logger.Error(ctx, logger.CompMeals, "stats.events", slog.Int64("user_id", id), logger.Err(err))
		return send(c, msgFailed, keyboard.RemoveKeyboard())
	}
	if err := send(c, msgLoadingStats, keyboard.RemoveKeyboard()); err != nil {
		return err
	}
	today := a.meals.Today()
	var body string
	switch period {
	case labelDay:
		body = dayText(stats.Day(events, id, today), p.Targets)
	case labelWeek:
		body = weekText(stats.Week(events, id, today), p.Targets)
	default:
		body = fourWeekText(stats.FourWeeks(events, id, today), p.Targets)
	}
	logger.Debug(ctx, logger.CompMeals, "stats.shown", slog.Int64("user_id", id), slog.String("period", period))
	return send(c, body)
}

const shortDate = "02.01"

func targetsBlock(b *strings.Builder, m domain.Macros, t domain.Targets) {
	fmt.Fprintf(b, "Calories: %d / %d\nProtein: %d / %d\nFat: %d / %d\nCarbs: %d / %d",
		m.Calories, t.Calories, m.Protein, t.Protein, m.Fat, t.Fat, m.Carbs, t.Carbs)
}

func dayText(r stats.DayReport, t domain.Targets) string {
	if r.Empty() {
		return msgNoDayData
	}
	var b strings.Builder
	b.WriteString("📅 Today's meals:\n")
	for _, m := range r.Meals {
		fmt.Fprintf(&b, "- %s: %d kcal, %d/%d/%d P/F/C\n", m.Text, m.Calories, m.Protein, m.Fat, m.Carbs)
	}
	b.WriteString("\n📊 Today's totals:\n")
	targetsBlock(&b, r.Totals, t)
	return b.String()
}

func weekText(r stats.WeekReport, t domain.Targets) string {
	var b strings.Builder
	b.WriteString("📅 Last 7 days:\n")
	for _, d := range r.Days {
		fmt.Fprintf(&b, "%s:\nCalories: %d / %d\nP/F/C: %d/%d/%d\n",
			d.Date.Format(shortDate), d.Totals.Calories, t.Calories, d.Totals.Protein, d.Totals.Fat, d.Totals.Carbs)
	}
	if r.Counted == 0 {
		b.WriteString("\n" + msgNoWeekAvg)
		return b.String()
	}
	b.WriteString("\n📊 Weekly average:\n")
	targetsBlock(&b, r.Average, t)
	return b.String()
}

func fourWeekText(r stats.FourWeekReport, t domain.Targets) string {
	if r.Empty() {
		return msgNoFourWeeks
	}
	var b strings.Builder
	b.WriteString("📅 Average intake over 4 weeks:\n\n")
	for i := len(r.Buckets) - 1; i >= 0; i-- {
		w := r.Buckets[i]
		if !w.HasData() {
			continue
		}
		fmt.Fprintf(&b, "%s - %s:\nCalories: %d / %d\nP/F/C: %d/%d/%d\n\n",
			w.Start.Format(shortDate), w.End.Format(shortDate), w.Average.Calories, t.Calories,
			w.Average.Protein, w.Average.Fat, w.Average.Carbs)
	}
	b.WriteString("📊 4-week average:\n")
	targetsBlock(&b, r.Average, t)
	return b.String()
}

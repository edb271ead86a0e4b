package meals

import (
	"fmt"
	"strconv"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/core/telegram/format"
)

const (
	MsgRegisterFirst   = "You need to register first. Send /start"
	MsgFailed          = "❌ Couldn't log the meal. Please try again later."
	MsgNothingToDelete = "⚠️ There are no meals to delete."
	MsgDeleteCancelled = "❌ Deletion cancelled."
	MsgDeleteFailed    = "❌ Couldn't delete the meal. Please try again later."
)

// LoggedMarkdown renders a logged meal and the day's progress as MarkdownV2.
func LoggedMarkdown(o Outcome) string {
	e := format.EscapeMarkdownV2
	m := o.Event.Macros
	return fmt.Sprintf("✅ Logged\\! %s, %s\n\n📊 Today so far:\n"+
		"Calories: %s / %s\nProtein: %s / %s\nFat: %s / %s\nCarbs: %s / %s",
		format.Bold(e(fmt.Sprintf("%d kcal", m.Calories))),
		format.Bold(e(fmt.Sprintf("%d/%d/%d P/F/C", m.Protein, m.Fat, m.Carbs))),
		format.Bold(e(strconv.Itoa(o.Day.Calories))), e(strconv.Itoa(o.Targets.Calories)),
		format.Bold(e(strconv.Itoa(o.Day.Protein))), e(strconv.Itoa(o.Targets.Protein)),
		format.Bold(e(strconv.Itoa(o.Day.Fat))), e(strconv.Itoa(o.Targets.Fat)),
		format.Bold(e(strconv.Itoa(o.Day.Carbs))), e(strconv.Itoa(o.Targets.Carbs)),
	)
}

// DeletePrompt asks to confirm removing e.
func DeletePrompt(e domain.MealEvent) string {
	return fmt.Sprintf("Delete your last meal?\n'%s' (%s): %d kcal, %d/%d/%d P/F/C",
		e.Text, e.Date, e.Calories, e.Protein, e.Fat, e.Carbs)
}

// Deleted confirms removal of e.
func Deleted(e domain.MealEvent) string {
	return fmt.Sprintf("✅ Meal '%s' deleted.", e.Text)
}

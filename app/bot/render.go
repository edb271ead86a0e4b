package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/app/flow"
	"github.com/m3rciful/hungrylogs/core/telegram/helpers"
	"github.com/m3rciful/hungrylogs/core/telegram/keyboard"
)

// Callback keys.
const (
	cbRegConfirm     = "reg_confirm"
	cbRegEdit        = "reg_edit"
	cbGoalAccept     = "goal_accept"
	cbFlowCancel     = "flow_cancel"
	cbMealDelete     = "meal_delete"
	cbMealKeep       = "meal_delete_cancel"
	cbRestartConfirm = "restart_confirm"
	cbRestartCancel  = "restart_cancel"
)

// Statistics periods offered by /statistics.
const (
	labelDay      = "Day"
	labelWeek     = "Week"
	labelFourWeek = "4 weeks"
)

func markup(m flow.Menu) *tele.ReplyMarkup {
	switch m {
	case flow.MenuRemoveKeyboard:
		return keyboard.RemoveKeyboard()
	case flow.MenuRegistrationConfirm:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "✅ Save", Unique: cbRegConfirm},
			{Text: "✏️ Edit", Unique: cbRegEdit},
		})
	case flow.MenuGoalMethod:
		return keyboard.ReplyButtons(
			[]string{flow.LabelManual, flow.LabelAssistant},
			[]string{flow.LabelCancel},
		)
	case flow.MenuGoalConfirm:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "✅ Accept", Unique: cbGoalAccept},
			{Text: "❌ Cancel", Unique: cbFlowCancel},
		})
	case flow.MenuCancel:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: flow.LabelCancel, Unique: cbFlowCancel},
		})
	}
	return nil
}

func statsMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{labelDay, labelWeek, labelFourWeek})
}

// reply sends the replies in order and stops at the first failure.
func reply(c tele.Context, replies []flow.Reply) error {
	for _, r := range replies {
		if r.Text == "" {
			continue
		}
		mk := markup(r.Menu)
		var err error
		switch {
		case r.Edit && c.Callback() != nil:
			err = helpers.EditOrSendText(c, r.Text, mk)
		case mk != nil:
			err = helpers.SendText(c, r.Text, mk)
		default:
			err = helpers.SendText(c, r.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func send(c tele.Context, text string, mk ...*tele.ReplyMarkup) error {
	return helpers.SendText(c, text, mk...)
}

func edit(c tele.Context, text string) error {
	return helpers.EditOrSendText(c, text)
}

package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/core/telegram/helpers"
)

// fsmAdapter hands text of users inside a flow to the state machine.
type fsmAdapter struct{ a *App }

func (f fsmAdapter) InProgress(userID int64) bool { return f.a.flow.InProgress(userID) }

func (f fsmAdapter) HandleUpdate(c tele.Context) error {
	return reply(c, f.a.flow.HandleText(helpers.BuildContext(c), senderID(c), c.Text()))
}

package flow

// Menu names the keyboard that goes with a reply. The transport decides how
// each menu looks.
type Menu int

const (
	MenuNone Menu = iota
	MenuRemoveKeyboard
	// MenuRegistrationConfirm offers save / edit for a derived goal.
	MenuRegistrationConfirm
	// MenuGoalMethod is the reply keyboard Manual / AI assistant / Cancel.
	MenuGoalMethod
	// MenuGoalConfirm offers accept / cancel for a pending goal.
	MenuGoalConfirm
	// MenuCancel is a single cancel button.
	MenuCancel
)

// Reply is one outgoing message. Edit asks to replace the message that
// carried the pressed button instead of sending a new one.
type Reply struct {
	Text string
	Menu Menu
	Edit bool
}

func say(text string) Reply { return Reply{Text: text} }

func withMenu(text string, m Menu) Reply { return Reply{Text: text, Menu: m} }

func edit(text string, m Menu) Reply { return Reply{Text: text, Menu: m, Edit: true} }

// Labels of the goal-method reply keyboard.
const (
	LabelManual    = "✍️ Manual"
	LabelAssistant = "🤖 AI assistant"
	LabelCancel    = "❌ Cancel"
)

// Questions asked during registration, in order.
var Questions = []string{
	"How old are you?",
	"What is your sex?",
	"What are your height and weight?",
	"Describe your activity during the day. How often and what kind of sport do you do?",
	"What do you want to achieve first? Do you have a weight target?",
	"In what time frame do you want to get there?",
}

const (
	MsgAlreadyRegistered = "You are already registered 🙂\n" +
		"Send me a meal to log it.\n\n" +
		"See all commands with /help.\n" +
		"Delete your profile and start over with /restart."
	MsgGreeting       = "Hi! Let's get to know each other so I understand your goals 💬"
	MsgProcessing     = "Thanks! Processing your answers 🤖..."
	MsgDeriveFailed   = "Couldn't build your profile 😔 Please try again later with /start."
	MsgManualPrompt   = "Send your daily calories and macros separated by slashes: kcal/protein/fat/carbs (e.g. 1900/75/100/250)."
	MsgWrongFormat    = "⚠️ Wrong format. Use kcal/protein/fat/carbs, e.g. 1900/75/100/250"
	MsgSaveFailed     = "❌ Couldn't save your data. Please try again later."
	MsgRegisterFirst  = "You need to register first. Send /start"
	MsgChooseMethod   = "How do you want to update your goal?\n1️⃣ Enter it manually\n2️⃣ Ask the AI assistant"
	MsgChooseAgain    = "Choose one of the options: Manual, AI assistant or Cancel."
	MsgChangedMind    = "Changed your mind? Press the button below."
	MsgAIQuestion     = "🤖 What do you want to change in your diet?"
	MsgAnalyzing      = "🤖 Analyzing your diet and goals..."
	MsgAdviceFailed   = "⚠️ The assistant couldn't suggest a goal. Please try again later."
	MsgGoalMissing    = "⚠️ Goal data not found. Start again with /update_goal."
	MsgGoalSaved      = "✅ New goal saved!"
	MsgGoalCancelled  = "❌ Goal update cancelled."
	MsgRegCancelled   = "❌ Registration cancelled. Send /start to begin again."
	MsgNothingCancel  = "Nothing to cancel."
	MsgStaleAction    = "This action is no longer active."
	MsgUseButtons     = "Please use the buttons above, or send /cancel to stop."
	MsgRepeatQuestion = "Please answer the question:"
)

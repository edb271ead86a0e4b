package bot

const (
	msgSlowDown      = "Too fast, please wait a moment."
	msgNoRights      = "❌ You are not allowed to use this command."
	msgTextOnly      = "I only understand text. Describe your meal in words."
	msgFailed        = "❌ Something went wrong. Please try again later."
	msgNotRegistered = "You are not registered yet 🙂 Send /start to begin."
	msgRestartAsk    = "⚠️ Are you sure you want to delete your profile?\nAll saved data will be removed."
	msgRestartDone   = "✅ Profile and all meals deleted.\n\nSend /start to begin again."
	msgRestartCancel = "❌ Restart cancelled."
	msgChoosePeriod  = "Choose the statistics period:"
	msgLoadingStats  = "⏳ Loading statistics..."
	msgNoDayData     = "⚠️ Nothing logged today."
	msgNoWeekAvg     = "⚠️ Nothing logged last week, no average to show."
	msgNoFourWeeks   = "⚠️ Nothing logged in the last 4 weeks."
	msgBroadcastHelp = "⚠️ Add the text after the command, e.g.\n\n/broadcast Hi, there is an update!"
	msgBroadcastRun  = "🚀 Starting the broadcast..."
	msgBroadcastDone = "✅ Broadcast finished.\n\n📬 Delivered: %d\n🚫 Failed: %d"
	msgBadPayload    = "⚠️ Invalid confirmation data."
)

// Package flow runs the registration and goal-update conversations.
//
// Edits are staged in the user's FlowState and reach the profile store only
// on an explicit confirmation. Cancelling drops the staged data and leaves the
// stored profile as it was.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/hungrylogs/app/ai"
	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/journal"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/state"
)

// Deriver builds a profile from registration answers.
type Deriver interface {
	Derive(ctx context.Context, qaText string) (domain.Profile, bool, error)
}

// Advisor proposes revised targets.
type Advisor interface {
	Advise(ctx context.Context, p domain.Profile, statsSummary, request string) (domain.GoalSuggestion, error)
}

// SummaryFunc returns the intake summary handed to the advisor.
type SummaryFunc func(ctx context.Context, userID int64) string

// Sessions is the per-user state store.
type Sessions = state.Manager[FlowState]

type stepFunc func(ctx context.Context, userID int64, st FlowState, text string) []Reply

// Deps are the collaborators of a Machine.
type Deps struct {
	Sessions *Sessions
	Profiles storage.Profiles
	Deriver  Deriver
	Advisor  Advisor
	Summary  SummaryFunc
	Journal  journal.Recorder
}

// Machine is safe for concurrent use by different users. Updates of one user
// are expected to arrive one at a time.
type Machine struct {
	sessions *Sessions
	steps    *state.Handlers[stepFunc]
	profiles storage.Profiles
	deriver  Deriver
	advisor  Advisor
	summary  SummaryFunc
	journal  journal.Recorder
}

// New wires the state handlers.
func New(d Deps) *Machine {
	m := &Machine{
		sessions: d.Sessions,
		steps:    state.NewHandlers[stepFunc](),
		profiles: d.Profiles,
		deriver:  d.Deriver,
		advisor:  d.Advisor,
		summary:  d.Summary,
		journal:  d.Journal,
	}
	if m.sessions == nil {
		m.sessions = state.NewManager[FlowState]()
	}
	if m.journal == nil {
		m.journal = journal.Nop{}
	}
	if m.summary == nil {
		m.summary = func(context.Context, int64) string { return "" }
	}
	m.steps.Register(NameCollecting, m.collect)
	m.steps.Register(NameConfirmGoal, m.awaitButtons)
	m.steps.Register(NameManualMacros, m.manualMacros)
	m.steps.Register(NameChooseMethod, m.chooseMethod)
	m.steps.Register(NameManualInput, m.manualGoal)
	m.steps.Register(NameAIRequest, m.aiRequest)
	m.steps.Register(NameConfirmUpdate, m.awaitButtons)
	return m
}

// Sessions exposes the state store shared with the meal path.
func (m *Machine) Sessions() *Sessions { return m.sessions }

// InProgress reports whether userID is inside a flow.
func (m *Machine) InProgress(userID int64) bool { return m.sessions.InProgress(userID) }

// State returns the user's current state, nil when idle.
func (m *Machine) State(userID int64) FlowState {
	st, ok := m.sessions.GetState(userID)
	if !ok {
		return nil
	}
	return st
}

func (m *Machine) set(ctx context.Context, userID int64, st FlowState) {
	from := m.sessions.StateName(userID)
	m.sessions.Set(userID, st)
	if from != st.Name() {
		logger.Info(ctx, logger.CompFlow, "flow.transition",
			slog.Int64("user_id", userID),
			slog.String("from", from),
			slog.String("to", st.Name()),
		)
	}
}

func (m *Machine) clear(ctx context.Context, userID int64, outcome string) {
	from := m.sessions.StateName(userID)
	m.sessions.ClearState(userID)
	logger.Info(ctx, logger.CompFlow, "flow.transition",
		slog.Int64("user_id", userID),
		slog.String("from", from),
		slog.String("to", state.Idle),
		slog.String("outcome", outcome),
	)
}

func (m *Machine) exists(ctx context.Context, userID int64) (bool, error) {
	ok, err := storage.Exists(ctx, m.profiles, userID)
	if err != nil {
		logger.Error(ctx, logger.CompProfiles, "profile.lookup", slog.Int64("user_id", userID), logger.Err(err))
	}
	return ok, err
}

// StartRegistration begins the questionnaire for users without a profile.
// Registered users get a single notice and any stale flow is dropped.
func (m *Machine) StartRegistration(ctx context.Context, userID int64) []Reply {
	ok, err := m.exists(ctx, userID)
	if err != nil {
		return []Reply{say(MsgSaveFailed)}
	}
	if ok {
		m.sessions.Clear(userID)
		return []Reply{withMenu(MsgAlreadyRegistered, MenuRemoveKeyboard)}
	}
	m.sessions.Clear(userID)
	m.set(ctx, userID, Registering{})
	m.journal.Event(ctx, "registration_start", userID, "")
	return []Reply{say(MsgGreeting), withMenu(Questions[0], MenuRemoveKeyboard)}
}

// HandleText routes free text to the handler of the user's state.
// Idle users get no replies; the caller handles their text.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) []Reply {
	st, ok := m.sessions.GetState(userID)
	if !ok {
		return nil
	}
	if isCancel(text, st.Name() != NameCollecting) {
		return m.Cancel(ctx, userID)
	}
	step, ok := m.steps.Lookup(st.Name())
	if !ok {
		logger.Error(ctx, logger.CompFlow, "flow.unknown_state",
			slog.Int64("user_id", userID),
			slog.String("state", st.Name()),
		)
		m.clear(ctx, userID, "fail")
		return []Reply{say(MsgSaveFailed)}
	}
	return step(ctx, userID, st, strings.TrimSpace(text))
}

// isCancel recognises /cancel and the ❌ button labels. Bare words count
// only when words is set: during the questionnaire "stop" is an answer.
func isCancel(text string, words bool) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "❌" || t == "/cancel" {
		return true
	}
	rest, button := strings.CutPrefix(t, "❌")
	if !button && !words {
		return false
	}
	switch strings.TrimSpace(rest) {
	case "cancel", "отмена", "stop":
		return true
	}
	return false
}

func (m *Machine) collect(ctx context.Context, userID int64, st FlowState, text string) []Reply {
	reg := st.(Registering)
	if text == "" {
		return []Reply{say(MsgRepeatQuestion + " " + Questions[reg.Step])}
	}
	answers := append(append([]string(nil), reg.Answers...), text)
	next := reg.Step + 1
	if next < len(Questions) {
		m.set(ctx, userID, Registering{Step: next, Answers: answers})
		return []Reply{say(Questions[next])}
	}

	replies := []Reply{say(MsgProcessing)}
	profile, ok, err := m.deriver.Derive(ctx, QAText(answers))
	if err != nil || !ok {
		attrs := []slog.Attr{slog.Int64("user_id", userID), slog.Bool("absent", !ok)}
		if err != nil {
			attrs = append(attrs, logger.Err(err))
		}
		logger.Warn(ctx, logger.CompFlow, "registration.derive_failed", attrs...)
		m.clear(ctx, userID, "fail")
		m.journal.Event(ctx, "registration_failed", userID, "")
		return append(replies, say(MsgDeriveFailed))
	}
	profile.UserID = userID
	m.set(ctx, userID, ConfirmingGoal{Profile: profile})
	return append(replies, withMenu(derivedGoalText(profile), MenuRegistrationConfirm))
}

// QAText renders numbered question and answer blocks for the deriver.
func QAText(answers []string) string {
	blocks := make([]string, 0, len(answers))
	for i, a := range answers {
		if i >= len(Questions) {
			break
		}
		blocks = append(blocks, fmt.Sprintf("%d. %s\n%s", i+1, Questions[i], a))
	}
	return strings.Join(blocks, "\n")
}

func derivedGoalText(p domain.Profile) string {
	return fmt.Sprintf("This is the goal I worked out for you:\nGoal: %s\nCalories: %d kcal\nP/F/C: %d / %d / %d\n\n"+
		"Press \"Save\" to keep it or \"Edit\" to set the numbers yourself.",
		orDash(p.Goal), p.Calories, p.Protein, p.Fat, p.Carbs)
}

func savedProfileText(p domain.Profile) string {
	return fmt.Sprintf("✅ Profile saved!\n\nGoal: %s\nCalories: %d kcal\nP/F/C: %d / %d / %d",
		orDash(p.Goal), p.Calories, p.Protein, p.Fat, p.Carbs)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}

// ConfirmRegistration stores the derived profile.
func (m *Machine) ConfirmRegistration(ctx context.Context, userID int64) []Reply {
	st, _ := m.sessions.GetState(userID)
	cg, ok := st.(ConfirmingGoal)
	if !ok {
		return []Reply{say(MsgStaleAction)}
	}
	return m.commitProfile(ctx, userID, cg.Profile, true)
}

func (m *Machine) commitProfile(ctx context.Context, userID int64, p domain.Profile, fromButton bool) []Reply {
	p.UserID = userID
	err := m.profiles.Upsert(ctx, p)
	m.clear(ctx, userID, outcome(err))
	if err != nil {
		logger.Error(ctx, logger.CompProfiles, "profile.save", slog.Int64("user_id", userID), logger.Err(err))
		return []Reply{say(MsgSaveFailed)}
	}
	logger.Info(ctx, logger.CompProfiles, "profile.save",
		slog.Int64("user_id", userID),
		slog.String("status", "ok"),
		slog.Int("target_cal", p.Calories),
	)
	m.journal.Event(ctx, "registration_saved", userID, p.Goal)
	if fromButton {
		return []Reply{edit(savedProfileText(p), MenuNone)}
	}
	return []Reply{say(savedProfileText(p))}
}

func outcome(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// EditRegistration switches to typing the targets by hand.
func (m *Machine) EditRegistration(ctx context.Context, userID int64) []Reply {
	st, _ := m.sessions.GetState(userID)
	cg, ok := st.(ConfirmingGoal)
	if !ok {
		return []Reply{say(MsgStaleAction)}
	}
	m.set(ctx, userID, SettingMacrosManually{Profile: cg.Profile})
	return []Reply{edit(MsgManualPrompt, MenuCancel)}
}

func (m *Machine) manualMacros(ctx context.Context, userID int64, st FlowState, text string) []Reply {
	sm := st.(SettingMacrosManually)
	t, err := domain.ParseTargets(text)
	if err != nil {
		logger.Debug(ctx, logger.CompFlow, "macros.invalid", slog.Int64("user_id", userID))
		return []Reply{say(MsgWrongFormat)}
	}
	p := sm.Profile
	p.Targets = t
	return m.commitProfile(ctx, userID, p, false)
}

func (m *Machine) awaitButtons(_ context.Context, _ int64, _ FlowState, _ string) []Reply {
	return []Reply{say(MsgUseButtons)}
}

// StartGoalUpdate opens the goal-update menu for a registered user.
func (m *Machine) StartGoalUpdate(ctx context.Context, userID int64) []Reply {
	p, err := m.profiles.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return []Reply{say(MsgRegisterFirst)}
	}
	if err != nil {
		logger.Error(ctx, logger.CompProfiles, "profile.lookup", slog.Int64("user_id", userID), logger.Err(err))
		return []Reply{say(MsgSaveFailed)}
	}
	m.set(ctx, userID, UpdatingGoal{Step: ChoosingMethod, Current: p})
	m.journal.Event(ctx, "goal_update_start", userID, "")
	return []Reply{withMenu(MsgChooseMethod, MenuGoalMethod)}
}

func (m *Machine) chooseMethod(ctx context.Context, userID int64, st FlowState, text string) []Reply {
	ug := st.(UpdatingGoal)
	choice := strings.ToLower(text)
	switch {
	case strings.Contains(choice, "manual"):
		ug.Step = ManualInput
		m.set(ctx, userID, ug)
		m.journal.Event(ctx, "goal_update_manual", userID, "")
		return []Reply{withMenu(MsgManualPrompt, MenuRemoveKeyboard), withMenu(MsgChangedMind, MenuCancel)}
	case strings.Contains(choice, "assistant") || hasWord(choice, "ai"):
		ug.Step = AIRequest
		m.set(ctx, userID, ug)
		m.journal.Event(ctx, "goal_update_ai", userID, "")
		return []Reply{withMenu(MsgAIQuestion, MenuRemoveKeyboard), withMenu(MsgChangedMind, MenuCancel)}
	}
	return []Reply{withMenu(MsgChooseAgain, MenuGoalMethod)}
}

func hasWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == '-' || r == ',' }) {
		if f == word {
			return true
		}
	}
	return false
}

func (m *Machine) manualGoal(ctx context.Context, userID int64, st FlowState, text string) []Reply {
	ug := st.(UpdatingGoal)
	t, err := domain.ParseTargets(text)
	if err != nil {
		logger.Debug(ctx, logger.CompFlow, "macros.invalid", slog.Int64("user_id", userID))
		return []Reply{say(MsgWrongFormat)}
	}
	pending := domain.GoalSuggestion{Goal: domain.ManualGoal, Targets: t}
	ug.Step = AwaitingConfirmation
	ug.Pending = &pending
	m.set(ctx, userID, ug)
	m.journal.Event(ctx, "goal_manual_suggested", userID, targetsLine(t))
	return []Reply{withMenu(pendingGoalText(pending, false), MenuGoalConfirm)}
}

func (m *Machine) aiRequest(ctx context.Context, userID int64, st FlowState, text string) []Reply {
	ug := st.(UpdatingGoal)
	replies := []Reply{say(MsgAnalyzing)}
	if m.advisor == nil {
		m.clear(ctx, userID, "fail")
		return append(replies, say(MsgAdviceFailed))
	}
	suggestion, err := m.advisor.Advise(ctx, ug.Current, m.summary(ctx, userID), text)
	if err != nil {
		logger.Warn(ctx, logger.CompFlow, "goal.advice_failed", slog.Int64("user_id", userID), logger.Err(err))
		m.clear(ctx, userID, "fail")
		m.journal.Event(ctx, "goal_ai_failed", userID, "")
		var refusal *ai.RefusalError
		if errors.As(err, &refusal) {
			return append(replies, say("⚠️ "+refusal.Message))
		}
		return append(replies, say(MsgAdviceFailed))
	}
	ug.Step = AwaitingConfirmation
	ug.Pending = &suggestion
	m.set(ctx, userID, ug)
	m.journal.Event(ctx, "goal_ai_suggested", userID, targetsLine(suggestion.Targets))
	return append(replies, withMenu(pendingGoalText(suggestion, true), MenuGoalConfirm))
}

func targetsLine(t domain.Targets) string {
	return fmt.Sprintf("%d/%d/%d/%d", t.Calories, t.Protein, t.Fat, t.Carbs)
}

func pendingGoalText(s domain.GoalSuggestion, fromAI bool) string {
	var b strings.Builder
	if fromAI {
		if s.Summary != "" {
			fmt.Fprintf(&b, "🤖 %s\n\n", s.Summary)
		}
		fmt.Fprintf(&b, "📊 New goal suggested by the assistant:\n🎯 %s\n", capitalize(s.Goal))
	} else {
		b.WriteString("🎯 Check your goal:\n")
	}
	fmt.Fprintf(&b, "🍽 Calories: %d\n💪 Protein: %d\n🥑 Fat: %d\n🍞 Carbs: %d\n\n", s.Targets.Calories, s.Targets.Protein, s.Targets.Fat, s.Targets.Carbs)
	b.WriteString("Press ✅ to save or ❌ to cancel.")
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// AcceptGoal applies the pending goal to the stored profile. The flow ends
// whether or not the write succeeds.
func (m *Machine) AcceptGoal(ctx context.Context, userID int64) []Reply {
	st, _ := m.sessions.GetState(userID)
	ug, ok := st.(UpdatingGoal)
	if !ok {
		return []Reply{say(MsgStaleAction)}
	}
	if ug.Step != AwaitingConfirmation || ug.Pending == nil {
		m.clear(ctx, userID, "fail")
		return []Reply{say(MsgGoalMissing)}
	}

	current, err := m.profiles.Get(ctx, userID)
	if err == nil {
		err = m.profiles.Upsert(ctx, ug.Pending.Apply(current))
	}
	m.clear(ctx, userID, outcome(err))
	if err != nil {
		logger.Error(ctx, logger.CompProfiles, "goal.save", slog.Int64("user_id", userID), logger.Err(err))
		if errors.Is(err, storage.ErrNotFound) {
			return []Reply{say(MsgRegisterFirst)}
		}
		return []Reply{say(MsgSaveFailed)}
	}
	logger.Info(ctx, logger.CompProfiles, "goal.save",
		slog.Int64("user_id", userID),
		slog.String("status", "ok"),
		slog.Int("target_cal", ug.Pending.Targets.Calories),
	)
	m.journal.Event(ctx, "goal_updated", userID, targetsLine(ug.Pending.Targets))
	return []Reply{edit(MsgGoalSaved, MenuNone)}
}

// Cancel leaves any flow and drops its staged data.
func (m *Machine) Cancel(ctx context.Context, userID int64) []Reply {
	st, ok := m.sessions.GetState(userID)
	if !ok {
		return []Reply{withMenu(MsgNothingCancel, MenuRemoveKeyboard)}
	}
	m.clear(ctx, userID, "cancelled")
	if _, goal := st.(UpdatingGoal); goal {
		m.journal.Event(ctx, "goal_update_cancel", userID, st.Name())
		return []Reply{withMenu(MsgGoalCancelled, MenuRemoveKeyboard)}
	}
	m.journal.Event(ctx, "registration_cancel", userID, st.Name())
	return []Reply{withMenu(MsgRegCancelled, MenuRemoveKeyboard)}
}

// Reset drops the whole session, pending meal text included.
func (m *Machine) Reset(userID int64) {
	m.sessions.Clear(userID)
}

package flow

import "github.com/m3rciful/hungrylogs/app/domain"

// FlowState is the step a user is in. Idle is the absence of a state.
type FlowState interface {
	Name() string
	flowState()
}

// State names used for dispatch and logs.
const (
	NameCollecting    = "registration.collecting"
	NameConfirmGoal   = "registration.confirm_goal"
	NameManualMacros  = "registration.manual_macros"
	NameChooseMethod  = "goal.choose_method"
	NameManualInput   = "goal.manual_input"
	NameAIRequest     = "goal.ai_request"
	NameConfirmUpdate = "goal.confirm"
)

// Registering collects the answers to the registration questions.
type Registering struct {
	Step    int
	Answers []string
}

// ConfirmingGoal holds a derived profile until the user saves or edits it.
type ConfirmingGoal struct {
	Profile domain.Profile
}

// SettingMacrosManually waits for "kcal/protein/fat/carbs" for a derived profile.
type SettingMacrosManually struct {
	Profile domain.Profile
}

// UpdateStep is the sub-state of a goal update.
type UpdateStep int

const (
	ChoosingMethod UpdateStep = iota
	ManualInput
	AIRequest
	AwaitingConfirmation
)

// UpdatingGoal revises the targets of an existing profile. Pending is set
// only in AwaitingConfirmation.
type UpdatingGoal struct {
	Step    UpdateStep
	Current domain.Profile
	Pending *domain.GoalSuggestion
}

func (Registering) Name() string           { return NameCollecting }
func (ConfirmingGoal) Name() string        { return NameConfirmGoal }
func (SettingMacrosManually) Name() string { return NameManualMacros }

func (u UpdatingGoal) Name() string {
	switch u.Step {
	case ManualInput:
		return NameManualInput
	case AIRequest:
		return NameAIRequest
	case AwaitingConfirmation:
		return NameConfirmUpdate
	default:
		return NameChooseMethod
	}
}

func (Registering) flowState()           {}
func (ConfirmingGoal) flowState()        {}
func (SettingMacrosManually) flowState() {}
func (UpdatingGoal) flowState()          {}

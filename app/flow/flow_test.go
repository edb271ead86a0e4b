package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hungrylogs/app/ai"
	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/storage"
)

type memProfiles struct {
	mu      sync.Mutex
	byID    map[int64]domain.Profile
	upserts int
	failPut error
}

func newMemProfiles() *memProfiles { return &memProfiles{byID: map[int64]domain.Profile{}} }

func (m *memProfiles) Get(_ context.Context, id int64) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.Profile{}, storage.ErrNotFound
	}
	return p, nil
}

func (m *memProfiles) Upsert(_ context.Context, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.failPut != nil {
		return m.failPut
	}
	m.byID[p.UserID] = p
	return nil
}

func (m *memProfiles) List(context.Context) ([]domain.Profile, error) { return nil, nil }

func (m *memProfiles) DeleteAll(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type countingDeriver struct {
	calls   int
	lastQA  string
	profile domain.Profile
	ok      bool
	err     error
}

func (d *countingDeriver) Derive(_ context.Context, qa string) (domain.Profile, bool, error) {
	d.calls++
	d.lastQA = qa
	return d.profile, d.ok, d.err
}

type fakeAdvisor struct {
	suggestion domain.GoalSuggestion
	err        error
	summary    string
}

func (a *fakeAdvisor) Advise(_ context.Context, _ domain.Profile, summary, _ string) (domain.GoalSuggestion, error) {
	a.summary = summary
	return a.suggestion, a.err
}

var derived = domain.Profile{
	Age: 30, Sex: "female", Height: 170, Weight: 65, Activity: "office", Goal: "lose weight",
	Targets: domain.Targets{Calories: 1800, Protein: 110, Fat: 60, Carbs: 200},
}

func newMachine(p *memProfiles, d *countingDeriver, a Advisor) *Machine {
	return New(Deps{
		Profiles: p,
		Deriver:  d,
		Advisor:  a,
		Summary:  func(context.Context, int64) string { return "4-week summary" },
	})
}

func texts(replies []Reply) []string {
	out := make([]string, 0, len(replies))
	for _, r := range replies {
		out = append(out, r.Text)
	}
	return out
}

func answerAll(t *testing.T, m *Machine, id int64) []Reply {
	t.Helper()
	var last []Reply
	for _, a := range []string{"30", "female", "170 cm, 65 kg", "office, gym twice a week", "lose 5 kg", "3 months"} {
		last = m.HandleText(context.Background(), id, a)
	}
	return last
}

func TestStartRegistrationFromIdle(t *testing.T) {
	m := newMachine(newMemProfiles(), &countingDeriver{}, nil)

	replies := m.StartRegistration(context.Background(), 1)
	require.Len(t, replies, 2)
	assert.Equal(t, Questions[0], replies[1].Text)
	assert.Equal(t, Registering{}, m.State(1))
	assert.True(t, m.InProgress(1))
}

func TestStartRegistrationWhenRegistered(t *testing.T) {
	profiles := newMemProfiles()
	profiles.byID[1] = domain.Profile{UserID: 1}
	m := newMachine(profiles, &countingDeriver{}, nil)

	replies := m.StartRegistration(context.Background(), 1)
	assert.Equal(t, []string{MsgAlreadyRegistered}, texts(replies))
	assert.Nil(t, m.State(1))
	assert.Zero(t, profiles.upserts)
}

func TestRegistrationDerivesOnce(t *testing.T) {
	profiles := newMemProfiles()
	deriver := &countingDeriver{profile: derived, ok: true}
	m := newMachine(profiles, deriver, nil)
	ctx := context.Background()

	m.StartRegistration(ctx, 7)
	replies := answerAll(t, m, 7)

	assert.Equal(t, 1, deriver.calls)
	assert.Contains(t, deriver.lastQA, "1. "+Questions[0]+"\n30")
	assert.Contains(t, deriver.lastQA, "6. "+Questions[5]+"\n3 months")
	require.Len(t, replies, 2)
	assert.Equal(t, MenuRegistrationConfirm, replies[1].Menu)
	assert.Equal(t, NameConfirmGoal, m.State(7).Name())

	replies = m.ConfirmRegistration(ctx, 7)
	require.Len(t, replies, 1)
	assert.True(t, replies[0].Edit)
	saved, err := profiles.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), saved.UserID)
	assert.Equal(t, 1800, saved.Calories)
	assert.False(t, m.InProgress(7))
}

func TestRegistrationEmptyAnswerRepeats(t *testing.T) {
	m := newMachine(newMemProfiles(), &countingDeriver{}, nil)
	ctx := context.Background()
	m.StartRegistration(ctx, 1)

	replies := m.HandleText(ctx, 1, "   ")
	assert.Contains(t, replies[0].Text, Questions[0])
	assert.Equal(t, Registering{}, m.State(1))
}

func TestRegistrationDeriveFailure(t *testing.T) {
	cases := map[string]*countingDeriver{
		"error":  {err: errors.New("boom")},
		"absent": {ok: false},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			profiles := newMemProfiles()
			m := newMachine(profiles, d, nil)
			m.StartRegistration(context.Background(), 3)
			replies := answerAll(t, m, 3)

			assert.Equal(t, []string{MsgProcessing, MsgDeriveFailed}, texts(replies))
			assert.False(t, m.InProgress(3))
			assert.Zero(t, profiles.upserts)
		})
	}
}

func TestManualMacrosAfterEdit(t *testing.T) {
	profiles := newMemProfiles()
	m := newMachine(profiles, &countingDeriver{profile: derived, ok: true}, nil)
	ctx := context.Background()
	m.StartRegistration(ctx, 5)
	answerAll(t, m, 5)

	replies := m.EditRegistration(ctx, 5)
	assert.Equal(t, MenuCancel, replies[0].Menu)

	replies = m.HandleText(ctx, 5, "1900/75/100")
	assert.Equal(t, []string{MsgWrongFormat}, texts(replies))
	staged := derived
	staged.UserID = 5
	assert.Equal(t, SettingMacrosManually{Profile: staged}, m.State(5))
	assert.Zero(t, profiles.upserts)

	m.HandleText(ctx, 5, "1900/75/100/250")
	saved, err := profiles.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.Targets{Calories: 1900, Protein: 75, Fat: 100, Carbs: 250}, saved.Targets)
	assert.Equal(t, "lose weight", saved.Goal)
	assert.False(t, m.InProgress(5))
}

func TestRegistrationSaveFailureClears(t *testing.T) {
	profiles := newMemProfiles()
	profiles.failPut = errors.New("disk full")
	m := newMachine(profiles, &countingDeriver{profile: derived, ok: true}, nil)
	ctx := context.Background()
	m.StartRegistration(ctx, 5)
	answerAll(t, m, 5)

	replies := m.ConfirmRegistration(ctx, 5)
	assert.Equal(t, []string{MsgSaveFailed}, texts(replies))
	assert.False(t, m.InProgress(5))
}

func TestStaleActions(t *testing.T) {
	m := newMachine(newMemProfiles(), &countingDeriver{}, nil)
	ctx := context.Background()

	assert.Equal(t, []string{MsgStaleAction}, texts(m.ConfirmRegistration(ctx, 9)))
	assert.Equal(t, []string{MsgStaleAction}, texts(m.EditRegistration(ctx, 9)))
	assert.Equal(t, []string{MsgStaleAction}, texts(m.AcceptGoal(ctx, 9)))
	assert.False(t, m.InProgress(9))
}

func registered(id int64) *memProfiles {
	p := newMemProfiles()
	prof := derived
	prof.UserID = id
	p.byID[id] = prof
	return p
}

func TestGoalUpdateRequiresProfile(t *testing.T) {
	m := newMachine(newMemProfiles(), &countingDeriver{}, nil)
	assert.Equal(t, []string{MsgRegisterFirst}, texts(m.StartGoalUpdate(context.Background(), 2)))
	assert.False(t, m.InProgress(2))
}

func TestGoalUpdateManual(t *testing.T) {
	profiles := registered(2)
	m := newMachine(profiles, &countingDeriver{}, nil)
	ctx := context.Background()

	replies := m.StartGoalUpdate(ctx, 2)
	assert.Equal(t, MenuGoalMethod, replies[0].Menu)

	replies = m.HandleText(ctx, 2, "pizza")
	assert.Equal(t, []string{MsgChooseAgain}, texts(replies))
	assert.Equal(t, NameChooseMethod, m.State(2).Name())

	m.HandleText(ctx, 2, LabelManual)
	assert.Equal(t, NameManualInput, m.State(2).Name())

	replies = m.HandleText(ctx, 2, "2100/120/70/230")
	assert.Equal(t, MenuGoalConfirm, replies[0].Menu)
	assert.Equal(t, NameConfirmUpdate, m.State(2).Name())

	assert.Equal(t, []string{MsgUseButtons}, texts(m.HandleText(ctx, 2, "hello?")))

	replies = m.AcceptGoal(ctx, 2)
	assert.Equal(t, []string{MsgGoalSaved}, texts(replies))
	saved, _ := profiles.Get(ctx, 2)
	assert.Equal(t, domain.ManualGoal, saved.Goal)
	assert.Equal(t, 2100, saved.Calories)
	assert.Equal(t, "female", saved.Sex)
	assert.False(t, m.InProgress(2))
}

func TestGoalUpdateAI(t *testing.T) {
	profiles := registered(2)
	advisor := &fakeAdvisor{suggestion: domain.GoalSuggestion{
		Summary: "Eat more protein.",
		Goal:    "recomposition",
		Targets: domain.Targets{Calories: 2000, Protein: 140, Fat: 65, Carbs: 190},
	}}
	m := newMachine(profiles, &countingDeriver{}, advisor)
	ctx := context.Background()

	m.StartGoalUpdate(ctx, 2)
	m.HandleText(ctx, 2, LabelAssistant)
	assert.Equal(t, NameAIRequest, m.State(2).Name())

	replies := m.HandleText(ctx, 2, "I want more muscle")
	require.Len(t, replies, 2)
	assert.Equal(t, MsgAnalyzing, replies[0].Text)
	assert.Contains(t, replies[1].Text, "Eat more protein.")
	assert.Equal(t, "4-week summary", advisor.summary)

	m.AcceptGoal(ctx, 2)
	saved, _ := profiles.Get(ctx, 2)
	assert.Equal(t, "recomposition", saved.Goal)
	assert.Equal(t, 140, saved.Protein)
}

func TestGoalUpdateAIFailure(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"refusal":   {err: &ai.RefusalError{Message: "not a diet question"}, want: "⚠️ not a diet question"},
		"transport": {err: errors.New("timeout"), want: MsgAdviceFailed},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			profiles := registered(2)
			m := newMachine(profiles, &countingDeriver{}, &fakeAdvisor{err: tc.err})
			ctx := context.Background()
			m.StartGoalUpdate(ctx, 2)
			m.HandleText(ctx, 2, "ai")

			replies := m.HandleText(ctx, 2, "help")
			assert.Equal(t, tc.want, replies[1].Text)
			assert.False(t, m.InProgress(2))
			assert.Zero(t, profiles.upserts)
		})
	}
}

func TestCancelFromAnyGoalUpdateState(t *testing.T) {
	steps := map[string][]string{
		NameChooseMethod:  nil,
		NameManualInput:   {LabelManual},
		NameConfirmUpdate: {LabelManual, "2100/120/70/230"},
	}
	for name, inputs := range steps {
		t.Run(name, func(t *testing.T) {
			profiles := registered(4)
			before, _ := profiles.Get(context.Background(), 4)
			m := newMachine(profiles, &countingDeriver{}, nil)
			ctx := context.Background()
			m.StartGoalUpdate(ctx, 4)
			for _, in := range inputs {
				m.HandleText(ctx, 4, in)
			}
			require.Equal(t, name, m.State(4).Name())

			replies := m.HandleText(ctx, 4, LabelCancel)
			assert.Equal(t, []string{MsgGoalCancelled}, texts(replies))
			assert.False(t, m.InProgress(4))
			after, _ := profiles.Get(ctx, 4)
			assert.Equal(t, before, after)
			assert.Zero(t, profiles.upserts)
		})
	}
}

func TestCancelWhenIdle(t *testing.T) {
	m := newMachine(newMemProfiles(), &countingDeriver{}, nil)
	assert.Equal(t, []string{MsgNothingCancel}, texts(m.Cancel(context.Background(), 1)))
}

func TestHandleTextIdleReturnsNothing(t *testing.T) {
	m := newMachine(newMemProfiles(), &countingDeriver{}, nil)
	assert.Empty(t, m.HandleText(context.Background(), 1, "2 eggs"))
}

func TestAcceptWithoutPendingGoal(t *testing.T) {
	m := newMachine(registered(2), &countingDeriver{}, nil)
	ctx := context.Background()
	m.StartGoalUpdate(ctx, 2)

	assert.Equal(t, []string{MsgGoalMissing}, texts(m.AcceptGoal(ctx, 2)))
	assert.False(t, m.InProgress(2))
}

func TestIsCancel(t *testing.T) {
	for _, in := range []string{"cancel", " Cancel ", "stop", "❌ Cancel", "❌", "отмена", "/cancel"} {
		assert.True(t, isCancel(in, true), in)
	}
	for _, in := range []string{"cancelled order", "no", "", "❌ maybe"} {
		assert.False(t, isCancel(in, true), in)
	}
	for _, in := range []string{"❌ Cancel", "❌", "/cancel"} {
		assert.True(t, isCancel(in, false), in)
	}
	for _, in := range []string{"cancel", "stop", "отмена"} {
		assert.False(t, isCancel(in, false), in)
	}
}

func TestQuestionnaireTakesStopAsAnswer(t *testing.T) {
	m := newMachine(newMemProfiles(), &countingDeriver{}, nil)
	ctx := context.Background()
	m.StartRegistration(ctx, 6)

	assert.Equal(t, []string{Questions[1]}, texts(m.HandleText(ctx, 6, "stop")))
	assert.Equal(t, Registering{Step: 1, Answers: []string{"stop"}}, m.State(6))

	assert.Equal(t, []string{MsgRegCancelled}, texts(m.HandleText(ctx, 6, "/cancel")))
	assert.False(t, m.InProgress(6))
}

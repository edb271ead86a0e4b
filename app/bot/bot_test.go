package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/app/ai"
	"github.com/m3rciful/hungrylogs/app/config"
	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/flow"
	"github.com/m3rciful/hungrylogs/app/meals"
	"github.com/m3rciful/hungrylogs/app/storage/csvstore"
	coreconfig "github.com/m3rciful/hungrylogs/core/config"
	coretelegram "github.com/m3rciful/hungrylogs/core/telegram"
)

type outgoing struct {
	Text string
	Opts *tele.SendOptions
	Edit bool
}

type fakeContext struct {
	tele.Context
	sender *tele.User
	update tele.Update
	store  map[string]any
	out    *[]outgoing
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Update() tele.Update      { return f.update }
func (f *fakeContext) Message() *tele.Message   { return f.update.Message }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Notify(tele.ChatAction) error            { return nil }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) Text() string {
	if f.update.Message == nil {
		return ""
	}
	return f.update.Message.Text
}

func (f *fakeContext) record(what any, opts []any, edit bool) error {
	o := outgoing{Text: what.(string), Edit: edit}
	for _, opt := range opts {
		if so, ok := opt.(*tele.SendOptions); ok {
			o.Opts = so
		}
	}
	*f.out = append(*f.out, o)
	return nil
}

func (f *fakeContext) Send(what any, opts ...any) error       { return f.record(what, opts, false) }
func (f *fakeContext) EditOrSend(what any, opts ...any) error { return f.record(what, opts, true) }

type fakeClassifier struct {
	calls []string
	res   ai.ClassifyResult
}

func (f *fakeClassifier) Classify(_ context.Context, _ int64, text string) (ai.ClassifyResult, error) {
	f.calls = append(f.calls, text)
	return f.res, nil
}

type fakeDeriver struct{ calls int }

func (f *fakeDeriver) Derive(context.Context, string) (domain.Profile, bool, error) {
	f.calls++
	return domain.Profile{
		Age: 40, Sex: "male", Goal: "keep weight",
		Targets: domain.Targets{Calories: 2400, Protein: 130, Fat: 80, Carbs: 280},
	}, true, nil
}

type fakeMessenger struct {
	mu      sync.Mutex
	blocked map[int64]bool
	got     []int64
}

func (f *fakeMessenger) Send(to tele.Recipient, _ interface{}, _ ...interface{}) (*tele.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := to.(*tele.User)
	if f.blocked[u.ID] {
		return nil, tele.ErrBlockedByUser
	}
	f.got = append(f.got, u.ID)
	return &tele.Message{}, nil
}

var today = time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	app     *App
	store   *csvstore.Store
	cls     *fakeClassifier
	deriver *fakeDeriver
	routes  []coretelegram.Route
	out     []outgoing
	nextID  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := csvstore.Open(t.TempDir(), "users.csv", "meals.csv")
	require.NoError(t, err)
	h := &harness{
		t:       t,
		store:   store,
		cls:     &fakeClassifier{res: ai.Parsed{Macros: domain.Macros{Protein: 12, Fat: 10, Carbs: 1, Calories: 150}}},
		deriver: &fakeDeriver{},
	}
	cfg := &config.Config{
		Config:  coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t", AdminID: 99}},
		Storage: config.StorageConfig{Driver: config.StorageCSV},
	}
	h.app, err = New(Deps{
		Config:     cfg,
		Store:      store,
		Classifier: h.cls,
		Deriver:    h.deriver,
		Now:        func() time.Time { return today },
	})
	require.NoError(t, err)
	opts, err := h.app.TelegramRunOptions()
	require.NoError(t, err)
	h.routes = opts.Routes
	return h
}

func (h *harness) handler(endpoint any) tele.HandlerFunc {
	h.t.Helper()
	for _, r := range h.routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	h.t.Fatalf("no route for %v", endpoint)
	return nil
}

func (h *harness) ctx(userID int64, upd tele.Update) *fakeContext {
	h.nextID++
	upd.ID = h.nextID
	return &fakeContext{sender: &tele.User{ID: userID}, update: upd, store: map[string]any{}, out: &h.out}
}

func (h *harness) command(userID int64, name, payload string) {
	h.t.Helper()
	text := strings.TrimSpace(name + " " + payload)
	c := h.ctx(userID, tele.Update{Message: &tele.Message{Text: text, Payload: payload}})
	require.NoError(h.t, h.handler(name)(c))
}

func (h *harness) text(userID int64, text string) {
	h.t.Helper()
	c := h.ctx(userID, tele.Update{Message: &tele.Message{Text: text}})
	require.NoError(h.t, h.handler(tele.OnText)(c))
}

func (h *harness) press(userID int64, unique, payload string) {
	h.t.Helper()
	data := "\f" + unique
	if payload != "" {
		data += "|" + payload
	}
	c := h.ctx(userID, tele.Update{Callback: &tele.Callback{Data: data}})
	require.NoError(h.t, h.handler(tele.OnCallback)(c))
}

func (h *harness) last() outgoing {
	h.t.Helper()
	require.NotEmpty(h.t, h.out)
	return h.out[len(h.out)-1]
}

func (h *harness) register(userID int64) {
	h.t.Helper()
	require.NoError(h.t, h.store.Profiles().Upsert(context.Background(), domain.Profile{
		UserID:  userID,
		Goal:    "lose weight",
		Targets: domain.Targets{Calories: 1800, Protein: 100, Fat: 60, Carbs: 200},
	}))
}

func TestRegistrationEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.command(1, "/start", "")
	assert.Equal(t, flow.Questions[0], h.last().Text)

	for _, answer := range []string{"40", "male", "180/80", "desk job", "stay fit", "forever"} {
		h.text(1, answer)
	}
	assert.Equal(t, 1, h.deriver.calls)
	assert.Empty(t, h.cls.calls, "flow answers must not be logged as meals")
	require.NotNil(t, h.last().Opts)
	assert.NotNil(t, h.last().Opts.ReplyMarkup.InlineKeyboard)

	h.press(1, cbRegConfirm, "")
	assert.True(t, h.last().Edit)
	p, err := h.store.Profiles().Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2400, p.Calories)

	h.command(1, "/start", "")
	assert.Equal(t, flow.MsgAlreadyRegistered, h.last().Text)
}

func TestMealLoggingAndDayStats(t *testing.T) {
	h := newHarness(t)
	h.register(1)

	h.text(1, "2 eggs")
	logged := h.last()
	require.NotNil(t, logged.Opts)
	assert.Equal(t, tele.ModeMarkdownV2, logged.Opts.ParseMode)
	assert.Contains(t, logged.Text, "*150 kcal*")

	h.text(1, labelDay)
	assert.Contains(t, h.last().Text, "- 2 eggs: 150 kcal, 12/10/1 P/F/C")
	assert.Contains(t, h.last().Text, "Calories: 150 / 1800")
	assert.Equal(t, []string{"2 eggs"}, h.cls.calls)
}

func TestMealRequiresRegistration(t *testing.T) {
	h := newHarness(t)
	h.text(5, "pasta")
	assert.Equal(t, meals.MsgRegisterFirst, h.last().Text)
	assert.Empty(t, h.cls.calls)
}

func TestGoalShowsTargets(t *testing.T) {
	h := newHarness(t)
	h.command(3, "/goal", "")
	assert.Equal(t, meals.MsgRegisterFirst, h.last().Text)

	h.register(3)
	h.command(3, "/goal", "")
	assert.Contains(t, h.last().Text, "lose weight")
	assert.Contains(t, h.last().Text, "Calories: 1800 kcal")
}

func TestWeekStatsWithoutData(t *testing.T) {
	h := newHarness(t)
	h.register(1)
	h.text(1, labelWeek)
	assert.Contains(t, h.last().Text, msgNoWeekAvg)
	h.text(1, labelFourWeek)
	assert.Equal(t, msgNoFourWeeks, h.last().Text)
}

func TestDeleteLastMeal(t *testing.T) {
	h := newHarness(t)
	h.register(1)
	h.command(1, "/delete_last_meal", "")
	assert.Equal(t, meals.MsgNothingToDelete, h.last().Text)

	h.text(1, "soup")
	h.text(1, "bread")
	h.command(1, "/delete_last_meal", "")
	prompt := h.last()
	assert.Contains(t, prompt.Text, "'bread'")
	require.NotNil(t, prompt.Opts)
	btn := prompt.Opts.ReplyMarkup.InlineKeyboard[0][0]
	assert.Equal(t, cbMealDelete, btn.Unique)
	assert.Equal(t, "1", btn.Data)

	h.press(1, cbMealDelete, "1")
	assert.Equal(t, meals.Deleted(domain.MealEvent{Text: "bread"}), h.last().Text)
	events, err := h.store.Meals().ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "soup", events[0].Text)
}

func TestRestartWipesUser(t *testing.T) {
	h := newHarness(t)
	h.command(3, "/restart", "")
	assert.Equal(t, msgNotRegistered, h.last().Text)

	h.register(3)
	h.text(3, "porridge")
	h.command(3, "/restart", "")
	assert.Equal(t, msgRestartAsk, h.last().Text)
	h.press(3, cbRestartConfirm, "")
	assert.Equal(t, msgRestartDone, h.last().Text)

	_, err := h.store.Profiles().Get(context.Background(), 3)
	assert.Error(t, err)
	events, _ := h.store.Meals().ListAll(context.Background())
	assert.Empty(t, events)
}

func TestGoalUpdateCancelKeepsProfile(t *testing.T) {
	h := newHarness(t)
	h.register(2)
	h.command(2, "/update_goal", "")
	h.text(2, flow.LabelManual)
	h.text(2, "2500/150/80/300")
	h.press(2, cbFlowCancel, "")
	assert.Equal(t, flow.MsgGoalCancelled, h.last().Text)

	p, _ := h.store.Profiles().Get(context.Background(), 2)
	assert.Equal(t, 1800, p.Calories)
	assert.Empty(t, h.cls.calls)
}

func TestStaleButton(t *testing.T) {
	h := newHarness(t)
	h.press(4, cbGoalAccept, "")
	assert.Equal(t, flow.MsgStaleAction, h.last().Text)
}

func TestHelpHidesAdminCommands(t *testing.T) {
	h := newHarness(t)
	h.command(1, "/help", "")
	text := h.last().Text
	assert.Contains(t, text, "/statistics")
	assert.Contains(t, text, "/cancel")
	assert.NotContains(t, text, "/broadcast")
}

func TestBroadcast(t *testing.T) {
	h := newHarness(t)
	for _, id := range []int64{1, 2, 3} {
		h.register(id)
	}
	messenger := &fakeMessenger{blocked: map[int64]bool{2: true}}
	h.app.messenger = messenger

	h.command(7, "/broadcast", "hello")
	assert.Equal(t, msgNoRights, h.last().Text)
	assert.Empty(t, messenger.got)

	h.command(99, "/broadcast", "")
	assert.Equal(t, msgBroadcastHelp, h.last().Text)

	h.command(99, "/broadcast", "hello")
	assert.Equal(t, "✅ Broadcast finished.\n\n📬 Delivered: 2\n🚫 Failed: 1", h.last().Text)
	assert.ElementsMatch(t, []int64{1, 3}, messenger.got)
}

func TestBroadcastCountsTransportErrors(t *testing.T) {
	h := newHarness(t)
	h.app.messenger = &erroringMessenger{}
	sent, failed := h.app.broadcast(context.Background(), []int64{1, 2}, "hi")
	assert.Zero(t, sent)
	assert.Equal(t, 2, failed)
}

type erroringMessenger struct{}

func (erroringMessenger) Send(tele.Recipient, interface{}, ...interface{}) (*tele.Message, error) {
	return nil, errors.New("network down")
}

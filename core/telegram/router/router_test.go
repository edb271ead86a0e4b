package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/hungrylogs/core/telegram"
	"github.com/m3rciful/hungrylogs/core/telegram/commands"
)

type fakeContext struct {
	tele.Context
	sender *tele.User
	update tele.Update
	store  map[string]any
}

func newText(userID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		update: tele.Update{ID: int(userID), Message: &tele.Message{Text: text}},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User    { return f.sender }
func (f *fakeContext) Chat() *tele.Chat      { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Update() tele.Update   { return f.update }
func (f *fakeContext) Text() string          { return f.update.Message.Text }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

type fakeFSM struct {
	active  map[int64]bool
	handled []string
}

func (f *fakeFSM) InProgress(id int64) bool { return f.active[id] }
func (f *fakeFSM) HandleUpdate(c tele.Context) error {
	f.handled = append(f.handled, c.Text())
	return nil
}

func textHandler(t *testing.T, routes []tg.Route) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == tele.OnText {
			return r.Handler
		}
	}
	t.Fatal("no text route")
	return nil
}

func TestTextRoutesPreferActiveFlow(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	reg := tg.NewRegistry()
	var fallback int
	reg.SetTextFallback(func(tele.Context) error { fallback++; return nil })

	h := textHandler(t, TextRoutes(fsm, reg, TextOptions{}))
	require.NoError(t, h(newText(1, "25")))
	require.NoError(t, h(newText(2, "oatmeal")))

	assert.Equal(t, []string{"25"}, fsm.handled)
	assert.Equal(t, 1, fallback)
}

func TestTextRoutesGateAdminCommands(t *testing.T) {
	reg := tg.NewRegistry()
	var ran, rejected int
	reg.RegisterCommand("/broadcast", commands.Command{
		Handler:     func(tele.Context) error { ran++; return nil },
		Description: "broadcast",
		AdminOnly:   true,
	})
	opts := TextOptions{Commands: CommandRouteOptions{
		AdminID:       10,
		OnAdminReject: func(tele.Context) error { rejected++; return nil },
	}}
	h := textHandler(t, TextRoutes(nil, reg, opts))

	require.NoError(t, h(newText(11, "/broadcast hi")))
	require.NoError(t, h(newText(10, "/broadcast@hungrylogs_bot hi")))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, rejected)
}

func TestTextRoutesIgnoreCommandWordsWithoutSlash(t *testing.T) {
	reg := tg.NewRegistry()
	var ran, fallback int
	reg.RegisterCommand("/help", commands.Command{
		Handler:     func(tele.Context) error { ran++; return nil },
		Description: "help",
	})
	reg.SetTextFallback(func(tele.Context) error { fallback++; return nil })
	h := textHandler(t, TextRoutes(nil, reg, TextOptions{}))

	require.NoError(t, h(newText(3, "help")))
	assert.Equal(t, 0, ran)
	assert.Equal(t, 1, fallback)
}

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "flow stale" }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "FLOW_STALE", errorCode(codedErr{}))
	assert.Equal(t, "PLAINERR", errorCode(&plainErr{}))
	assert.Equal(t, "ERRORSTRING", errorCode(errors.New("x")))
}

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "update_goal", handlerName("/update_goal"))
	assert.Equal(t, "unknown", handlerName(" "))
	assert.Equal(t, "day_stats", handlerName("Day stats"))
}

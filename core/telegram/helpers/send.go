package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/hungrylogs/core/logger"
	"github.com/m3rciful/hungrylogs/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the dispatcher used by the send helpers. nil sends inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// deliver runs the call on the dispatcher and waits for it, so replies to one
// update keep their order while still getting the dispatcher's retries.
func deliver(c tele.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	result := make(chan error, 1)
	err := disp.Submit(ctx, action, endpoint, run, func(err error) { result <- err })
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.CompTGSender, "queue.fallback",
			slog.String("action", action),
			logger.Err(err),
		)
		return run()
	}
	if err != nil {
		return err
	}
	return <-result
}

// SendText sends text without a parse mode.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: first(markup)}
	return deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendMDV2 sends text with MarkdownV2 parse mode. The caller escapes the text.
func SendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdownV2, ReplyMarkup: first(markup)}
	return deliver(c, "send.mdv2", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendText replaces the message behind a pressed button, or sends a new
// one when there is nothing to edit.
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: first(markup)}
	return deliver(c, "edit.text", "editMessageText", func() error {
		return c.EditOrSend(text, opts)
	})
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) == 0 {
		return nil
	}
	return markup[0]
}

// Package ai turns free text into structured nutrition data through an
// OpenAI-compatible chat completion API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/m3rciful/hungrylogs/core/logger"
)

var (
	// ErrEmptyResponse means the model returned no choices or blank content.
	ErrEmptyResponse = errors.New("ai: empty response")
	// ErrMalformed means the reply could not be read as the expected JSON shape.
	ErrMalformed = errors.New("ai: malformed response")
)

// ChatCompleter is the part of the OpenAI client used here.
type ChatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Options configure the client. Temperature is omitted from requests when nil,
// since some models only accept their default.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	Timeout     time.Duration
}

// Client sends one system and one user message per call.
type Client struct {
	chat        ChatCompleter
	model       string
	temperature *float64
	timeout     time.Duration
	now         func() time.Time
}

const defaultModel = "gpt-4o-mini"

// NewClient builds a client backed by the OpenAI API.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("ai: api key is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if u := strings.TrimSpace(opts.BaseURL); u != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(u))
	}
	cli := openai.NewClient(reqOpts...)
	return NewWithCompleter(&cli.Chat.Completions, opts), nil
}

// NewWithCompleter builds a client over any ChatCompleter.
func NewWithCompleter(chat ChatCompleter, opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		chat:        chat,
		model:       model,
		temperature: opts.Temperature,
		timeout:     timeout,
		now:         time.Now,
	}
}

// complete returns the trimmed text of the first choice.
func (c *Client) complete(ctx context.Context, op, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if c.temperature != nil {
		params.Temperature = openai.Float(*c.temperature)
	}

	start := time.Now()
	resp, err := c.chat.New(ctx, params)
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("model", c.model),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.Warn(ctx, logger.CompAI, "ai.request", append(attrs, logger.Err(err))...)
		return "", fmt.Errorf("ai: %s: %w", op, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		logger.Warn(ctx, logger.CompAI, "ai.request", append(attrs, slog.String("outcome", "empty"))...)
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		logger.Warn(ctx, logger.CompAI, "ai.request", append(attrs, slog.String("outcome", "empty"))...)
		return "", ErrEmptyResponse
	}
	logger.Info(ctx, logger.CompAI, "ai.request", append(attrs,
		slog.String("status", "ok"),
		slog.Int64("tokens", resp.Usage.TotalTokens),
	)...)
	return content, nil
}

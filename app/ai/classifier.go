package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/core/logger"
)

// DefaultClarification is asked when the reply cannot be understood.
const DefaultClarification = "Couldn't understand, can you describe the products more precisely?"

// ClassifyResult is either Parsed or NeedsClarification.
type ClassifyResult interface {
	classifyResult()
}

// Parsed is a macro estimate for a meal.
type Parsed struct {
	Macros  domain.Macros
	Date    string
	Details string
}

// NeedsClarification carries the question to ask the user.
type NeedsClarification struct {
	Question string
}

func (Parsed) classifyResult()             {}
func (NeedsClarification) classifyResult() {}

const classifySystem = `You estimate the nutrition of meals.
Turn the user's meal description into a single JSON object with the keys:
protein (grams), fat (grams), carbs (grams), calories (kcal),
date (YYYY-MM-DD, only when the user names a day other than today),
details (one short line with the portions and assumptions you used).
Estimate as precisely as the description allows and do not ask follow-up questions.
Only when the text does not describe food at all, reply {"clarification": "<one question>"}.
Reply with JSON only.`

// Classify estimates the macros of text. A reply that cannot be decoded
// becomes a clarification request; transport failures are returned as errors.
func (c *Client) Classify(ctx context.Context, userID int64, text string) (ClassifyResult, error) {
	content, err := c.complete(ctx, "classify", classifySystem, "Meal: "+strings.TrimSpace(text))
	if err != nil {
		if errors.Is(err, ErrEmptyResponse) {
			return NeedsClarification{Question: DefaultClarification}, nil
		}
		return nil, err
	}
	res, err := extractJSON(content)
	if err != nil {
		logger.Warn(ctx, logger.CompAI, "classify.decode",
			slog.Int64("user_id", userID),
			slog.String("reply", logger.SanitizeLimit(content, 256)),
			logger.Err(err),
		)
		return NeedsClarification{Question: DefaultClarification}, nil
	}
	if q := strings.TrimSpace(res.Get("clarification").String()); q != "" {
		return NeedsClarification{Question: q}, nil
	}
	return Parsed{
		Macros: domain.Macros{
			Protein:  intOf(res.Get("protein")),
			Fat:      intOf(res.Get("fat")),
			Carbs:    intOf(res.Get("carbs")),
			Calories: intOf(res.Get("calories")),
		},
		Date:    domain.NormalizeDate(res.Get("date").String(), c.now()),
		Details: strings.TrimSpace(res.Get("details").String()),
	}, nil
}

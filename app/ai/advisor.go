package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/core/logger"
)

// RefusalError carries the message a model returned instead of a suggestion.
type RefusalError struct {
	Message string
}

func (e *RefusalError) Error() string { return "ai: refused: " + e.Message }

// Code is picked up by the handler summary logs.
func (e *RefusalError) Code() string { return "ai_refused" }

const adviseSystem = `You are a nutritionist assistant helping a user revise their daily targets.
You get the user's profile, their average intake over the last 4 weeks and their request.
Reply with one JSON object:
{"summary": "<2-3 sentences of feedback>", "new_goal": {"goal": "<short text>", "target_cal": n, "p_goal": n, "f_goal": n, "c_goal": n}}
If the request cannot be answered, reply {"error": "<short explanation>"}.
Reply with JSON only.`

// Advise proposes new targets for p. The result is never applied here.
func (c *Client) Advise(ctx context.Context, p domain.Profile, statsSummary, request string) (domain.GoalSuggestion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: age %d, sex %s, height %g cm, weight %g kg, activity %s.\n", p.Age, p.Sex, p.Height, p.Weight, p.Activity)
	fmt.Fprintf(&b, "Current goal: %s, %d kcal, P/F/C %d/%d/%d g.\n", p.Goal, p.Calories, p.Protein, p.Fat, p.Carbs)
	fmt.Fprintf(&b, "Intake: %s\n", statsSummary)
	fmt.Fprintf(&b, "Request: %s", strings.TrimSpace(request))

	content, err := c.complete(ctx, "advise", adviseSystem, b.String())
	if err != nil {
		return domain.GoalSuggestion{}, err
	}
	res, err := extractJSON(content)
	if err != nil {
		logger.Warn(ctx, logger.CompAI, "advise.decode",
			slog.Int64("user_id", p.UserID),
			slog.String("reply", logger.SanitizeLimit(content, 256)),
			logger.Err(err),
		)
		return domain.GoalSuggestion{}, err
	}
	if msg := strings.TrimSpace(res.Get("error").String()); msg != "" {
		return domain.GoalSuggestion{}, &RefusalError{Message: msg}
	}
	g := res.Get("new_goal")
	if !g.IsObject() {
		return domain.GoalSuggestion{}, fmt.Errorf("%w: new_goal missing", ErrMalformed)
	}
	s := domain.GoalSuggestion{
		Summary: strings.TrimSpace(res.Get("summary").String()),
		Goal:    strings.TrimSpace(g.Get("goal").String()),
		Targets: targetsOf(g),
	}
	if s.Goal == "" {
		s.Goal = "not specified"
	}
	if s.Targets.Calories <= 0 {
		return domain.GoalSuggestion{}, fmt.Errorf("%w: target_cal missing", ErrMalformed)
	}
	if err := s.Targets.Validate(); err != nil {
		return domain.GoalSuggestion{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}

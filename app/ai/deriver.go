package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/core/logger"
)

const deriveSystem = `You are a nutritionist assistant.
From the user's answers build their nutrition profile as one JSON object with exactly these keys:
age (number), sex ("m" or "f"), height (cm), weight (kg),
activity (short text such as "sedentary", "moderate", "high"),
goal (short text such as "weight loss", "muscle gain", "maintenance"),
target_cal (daily calories by the Mifflin-St Jeor formula adjusted for activity and goal),
p_goal, f_goal, c_goal (daily protein, fat and carbs in grams).
Reply with JSON only, without comments.`

// Derive builds a profile from the registration answers. The bool is false
// when the model produced nothing usable; the profile is then empty.
func (c *Client) Derive(ctx context.Context, qaText string) (domain.Profile, bool, error) {
	content, err := c.complete(ctx, "derive", deriveSystem, "User answers:\n"+qaText)
	if err != nil {
		return domain.Profile{}, false, err
	}
	res, err := extractJSON(content)
	if err != nil {
		logger.Warn(ctx, logger.CompAI, "derive.decode",
			slog.String("reply", logger.SanitizeLimit(content, 256)),
			logger.Err(err),
		)
		return domain.Profile{}, false, nil
	}
	p := domain.Profile{
		Age:      intOf(res.Get("age")),
		Sex:      strings.TrimSpace(res.Get("sex").String()),
		Height:   floatOf(res.Get("height")),
		Weight:   floatOf(res.Get("weight")),
		Activity: strings.TrimSpace(res.Get("activity").String()),
		Goal:     strings.TrimSpace(res.Get("goal").String()),
		Targets:  targetsOf(res),
	}
	if p.Calories <= 0 {
		logger.Warn(ctx, logger.CompAI, "derive.absent", slog.String("cause", "no_target_cal"))
		return domain.Profile{}, false, nil
	}
	if err := p.Validate(); err != nil {
		logger.Warn(ctx, logger.CompAI, "derive.absent", slog.String("cause", "invalid"), logger.Err(err))
		return domain.Profile{}, false, nil
	}
	return p, true, nil
}

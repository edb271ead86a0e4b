package ai

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/m3rciful/hungrylogs/app/domain"
)

// extractJSON finds the JSON object in a model reply. Models wrap it in code
// fences or add prose around it often enough that both are stripped.
func extractJSON(content string) (gjson.Result, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return gjson.Result{}, ErrMalformed
	}
	s = s[start : end+1]
	if !gjson.Valid(s) {
		return gjson.Result{}, ErrMalformed
	}
	res := gjson.Parse(s)
	if !res.IsObject() {
		return gjson.Result{}, ErrMalformed
	}
	return res, nil
}

// intOf reads a number that may arrive as a JSON number or a numeric string.
// Anything else is zero.
func intOf(v gjson.Result) int {
	switch v.Type {
	case gjson.Number:
		return int(v.Num)
	case gjson.String:
		n, _ := domain.CoerceInt(v.Str)
		return n
	}
	return 0
}

func floatOf(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		f, _ := domain.CoerceFloat(v.Str)
		return f
	}
	return 0
}

func targetsOf(v gjson.Result) domain.Targets {
	return domain.Targets{
		Calories: intOf(v.Get("target_cal")),
		Protein:  intOf(v.Get("p_goal")),
		Fat:      intOf(v.Get("f_goal")),
		Carbs:    intOf(v.Get("c_goal")),
	}
}

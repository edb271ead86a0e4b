// Package domain holds the nutrition types shared by storage, the AI
// boundary, the conversation flows and statistics.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Targets are the daily goals of a profile.
type Targets struct {
	Calories int `db:"target_cal" json:"target_cal" validate:"gte=0,lte=20000"`
	Protein  int `db:"p_goal" json:"p_goal" validate:"gte=0,lte=2000"`
	Fat      int `db:"f_goal" json:"f_goal" validate:"gte=0,lte=2000"`
	Carbs    int `db:"c_goal" json:"c_goal" validate:"gte=0,lte=3000"`
}

// Profile is the single stored record per user.
type Profile struct {
	UserID   int64   `db:"user_id" json:"user_id"`
	Age      int     `db:"age" json:"age" validate:"gte=0,lte=130"`
	Sex      string  `db:"sex" json:"sex" validate:"max=32"`
	Height   float64 `db:"height" json:"height" validate:"gte=0,lte=300"`
	Weight   float64 `db:"weight" json:"weight" validate:"gte=0,lte=700"`
	Activity string  `db:"activity" json:"activity" validate:"max=256"`
	Goal     string  `db:"goal" json:"goal" validate:"max=256"`
	Targets
}

// ManualGoal is the goal descriptor stored when targets are typed in by hand.
const ManualGoal = "custom goal"

// GoalSuggestion is a staged targets update waiting for confirmation.
type GoalSuggestion struct {
	Summary string
	Goal    string
	Targets Targets
}

// Apply returns p with the suggestion's goal and targets.
func (s GoalSuggestion) Apply(p Profile) Profile {
	if g := strings.TrimSpace(s.Goal); g != "" {
		p.Goal = g
	}
	p.Targets = s.Targets
	return p
}

// Validate checks the ranges of a derived or edited profile.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

// Validate checks the ranges of the targets.
func (t Targets) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid targets: %w", err)
	}
	return nil
}

// ErrMacroFormat is returned by ParseTargets for anything but four integers.
var ErrMacroFormat = errors.New("expected kcal/protein/fat/carbs, e.g. 1900/75/100/250")

// ParseTargets reads "kcal/protein/fat/carbs" typed by the user.
func ParseTargets(text string) (Targets, error) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 4 {
		return Targets{}, ErrMacroFormat
	}
	var vals [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Targets{}, ErrMacroFormat
		}
		vals[i] = n
	}
	t := Targets{Calories: vals[0], Protein: vals[1], Fat: vals[2], Carbs: vals[3]}
	if err := t.Validate(); err != nil {
		return Targets{}, ErrMacroFormat
	}
	return t, nil
}

// CoerceInt converts a loosely typed number to int, truncating decimals.
// The bool is false when s holds no number; the value is then zero.
func CoerceInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// CoerceFloat is CoerceInt without truncation.
func CoerceFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

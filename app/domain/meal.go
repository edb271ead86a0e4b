package domain

import (
	"strings"
	"time"
)

// Macros are the four nutrition values of a meal or a day.
type Macros struct {
	Protein  int `db:"protein" json:"protein"`
	Fat      int `db:"fat" json:"fat"`
	Carbs    int `db:"carbs" json:"carbs"`
	Calories int `db:"calories" json:"calories"`
}

// Add returns the field-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Protein:  m.Protein + o.Protein,
		Fat:      m.Fat + o.Fat,
		Carbs:    m.Carbs + o.Carbs,
		Calories: m.Calories + o.Calories,
	}
}

// Div divides every field by n with integer truncation. n <= 0 yields zero.
func (m Macros) Div(n int) Macros {
	if n <= 0 {
		return Macros{}
	}
	return Macros{
		Protein:  m.Protein / n,
		Fat:      m.Fat / n,
		Carbs:    m.Carbs / n,
		Calories: m.Calories / n,
	}
}

// HasData reports whether any of the four values is positive.
func (m Macros) HasData() bool {
	return m.Calories > 0 || m.Protein > 0 || m.Fat > 0 || m.Carbs > 0
}

// MealEvent is one logged meal.
type MealEvent struct {
	UserID int64  `db:"user_id"`
	Date   string `db:"date"`
	Text   string `db:"meal_text"`
	Macros
}

// DateLayout is the stored date format.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-1-2",
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeDate returns input in DateLayout, or fallback when it cannot be parsed.
func NormalizeDate(input string, fallback time.Time) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return FormatDate(fallback)
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return FormatDate(t)
		}
	}
	return FormatDate(fallback)
}

// Day truncates t to local midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

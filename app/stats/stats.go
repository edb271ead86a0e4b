// Package stats aggregates the meal log into day, week and four-week views.
// Every function is pure; "today" is passed in.
//
// A day counts toward an average only when one of its totals is positive.
// Weeks average their own counted days, and the four-week figure averages
// the weeks that have data.
package stats

import (
	"fmt"
	"time"

	"github.com/m3rciful/hungrylogs/app/domain"
)

// byDate sums the user's events per stored date.
func byDate(events []domain.MealEvent, userID int64) map[string]domain.Macros {
	out := make(map[string]domain.Macros)
	for _, e := range events {
		if e.UserID == userID {
			out[e.Date] = out[e.Date].Add(e.Macros)
		}
	}
	return out
}

// DailyTotals sums the user's events on date (YYYY-MM-DD).
func DailyTotals(events []domain.MealEvent, userID int64, date string) domain.Macros {
	var total domain.Macros
	for _, e := range events {
		if e.UserID == userID && e.Date == date {
			total = total.Add(e.Macros)
		}
	}
	return total
}

// DayReport lists today's meals.
type DayReport struct {
	Date   time.Time
	Meals  []domain.MealEvent
	Totals domain.Macros
}

// Empty reports whether there is nothing to show.
func (r DayReport) Empty() bool { return !r.Totals.HasData() }

// Day returns the meals and totals of today.
func Day(events []domain.MealEvent, userID int64, today time.Time) DayReport {
	day := domain.Day(today)
	date := domain.FormatDate(day)
	r := DayReport{Date: day}
	for _, e := range events {
		if e.UserID == userID && e.Date == date {
			r.Meals = append(r.Meals, e)
			r.Totals = r.Totals.Add(e.Macros)
		}
	}
	return r
}

// DayTotal is the sum of one calendar day.
type DayTotal struct {
	Date   time.Time
	Totals domain.Macros
}

// WeekReport covers the seven days before today, most recent first.
type WeekReport struct {
	Days    []DayTotal
	Average domain.Macros
	// Counted is the number of days with data; zero means no average.
	Counted int
}

// Week reports yesterday back to seven days ago. Today is not included.
func Week(events []domain.MealEvent, userID int64, today time.Time) WeekReport {
	totals := byDate(events, userID)
	day := domain.Day(today)

	var r WeekReport
	var sum domain.Macros
	for i := 1; i <= 7; i++ {
		d := day.AddDate(0, 0, -i)
		t := totals[domain.FormatDate(d)]
		r.Days = append(r.Days, DayTotal{Date: d, Totals: t})
		if t.HasData() {
			sum = sum.Add(t)
			r.Counted++
		}
	}
	r.Average = sum.Div(r.Counted)
	return r
}

// Bucket is one seven-day slice of the four-week view.
type Bucket struct {
	Start, End time.Time
	Average    domain.Macros
	Counted    int
}

// HasData reports whether the bucket takes part in the overall average.
func (b Bucket) HasData() bool { return b.Average.HasData() }

// FourWeekReport holds four buckets, the most recent first.
type FourWeekReport struct {
	Buckets [4]Bucket
	Average domain.Macros
	Weeks   int
}

// Empty reports whether no bucket had data.
func (r FourWeekReport) Empty() bool { return r.Weeks == 0 }

// FourWeeks buckets the 28 days ending today. Bucket w spans
// today-7w-6 .. today-7w.
func FourWeeks(events []domain.MealEvent, userID int64, today time.Time) FourWeekReport {
	totals := byDate(events, userID)
	day := domain.Day(today)

	var r FourWeekReport
	var sum domain.Macros
	for w := 0; w < 4; w++ {
		end := day.AddDate(0, 0, -7*w)
		b := Bucket{Start: end.AddDate(0, 0, -6), End: end}
		var weekSum domain.Macros
		for i := 0; i < 7; i++ {
			t := totals[domain.FormatDate(b.Start.AddDate(0, 0, i))]
			if t.HasData() {
				weekSum = weekSum.Add(t)
				b.Counted++
			}
		}
		b.Average = weekSum.Div(b.Counted)
		r.Buckets[w] = b
		if b.HasData() {
			sum = sum.Add(b.Average)
			r.Weeks++
		}
	}
	r.Average = sum.Div(r.Weeks)
	return r
}

// Summary is a one-line description of the last 28 days (today excluded),
// averaged over the days with data. It is given to the goal advisor.
func Summary(events []domain.MealEvent, userID int64, today time.Time) string {
	totals := byDate(events, userID)
	day := domain.Day(today)

	var sum [4]float64
	n := 0
	for i := 28; i >= 1; i-- {
		t := totals[domain.FormatDate(day.AddDate(0, 0, -i))]
		if !t.HasData() {
			continue
		}
		sum[0] += float64(t.Calories)
		sum[1] += float64(t.Protein)
		sum[2] += float64(t.Fat)
		sum[3] += float64(t.Carbs)
		n++
	}
	if n == 0 {
		return "No data for the last 4 weeks."
	}
	avg := func(i int) float64 { return sum[i] / float64(n) }
	return fmt.Sprintf("4-week averages over %d logged days: %.1f kcal, %.1f g protein, %.1f g fat, %.1f g carbs.",
		n, avg(0), avg(1), avg(2), avg(3))
}

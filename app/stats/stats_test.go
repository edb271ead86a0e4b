package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hungrylogs/app/domain"
)

var today = time.Date(2024, 3, 29, 18, 30, 0, 0, time.Local)

func daysAgo(n int) string {
	return domain.FormatDate(domain.Day(today).AddDate(0, 0, -n))
}

func meal(user int64, date string, m domain.Macros) domain.MealEvent {
	return domain.MealEvent{UserID: user, Date: date, Text: "x", Macros: m}
}

func TestDailyTotals(t *testing.T) {
	events := []domain.MealEvent{
		meal(1, "2024-03-29", domain.Macros{Calories: 500}),
		meal(1, "2024-03-29", domain.Macros{Calories: 700}),
		meal(1, "2024-03-28", domain.Macros{Calories: 900}),
		meal(2, "2024-03-29", domain.Macros{Calories: 300}),
	}
	assert.Equal(t, 1200, DailyTotals(events, 1, "2024-03-29").Calories)
}

func TestDay(t *testing.T) {
	events := []domain.MealEvent{
		meal(1, daysAgo(0), domain.Macros{Calories: 500, Protein: 30}),
		meal(1, daysAgo(1), domain.Macros{Calories: 700}),
	}
	r := Day(events, 1, today)
	assert.False(t, r.Empty())
	assert.Len(t, r.Meals, 1)
	assert.Equal(t, domain.Macros{Calories: 500, Protein: 30}, r.Totals)

	r = Day([]domain.MealEvent{meal(1, daysAgo(0), domain.Macros{})}, 1, today)
	assert.True(t, r.Empty())
}

func TestWeekAveragesOnlyDaysWithData(t *testing.T) {
	events := []domain.MealEvent{
		meal(1, daysAgo(0), domain.Macros{Calories: 5000}),
		meal(1, daysAgo(2), domain.Macros{Calories: 1000, Protein: 50}),
		meal(1, daysAgo(5), domain.Macros{Calories: 2001, Protein: 81}),
		meal(1, daysAgo(8), domain.Macros{Calories: 9999}),
	}
	r := Week(events, 1, today)
	require.Len(t, r.Days, 7)
	assert.Equal(t, daysAgo(1), domain.FormatDate(r.Days[0].Date))
	assert.Equal(t, daysAgo(7), domain.FormatDate(r.Days[6].Date))
	assert.Equal(t, 2, r.Counted)
	assert.Equal(t, domain.Macros{Calories: 1500, Protein: 65}, r.Average)
}

func TestWeekWithoutData(t *testing.T) {
	r := Week(nil, 1, today)
	assert.Zero(t, r.Counted)
	assert.Equal(t, domain.Macros{}, r.Average)
}

func TestFourWeeksTwoLevelAverage(t *testing.T) {
	events := []domain.MealEvent{
		// bucket 0: today-6 .. today
		meal(1, daysAgo(0), domain.Macros{Calories: 1000}),
		meal(1, daysAgo(6), domain.Macros{Calories: 2001}),
		// bucket 1: today-13 .. today-7, zero days are skipped
		meal(1, daysAgo(7), domain.Macros{Calories: 3000}),
		meal(1, daysAgo(8), domain.Macros{}),
		// bucket 3: today-27 .. today-21
		meal(1, daysAgo(27), domain.Macros{Calories: 400}),
		// outside the window
		meal(1, daysAgo(28), domain.Macros{Calories: 100000}),
	}
	r := FourWeeks(events, 1, today)
	require.False(t, r.Empty())

	assert.Equal(t, daysAgo(6), domain.FormatDate(r.Buckets[0].Start))
	assert.Equal(t, daysAgo(0), domain.FormatDate(r.Buckets[0].End))
	assert.Equal(t, 1500, r.Buckets[0].Average.Calories)
	assert.Equal(t, 2, r.Buckets[0].Counted)
	assert.Equal(t, 3000, r.Buckets[1].Average.Calories)
	assert.Equal(t, 1, r.Buckets[1].Counted)
	assert.False(t, r.Buckets[2].HasData())
	assert.Equal(t, 400, r.Buckets[3].Average.Calories)

	assert.Equal(t, 3, r.Weeks)
	assert.Equal(t, (1500+3000+400)/3, r.Average.Calories)
}

func TestFourWeeksEmptyWhenAllZero(t *testing.T) {
	events := []domain.MealEvent{meal(1, daysAgo(3), domain.Macros{}), meal(2, daysAgo(3), domain.Macros{Calories: 10})}
	assert.True(t, FourWeeks(events, 1, today).Empty())
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "No data for the last 4 weeks.", Summary(nil, 1, today))

	events := []domain.MealEvent{
		meal(1, daysAgo(0), domain.Macros{Calories: 9999}),
		meal(1, daysAgo(1), domain.Macros{Calories: 2000, Protein: 100, Fat: 60, Carbs: 200}),
		meal(1, daysAgo(28), domain.Macros{Calories: 1001, Protein: 51}),
	}
	assert.Equal(t, "4-week averages over 2 logged days: 1500.5 kcal, 75.5 g protein, 30.0 g fat, 100.0 g carbs.", Summary(events, 1, today))
}

package csvstore

import (
	"context"
	"log/slog"
	"slices"
	"strconv"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/core/logger"
)

type meals Store

func mealRow(e domain.MealEvent) []string {
	return []string{
		strconv.FormatInt(e.UserID, 10),
		e.Date,
		e.Text,
		itoa(e.Protein),
		itoa(e.Fat),
		itoa(e.Carbs),
		itoa(e.Calories),
	}
}

func (m *meals) Append(ctx context.Context, e domain.MealEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return appendRow(m.mealsPath, mealRow(e))
}

func (m *meals) event(ctx context.Context, t table, row []string) (domain.MealEvent, bool) {
	id, ok := userIDField(t.get(row, "user_id"))
	if !ok {
		return domain.MealEvent{}, false
	}
	f := func(col string) int { return intField(ctx, m.mealsPath, col, t.get(row, col)) }
	return domain.MealEvent{
		UserID: id,
		Date:   t.get(row, "date"),
		Text:   t.get(row, "meal_text"),
		Macros: domain.Macros{
			Protein:  f("protein"),
			Fat:      f("fat"),
			Carbs:    f("carbs"),
			Calories: f("calories"),
		},
	}, true
}

// ListAll returns every event in file order. Rows with a broken user id are
// skipped here and kept in place by Rewrite.
func (m *meals) ListAll(ctx context.Context) ([]domain.MealEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := readTable(m.mealsPath)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MealEvent, 0, len(t.rows))
	for _, row := range t.rows {
		e, ok := m.event(ctx, t, row)
		if !ok {
			logger.Warn(ctx, logger.CompStorage, "csv.row_skipped",
				slog.String("file", "meals"),
				slog.String("user_id", t.get(row, "user_id")),
			)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Rewrite replaces the readable part of the log with events. Current rows
// are walked in order: unreadable rows stay where they are, readable rows
// stay while they match the next event and are dropped otherwise. Events
// left over after the walk are appended.
func (m *meals) Rewrite(ctx context.Context, events []domain.MealEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := readTable(m.mealsPath)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(t.rows)+len(events))
	next := 0
	for _, row := range t.rows {
		e, ok := m.event(ctx, t, row)
		if !ok {
			rows = append(rows, row)
			continue
		}
		if next < len(events) && slices.Equal(mealRow(e), mealRow(events[next])) {
			rows = append(rows, mealRow(events[next]))
			next++
		}
	}
	for _, e := range events[next:] {
		rows = append(rows, mealRow(e))
	}
	return writeAll(m.mealsPath, mealHeader, rows)
}

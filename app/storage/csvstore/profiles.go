package csvstore

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
)

type profiles Store

// load returns the readable profiles and, separately, the raw rows whose
// user id does not parse. save writes those rows back untouched.
func (p *profiles) load(ctx context.Context) ([]domain.Profile, [][]string, error) {
	t, err := readTable(p.usersPath)
	if err != nil {
		return nil, nil, err
	}
	out := make([]domain.Profile, 0, len(t.rows))
	var broken [][]string
	for _, row := range t.rows {
		id, ok := userIDField(t.get(row, "user_id"))
		if !ok {
			logger.Warn(ctx, logger.CompStorage, "csv.row_skipped",
				slog.String("file", "users"),
				slog.String("user_id", t.get(row, "user_id")),
			)
			broken = append(broken, row)
			continue
		}
		f := func(col string) int { return intField(ctx, p.usersPath, col, t.get(row, col)) }
		out = append(out, domain.Profile{
			UserID:   id,
			Age:      f("age"),
			Sex:      t.get(row, "sex"),
			Height:   floatField(ctx, p.usersPath, "height", t.get(row, "height")),
			Weight:   floatField(ctx, p.usersPath, "weight", t.get(row, "weight")),
			Activity: t.get(row, "activity"),
			Goal:     t.get(row, "goal"),
			Targets: domain.Targets{
				Calories: f("target_cal"),
				Protein:  f("p_goal"),
				Fat:      f("f_goal"),
				Carbs:    f("c_goal"),
			},
		})
	}
	return out, broken, nil
}

func profileRow(pr domain.Profile) []string {
	return []string{
		strconv.FormatInt(pr.UserID, 10),
		itoa(pr.Age),
		pr.Sex,
		ftoa(pr.Height),
		ftoa(pr.Weight),
		pr.Activity,
		pr.Goal,
		itoa(pr.Calories),
		itoa(pr.Protein),
		itoa(pr.Fat),
		itoa(pr.Carbs),
	}
}

func (p *profiles) save(list []domain.Profile, broken [][]string) error {
	rows := make([][]string, 0, len(list)+len(broken))
	for _, pr := range list {
		rows = append(rows, profileRow(pr))
	}
	rows = append(rows, broken...)
	return writeAll(p.usersPath, userHeader, rows)
}

func (p *profiles) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	list, _, err := p.load(ctx)
	if err != nil {
		return domain.Profile{}, err
	}
	for _, pr := range list {
		if pr.UserID == userID {
			return pr, nil
		}
	}
	return domain.Profile{}, storage.ErrNotFound
}

// Upsert replaces the user's row in place or appends a new one.
func (p *profiles) Upsert(ctx context.Context, pr domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	list, broken, err := p.load(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].UserID == pr.UserID {
			list[i] = pr
			replaced = true
		}
	}
	if !replaced {
		list = append(list, pr)
	}
	return p.save(list, broken)
}

func (p *profiles) List(ctx context.Context) ([]domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	list, _, err := p.load(ctx)
	return list, err
}

func (p *profiles) DeleteAll(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	list, broken, err := p.load(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, pr := range list {
		if pr.UserID != userID {
			kept = append(kept, pr)
		}
	}
	return p.save(kept, broken)
}

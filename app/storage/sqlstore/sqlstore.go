// Package sqlstore implements the storage contracts on top of sqlx. The same
// queries run on Postgres and SQLite; placeholders are rebound per driver.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
)

// Store wraps an open database. Close does not close the database, which
// belongs to whoever opened it.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// New returns a store over db. The schema is expected to be migrated already.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Profiles() storage.Profiles { return (*profiles)(s) }
func (s *Store) Meals() storage.Meals       { return (*meals)(s) }
func (s *Store) Close() error               { return nil }

func logQuery(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("op", op), slog.Duration("duration", time.Since(start)))
	if err != nil {
		logger.Warn(ctx, logger.CompDB, "db.query", append(attrs, logger.Err(err))...)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.CompDB, "db.query", append(attrs, slog.String("status", "ok"))...)
	}
}

type profiles Store

const profileColumns = `user_id, age, sex, height, weight, activity, goal, target_cal, p_goal, f_goal, c_goal`

func (p *profiles) Get(ctx context.Context, userID int64) (domain.Profile, error) {
	start := time.Now()
	var pr domain.Profile
	q := p.db.Rebind(`SELECT ` + profileColumns + ` FROM profiles WHERE user_id = ?`)
	err := p.db.GetContext(ctx, &pr, q, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, storage.ErrNotFound
	}
	logQuery(ctx, "profiles.get", start, err, slog.Int64("user_id", userID))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile %d: %w", userID, err)
	}
	return pr, nil
}

func (p *profiles) Upsert(ctx context.Context, pr domain.Profile) error {
	start := time.Now()
	_, err := p.db.NamedExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (:user_id, :age, :sex, :height, :weight, :activity, :goal, :target_cal, :p_goal, :f_goal, :c_goal)
		ON CONFLICT (user_id) DO UPDATE SET
			age = excluded.age,
			sex = excluded.sex,
			height = excluded.height,
			weight = excluded.weight,
			activity = excluded.activity,
			goal = excluded.goal,
			target_cal = excluded.target_cal,
			p_goal = excluded.p_goal,
			f_goal = excluded.f_goal,
			c_goal = excluded.c_goal,
			updated_at = CURRENT_TIMESTAMP`, pr)
	logQuery(ctx, "profiles.upsert", start, err, slog.Int64("user_id", pr.UserID))
	if err != nil {
		return fmt.Errorf("upsert profile %d: %w", pr.UserID, err)
	}
	return nil
}

func (p *profiles) List(ctx context.Context) ([]domain.Profile, error) {
	start := time.Now()
	var list []domain.Profile
	err := p.db.SelectContext(ctx, &list, `SELECT `+profileColumns+` FROM profiles ORDER BY user_id`)
	logQuery(ctx, "profiles.list", start, err, slog.Int("count", len(list)))
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return list, nil
}

func (p *profiles) DeleteAll(ctx context.Context, userID int64) error {
	start := time.Now()
	_, err := p.db.ExecContext(ctx, p.db.Rebind(`DELETE FROM profiles WHERE user_id = ?`), userID)
	logQuery(ctx, "profiles.delete", start, err, slog.Int64("user_id", userID))
	if err != nil {
		return fmt.Errorf("delete profile %d: %w", userID, err)
	}
	return nil
}

type meals Store

const insertMeal = `
	INSERT INTO meals (user_id, meal_date, meal_text, protein, fat, carbs, calories)
	VALUES (:user_id, :date, :meal_text, :protein, :fat, :carbs, :calories)`

func (m *meals) Append(ctx context.Context, e domain.MealEvent) error {
	start := time.Now()
	_, err := m.db.NamedExecContext(ctx, insertMeal, e)
	logQuery(ctx, "meals.append", start, err, slog.Int64("user_id", e.UserID))
	if err != nil {
		return fmt.Errorf("append meal: %w", err)
	}
	return nil
}

func (m *meals) ListAll(ctx context.Context) ([]domain.MealEvent, error) {
	start := time.Now()
	var events []domain.MealEvent
	err := m.db.SelectContext(ctx, &events, `
		SELECT user_id, meal_date AS date, meal_text, protein, fat, carbs, calories
		FROM meals ORDER BY id`)
	logQuery(ctx, "meals.list", start, err, slog.Int("count", len(events)))
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return events, nil
}

// Rewrite replaces the log inside one transaction, keeping the given order.
func (m *meals) Rewrite(ctx context.Context, events []domain.MealEvent) (err error) {
	start := time.Now()
	defer func() { logQuery(ctx, "meals.rewrite", start, err, slog.Int("count", len(events))) }()

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rewrite meals: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM meals`); err != nil {
		return fmt.Errorf("rewrite meals: clear: %w", err)
	}
	stmt, err := tx.PrepareNamedContext(ctx, insertMeal)
	if err != nil {
		return fmt.Errorf("rewrite meals: prepare: %w", err)
	}
	defer stmt.Close()
	for _, e := range events {
		if _, err = stmt.ExecContext(ctx, e); err != nil {
			return fmt.Errorf("rewrite meals: insert: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("rewrite meals: commit: %w", err)
	}
	return nil
}

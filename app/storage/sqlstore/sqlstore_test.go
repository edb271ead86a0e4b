package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/storage"
	coredatabase "github.com/m3rciful/hungrylogs/core/database"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	cfg := coredatabase.Config{
		Driver:        coredatabase.DriverSQLite,
		Path:          filepath.Join(t.TempDir(), "hungrylogs.db"),
		MigrationsDir: filepath.Join("..", "..", "..", "migrations"),
	}
	require.NoError(t, coredatabase.RunMigrations(cfg))
	db, err := coredatabase.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestProfilesRoundTrip(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	_, err := s.Profiles().Get(ctx, 9)
	require.ErrorIs(t, err, storage.ErrNotFound)

	p := domain.Profile{UserID: 9, Age: 41, Sex: "f", Height: 168, Weight: 61.5, Activity: "yoga", Goal: "maintenance",
		Targets: domain.Targets{Calories: 1900, Protein: 75, Fat: 100, Carbs: 250}}
	require.NoError(t, s.Profiles().Upsert(ctx, p))

	p.Goal = "cut"
	p.Targets.Calories = 1700
	require.NoError(t, s.Profiles().Upsert(ctx, p))

	got, err := s.Profiles().Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	list, err := s.Profiles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Profiles().DeleteAll(ctx, 9))
	_, err = s.Profiles().Get(ctx, 9)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMealsRewriteKeepsOrder(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()
	m := s.Meals()

	events := []domain.MealEvent{
		{UserID: 1, Date: "2024-03-01", Text: "oats", Macros: domain.Macros{Carbs: 50, Calories: 300}},
		{UserID: 2, Date: "2024-03-01", Text: "steak", Macros: domain.Macros{Protein: 60, Calories: 500}},
		{UserID: 1, Date: "2024-03-02", Text: "salad", Macros: domain.Macros{Fat: 10, Calories: 150}},
	}
	for _, e := range events {
		require.NoError(t, m.Append(ctx, e))
	}
	all, err := m.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, events, all)

	require.NoError(t, m.Rewrite(ctx, []domain.MealEvent{events[0], events[2]}))
	all, err = m.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.MealEvent{events[0], events[2]}, all)

	require.NoError(t, m.Rewrite(ctx, nil))
	all, err = m.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

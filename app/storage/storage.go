// Package storage declares the persistence contracts of the bot.
package storage

import (
	"context"
	"errors"

	"github.com/m3rciful/hungrylogs/app/domain"
)

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("storage: not found")

// Profiles keeps exactly one profile per user.
type Profiles interface {
	Get(ctx context.Context, userID int64) (domain.Profile, error)
	Upsert(ctx context.Context, p domain.Profile) error
	List(ctx context.Context) ([]domain.Profile, error)
	DeleteAll(ctx context.Context, userID int64) error
}

// Meals is the append-only meal log. Rewrite replaces the whole log and is
// how entries are removed.
type Meals interface {
	Append(ctx context.Context, e domain.MealEvent) error
	ListAll(ctx context.Context) ([]domain.MealEvent, error)
	Rewrite(ctx context.Context, events []domain.MealEvent) error
}

// Store bundles both contracts of one backend.
type Store interface {
	Profiles() Profiles
	Meals() Meals
	Close() error
}

// Exists reports whether userID has a profile.
func Exists(ctx context.Context, profiles Profiles, userID int64) (bool, error) {
	_, err := profiles.Get(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	}
	return false, err
}

// Package meals logs classified meals and removes them again.
package meals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/hungrylogs/app/ai"
	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/journal"
	"github.com/m3rciful/hungrylogs/app/stats"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
)

// PendingKey is the session temp key holding an unfinished meal description.
const PendingKey = "pending_meal"

// Classifier estimates the macros of a meal description.
type Classifier interface {
	Classify(ctx context.Context, userID int64, text string) (ai.ClassifyResult, error)
}

// Sessions is the part of the conversation state the meal path touches.
type Sessions interface {
	InProgress(userID int64) bool
	GetTempString(userID int64, key string) (string, bool)
	SetTemp(userID int64, key string, value any)
	ClearTemp(userID int64, key string)
	Clear(userID int64)
}

// Options configure a Service.
type Options struct {
	Profiles   storage.Profiles
	Meals      storage.Meals
	Classifier Classifier
	Sessions   Sessions
	Journal    journal.Recorder
	Now        func() time.Time
}

// Service owns every write to the meal log. Read-modify-write cycles are
// serialised by mu so a rewrite never loses a concurrent append.
type Service struct {
	mu         sync.Mutex
	profiles   storage.Profiles
	meals      storage.Meals
	classifier Classifier
	sessions   Sessions
	journal    journal.Recorder
	now        func() time.Time
}

// New returns a Service. Journal and Now are optional.
func New(opts Options) *Service {
	s := &Service{
		profiles:   opts.Profiles,
		meals:      opts.Meals,
		classifier: opts.Classifier,
		sessions:   opts.Sessions,
		journal:    opts.Journal,
		now:        opts.Now,
	}
	if s.journal == nil {
		s.journal = journal.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today returns the service clock truncated to the day.
func (s *Service) Today() time.Time { return domain.Day(s.now()) }

// Kind tells what Log did with a message.
type Kind int

const (
	// Skipped means the user is inside a flow and the text is not a meal.
	Skipped Kind = iota
	NotRegistered
	Clarify
	Logged
	Failed
)

// Outcome is the result of Log.
type Outcome struct {
	Kind     Kind
	Question string
	Event    domain.MealEvent
	Day      domain.Macros
	Targets  domain.Targets
}

// Log classifies text and appends the meal. A clarification keeps the
// combined text so the next message is read together with it.
func (s *Service) Log(ctx context.Context, userID int64, text string) Outcome {
	if s.sessions.InProgress(userID) {
		return Outcome{Kind: Skipped}
	}
	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		logger.Info(ctx, logger.CompMeals, "meal.unregistered", slog.Int64("user_id", userID))
		return Outcome{Kind: NotRegistered}
	}
	if err != nil {
		logger.Error(ctx, logger.CompMeals, "meal.profile_lookup", slog.Int64("user_id", userID), logger.Err(err))
		return Outcome{Kind: Failed}
	}

	input := strings.TrimSpace(text)
	if pending, ok := s.sessions.GetTempString(userID, PendingKey); ok && pending != "" {
		input = strings.TrimSpace(pending + " " + input)
	}

	res, err := s.classifier.Classify(ctx, userID, input)
	if err != nil {
		logger.Warn(ctx, logger.CompMeals, "meal.classify_failed", slog.Int64("user_id", userID), logger.Err(err))
		res = ai.NeedsClarification{Question: ai.DefaultClarification}
	}

	switch r := res.(type) {
	case ai.NeedsClarification:
		s.sessions.SetTemp(userID, PendingKey, input)
		s.journal.Event(ctx, "meal_parsed_with_clarification", userID, r.Question)
		logger.Info(ctx, logger.CompMeals, "meal.clarify",
			slog.Int64("user_id", userID),
			slog.Int("pending_len", len(input)),
		)
		return Outcome{Kind: Clarify, Question: r.Question}
	case ai.Parsed:
		s.sessions.ClearTemp(userID, PendingKey)
		return s.store(ctx, profile, input, r)
	}
	logger.Error(ctx, logger.CompMeals, "meal.classify_result", slog.String("type", fmt.Sprintf("%T", res)))
	return Outcome{Kind: Failed}
}

func (s *Service) store(ctx context.Context, profile domain.Profile, input string, r ai.Parsed) Outcome {
	ev := domain.MealEvent{
		UserID: profile.UserID,
		Date:   domain.NormalizeDate(r.Date, s.now()),
		Text:   input,
		Macros: r.Macros,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.meals.Append(ctx, ev); err != nil {
		logger.Error(ctx, logger.CompMeals, "meal.append", slog.Int64("user_id", ev.UserID), logger.Err(err))
		return Outcome{Kind: Failed}
	}
	s.journal.Interaction(ctx, journal.Interaction{
		UserID:  ev.UserID,
		Input:   input,
		Result:  ev.Macros,
		Date:    ev.Date,
		Details: r.Details,
	})
	s.journal.Event(ctx, "meal_added", ev.UserID, "")
	logger.Info(ctx, logger.CompMeals, "meal.added",
		slog.Int64("user_id", ev.UserID),
		slog.String("date", ev.Date),
		slog.Int("calories", ev.Calories),
	)

	out := Outcome{Kind: Logged, Event: ev, Targets: profile.Targets, Day: ev.Macros}
	events, err := s.meals.ListAll(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompMeals, "meal.totals", slog.Int64("user_id", ev.UserID), logger.Err(err))
		return out
	}
	out.Day = stats.DailyTotals(events, ev.UserID, ev.Date)
	return out
}

// Events returns the whole meal log.
func (s *Service) Events(ctx context.Context) ([]domain.MealEvent, error) {
	return s.meals.ListAll(ctx)
}

// Summary describes the user's last four weeks for the goal advisor.
func (s *Service) Summary(ctx context.Context, userID int64) string {
	events, err := s.meals.ListAll(ctx)
	if err != nil {
		logger.Warn(ctx, logger.CompMeals, "meal.summary", slog.Int64("user_id", userID), logger.Err(err))
		return "No data for the last 4 weeks."
	}
	return stats.Summary(events, userID, s.now())
}

// Candidate is the meal a delete prompt offers. Index is its position in
// the whole log at the time of the prompt.
type Candidate struct {
	Found bool
	Index int
	Event domain.MealEvent
}

func lastOf(events []domain.MealEvent, userID int64) Candidate {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].UserID == userID {
			return Candidate{Found: true, Index: i, Event: events[i]}
		}
	}
	return Candidate{}
}

// LastMeal finds the user's most recent meal.
func (s *Service) LastMeal(ctx context.Context, userID int64) (Candidate, error) {
	events, err := s.meals.ListAll(ctx)
	if err != nil {
		return Candidate{}, fmt.Errorf("list meals: %w", err)
	}
	c := lastOf(events, userID)
	if c.Found {
		s.journal.Event(ctx, "delete_last_meal_prompt", userID, c.Event.Text)
	}
	return c, nil
}

// ConfirmDelete removes the meal at index. When the log changed since the
// prompt and index no longer points at one of the user's meals, the user's
// most recent meal is removed instead. Nothing is rewritten when the user
// has no meals.
func (s *Service) ConfirmDelete(ctx context.Context, userID int64, index int) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.meals.ListAll(ctx)
	if err != nil {
		return Candidate{}, fmt.Errorf("list meals: %w", err)
	}
	target := Candidate{Found: true, Index: index}
	if index < 0 || index >= len(events) || events[index].UserID != userID {
		target = lastOf(events, userID)
		if !target.Found {
			return target, nil
		}
		logger.Info(ctx, logger.CompMeals, "meal.delete_fallback",
			slog.Int64("user_id", userID),
			slog.Int("requested", index),
			slog.Int("index", target.Index),
		)
	}
	target.Event = events[target.Index]

	kept := make([]domain.MealEvent, 0, len(events)-1)
	kept = append(kept, events[:target.Index]...)
	kept = append(kept, events[target.Index+1:]...)
	if err := s.meals.Rewrite(ctx, kept); err != nil {
		return Candidate{}, fmt.Errorf("rewrite meals: %w", err)
	}
	s.journal.Event(ctx, "delete_last_meal", userID, target.Event.Text)
	logger.Info(ctx, logger.CompMeals, "meal.deleted",
		slog.Int64("user_id", userID),
		slog.Int("index", target.Index),
	)
	return target, nil
}

// Wipe deletes the user's profile and every meal of the user, and drops
// any conversation state.
func (s *Service) Wipe(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions.Clear(userID)
	if err := s.profiles.DeleteAll(ctx, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	events, err := s.meals.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list meals: %w", err)
	}
	kept := make([]domain.MealEvent, 0, len(events))
	for _, e := range events {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	if len(kept) != len(events) {
		if err := s.meals.Rewrite(ctx, kept); err != nil {
			return fmt.Errorf("rewrite meals: %w", err)
		}
	}
	s.journal.Event(ctx, "user_restart", userID, fmt.Sprintf("meals_removed=%d", len(events)-len(kept)))
	logger.Info(ctx, logger.CompMeals, "user.wiped",
		slog.Int64("user_id", userID),
		slog.Int("meals_removed", len(events)-len(kept)),
	)
	return nil
}

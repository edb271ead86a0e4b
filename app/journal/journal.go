// Package journal appends user events and classifier interactions to CSV
// files kept next to the logs. Journal failures are logged, never returned:
// they must not break a reply.
package journal

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/core/logger"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	eventHeader = []string{"timestamp", "event", "user_id", "extra_info"}
	modelHeader = []string{"timestamp", "user_id", "input_text", "json_result", "details", "interaction_id"}
)

// Recorder is what the services write to.
type Recorder interface {
	Event(ctx context.Context, event string, userID int64, extra string)
	Interaction(ctx context.Context, in Interaction) string
}

// Interaction is one successful classification.
type Interaction struct {
	UserID  int64
	Input   string
	Result  domain.Macros
	Date    string
	Details string
}

// Journal writes both files. A nil *Journal records nothing.
type Journal struct {
	mu        sync.Mutex
	eventPath string
	modelPath string
	now       func() time.Time
	newID     func() string
}

var _ Recorder = (*Journal)(nil)

// Open creates dir and both files with headers when missing.
func Open(dir, eventsFile, modelFile string) (*Journal, error) {
	if eventsFile == "" {
		eventsFile = "stats.csv"
	}
	if modelFile == "" {
		modelFile = "model_logs.csv"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create dir: %w", err)
	}
	j := &Journal{
		eventPath: filepath.Join(dir, eventsFile),
		modelPath: filepath.Join(dir, modelFile),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	if err := ensureHeader(j.eventPath, eventHeader); err != nil {
		return nil, err
	}
	if err := ensureHeader(j.modelPath, modelHeader); err != nil {
		return nil, err
	}
	return j, nil
}

func ensureHeader(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("journal: stat %s: %w", path, err)
	}
	return appendRow(path, header)
}

func appendRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (j *Journal) write(ctx context.Context, path string, row []string) {
	j.mu.Lock()
	err := appendRow(path, row)
	j.mu.Unlock()
	if err != nil {
		logger.Warn(ctx, logger.CompJournal, "journal.write",
			slog.String("file", filepath.Base(path)),
			logger.Err(err),
		)
	}
}

// Event appends one user event such as "meal_added" or "goal_updated".
func (j *Journal) Event(ctx context.Context, event string, userID int64, extra string) {
	if j == nil {
		return
	}
	j.write(ctx, j.eventPath, []string{
		j.now().Format(timeLayout),
		event,
		strconv.FormatInt(userID, 10),
		extra,
	})
	logger.Info(ctx, logger.CompJournal, "user_event",
		slog.String("name", event),
		slog.Int64("user_id", userID),
	)
}

type modelResult struct {
	Protein  int    `json:"protein"`
	Fat      int    `json:"fat"`
	Carbs    int    `json:"carbs"`
	Calories int    `json:"calories"`
	Date     string `json:"date"`
}

// Interaction appends a classifier call and returns its id.
func (j *Journal) Interaction(ctx context.Context, in Interaction) string {
	if j == nil {
		return ""
	}
	id := j.newID()
	result, _ := json.Marshal(modelResult{
		Protein:  in.Result.Protein,
		Fat:      in.Result.Fat,
		Carbs:    in.Result.Carbs,
		Calories: in.Result.Calories,
		Date:     in.Date,
	})
	j.write(ctx, j.modelPath, []string{
		j.now().Format(timeLayout),
		strconv.FormatInt(in.UserID, 10),
		in.Input,
		string(result),
		in.Details,
		id,
	})
	logger.Debug(ctx, logger.CompJournal, "model_interaction",
		slog.String("interaction_id", id),
		slog.Int64("user_id", in.UserID),
	)
	return id
}

// Nop discards everything.
type Nop struct{}

func (Nop) Event(context.Context, string, int64, string)    {}
func (Nop) Interaction(context.Context, Interaction) string { return "" }

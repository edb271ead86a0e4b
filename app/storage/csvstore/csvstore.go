// Package csvstore keeps profiles and meals in two CSV files.
// Every read-modify-write cycle holds the store mutex; rewrites go through a
// temporary file and a rename.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/m3rciful/hungrylogs/app/domain"
	"github.com/m3rciful/hungrylogs/app/storage"
	"github.com/m3rciful/hungrylogs/core/logger"
)

var (
	userHeader = []string{"user_id", "age", "sex", "height", "weight", "activity", "goal", "target_cal", "p_goal", "f_goal", "c_goal"}
	mealHeader = []string{"user_id", "date", "meal_text", "protein", "fat", "carbs", "calories"}
)

// Store is the CSV backend.
type Store struct {
	mu        sync.Mutex
	usersPath string
	mealsPath string
}

var _ storage.Store = (*Store)(nil)

// Open prepares dir and creates both files with their headers when missing.
func Open(dir, usersFile, mealsFile string) (*Store, error) {
	if usersFile == "" {
		usersFile = "users.csv"
	}
	if mealsFile == "" {
		mealsFile = "meals.csv"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("csvstore: create data dir: %w", err)
	}
	s := &Store{
		usersPath: filepath.Join(dir, usersFile),
		mealsPath: filepath.Join(dir, mealsFile),
	}
	for path, header := range map[string][]string{s.usersPath: userHeader, s.mealsPath: mealHeader} {
		if err := ensureFile(path, header); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Profiles() storage.Profiles { return (*profiles)(s) }
func (s *Store) Meals() storage.Meals       { return (*meals)(s) }
func (s *Store) Close() error               { return nil }

func ensureFile(path string, header []string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("csvstore: stat %s: %w", path, err)
	}
	return writeAll(path, header, nil)
}

// table is a parsed CSV file addressed by column name.
type table struct {
	index map[string]int
	rows  [][]string
}

func (t table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func readTable(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, fmt.Errorf("csvstore: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return table{index: map[string]int{}}, nil
	}
	if err != nil {
		return table{}, fmt.Errorf("csvstore: read header %s: %w", path, err)
	}
	t := table{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[h] = i
	}
	rows, err := r.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("csvstore: read %s: %w", path, err)
	}
	t.rows = rows
	return t, nil
}

func writeAll(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("csvstore: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("csvstore: write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("csvstore: write rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csvstore: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("csvstore: replace %s: %w", path, err)
	}
	return nil
}

func appendRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("csvstore: open %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		f.Close()
		return fmt.Errorf("csvstore: append: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("csvstore: append: %w", err)
	}
	return f.Close()
}

// intField parses a stored number; garbage becomes zero with a warning.
func intField(ctx context.Context, file, col, raw string) int {
	n, ok := domain.CoerceInt(raw)
	if !ok && raw != "" {
		warnField(ctx, file, col, raw)
	}
	return n
}

func floatField(ctx context.Context, file, col, raw string) float64 {
	f, ok := domain.CoerceFloat(raw)
	if !ok && raw != "" {
		warnField(ctx, file, col, raw)
	}
	return f
}

func warnField(ctx context.Context, file, col, raw string) {
	logger.Warn(ctx, logger.CompStorage, "csv.field_invalid",
		slog.String("file", filepath.Base(file)),
		slog.String("column", col),
		slog.String("value", logger.SanitizeLimit(raw, 64)),
	)
}

func userIDField(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

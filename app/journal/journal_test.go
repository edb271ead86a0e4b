package journal

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/hungrylogs/app/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestJournalWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "", "")
	require.NoError(t, err)
	j.now = func() time.Time { return time.Date(2024, 3, 9, 8, 15, 0, 0, time.UTC) }
	j.newID = func() string { return "id-1" }

	ctx := context.Background()
	j.Event(ctx, "meal_added", 42, "")
	id := j.Interaction(ctx, Interaction{
		UserID:  42,
		Input:   "oatmeal, with milk",
		Result:  domain.Macros{Protein: 12, Fat: 6, Carbs: 54, Calories: 320},
		Date:    "2024-03-09",
		Details: "80 g oats",
	})
	assert.Equal(t, "id-1", id)

	events := readCSV(t, filepath.Join(dir, "stats.csv"))
	require.Len(t, events, 2)
	assert.Equal(t, eventHeader, events[0])
	assert.Equal(t, []string{"2024-03-09 08:15:00", "meal_added", "42", ""}, events[1])

	model := readCSV(t, filepath.Join(dir, "model_logs.csv"))
	require.Len(t, model, 2)
	assert.Equal(t, "oatmeal, with milk", model[1][2])
	assert.JSONEq(t, `{"protein":12,"fat":6,"carbs":54,"calories":320,"date":"2024-03-09"}`, model[1][3])
	assert.Equal(t, "id-1", model[1][5])
}

func TestReopenKeepsRows(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "events.csv", "model.csv")
	require.NoError(t, err)
	j.Event(context.Background(), "registration_saved", 1, "cut")

	_, err = Open(dir, "events.csv", "model.csv")
	require.NoError(t, err)
	assert.Len(t, readCSV(t, filepath.Join(dir, "events.csv")), 2)
}

func TestNilJournalIsSafe(t *testing.T) {
	var j *Journal
	j.Event(context.Background(), "x", 1, "")
	assert.Empty(t, j.Interaction(context.Background(), Interaction{}))
}

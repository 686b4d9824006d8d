package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleBackup() *models.Export {
	return &models.Export{
		Version:    1,
		ExportedAt: "2026-03-10T08:00:00.000Z",
		Exercises: []models.ExportExercise{
			{ID: "e1", Name: "Squat", MuscleGroup: strPtr("jambes"), CreatedAt: "2026-01-01T00:00:00.000Z"},
		},
		WorkoutSessions: []models.ExportSession{
			{ID: "s1", Type: "legs", StartedAt: "2026-03-02T18:00:00.000Z", FinishedAt: strPtr("2026-03-02T19:00:00.000Z")},
		},
		ExerciseLogs: []models.ExportLog{
			{ID: "l1", SessionID: "s1", ExerciseID: "e1", WeightFactor: 1},
		},
		Sets: []models.ExportSet{
			{ID: "x1", ExerciseLogID: "l1", Weight: 100, Reps: 5, Status: "success"},
			{ID: "x2", ExerciseLogID: "l1", Weight: 100, Reps: 4, Status: "partial"},
		},
		CustomWorkoutTypes: []models.ExportCustomType{},
	}
}

func encode(t *testing.T, data *models.Export, compress bool) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	if !compress {
		return raw
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// fakeStore records calls and can be told to fail the import.
type fakeStore struct {
	imported  []*models.Export
	mode      storage.ImportMode
	inserted  []storage.ImportLog
	updated   []storage.ImportLog
	importErr error
}

func (f *fakeStore) ImportBackup(_ context.Context, data *models.Export, mode storage.ImportMode) (*storage.ImportResult, error) {
	f.imported = append(f.imported, data)
	f.mode = mode
	if f.importErr != nil {
		return nil, f.importErr
	}
	return &storage.ImportResult{ExercisesInserted: 1, SessionsInserted: 1, LogsInserted: 1, SetsInserted: len(data.Sets)}, nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, l storage.ImportLog) (int64, error) {
	f.inserted = append(f.inserted, l)
	return int64(len(f.inserted)), nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, _ int64, l storage.ImportLog) error {
	f.updated = append(f.updated, l)
	return nil
}

// TestDecode verifies plain and gzip-compressed backups decode identically.
func TestDecode(t *testing.T) {
	for _, compress := range []bool{false, true} {
		got, err := Decode(bytes.NewReader(encode(t, sampleBackup(), compress)))
		require.NoError(t, err, "compress=%v", compress)
		assert.Equal(t, sampleBackup(), got, "compress=%v", compress)
	}

	_, err := Decode(strings.NewReader("not json"))
	assert.True(t, errors.Is(err, ErrInvalidBackup))

	_, err = Decode(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrInvalidBackup))
}

// TestValidate covers the structural checks applied before any write.
func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sampleBackup()))

	tests := []struct {
		name   string
		mutate func(*models.Export)
		want   error
		msg    string
	}{
		{"wrong version", func(d *models.Export) { d.Version = 2 }, ErrUnsupportedVersion, "2"},
		{"missing table", func(d *models.Export) { d.CustomWorkoutTypes = nil }, ErrInvalidBackup, "missing custom_workout_types"},
		{"unknown muscle group", func(d *models.Export) { d.Exercises[0].MuscleGroup = strPtr("neck") }, ErrInvalidBackup, "exercise e1"},
		{"bad workout type", func(d *models.Export) { d.WorkoutSessions[0].Type = "cardio" }, ErrInvalidBackup, "session s1"},
		{"bad timestamp", func(d *models.Export) { d.WorkoutSessions[0].StartedAt = "monday" }, ErrInvalidBackup, "session s1"},
		{"finished before start", func(d *models.Export) { d.WorkoutSessions[0].FinishedAt = strPtr("2026-03-01T00:00:00Z") }, ErrInvalidBackup, "finished before"},
		{"rating out of range", func(d *models.Export) { r := 6; d.WorkoutSessions[0].Rating = &r }, ErrInvalidBackup, "rating 6"},
		{"dangling session", func(d *models.Export) { d.ExerciseLogs[0].SessionID = "s9" }, ErrInvalidBackup, "unknown session"},
		{"dangling exercise", func(d *models.Export) { d.ExerciseLogs[0].ExerciseID = "e9" }, ErrInvalidBackup, "unknown exercise"},
		{"zero weight factor", func(d *models.Export) { d.ExerciseLogs[0].WeightFactor = 0 }, ErrInvalidBackup, "weight factor"},
		{"dangling log", func(d *models.Export) { d.Sets[1].ExerciseLogID = "l9" }, ErrInvalidBackup, "set x2"},
		{"bad status", func(d *models.Export) { d.Sets[0].Status = "done" }, ErrInvalidBackup, "set x1"},
		{"duplicate set", func(d *models.Export) { d.Sets[1].ID = "x1" }, ErrInvalidBackup, "duplicate set x1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sampleBackup()
			tt.mutate(data)
			err := Validate(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

// TestImportDryRun verifies dry runs validate but never touch the store.
func TestImportDryRun(t *testing.T) {
	store := &fakeStore{}
	imp := New(store, discardLogger(), true)

	stats, err := imp.Import(context.Background(), "backup.json", bytes.NewReader(encode(t, sampleBackup(), false)), storage.ImportMerge)
	require.NoError(t, err)
	assert.True(t, stats.DryRun)
	assert.Equal(t, 2, stats.SetsReceived)
	assert.Empty(t, store.imported)
	assert.Empty(t, store.inserted)
}

// TestImportRecordsLog verifies a successful import moves its log from
// running to success with the inserted counts and duration.
func TestImportRecordsLog(t *testing.T) {
	store := &fakeStore{}
	imp := New(store, discardLogger(), false)
	clock := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	imp.Now = func() time.Time {
		clock = clock.Add(250 * time.Millisecond)
		return clock
	}

	stats, err := imp.Import(context.Background(), "backup.json.gz", bytes.NewReader(encode(t, sampleBackup(), true)), storage.ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, storage.ImportReplace, store.mode)
	assert.Equal(t, int64(1), stats.LogID)
	assert.Equal(t, 2, stats.Result.SetsInserted)
	assert.Equal(t, 250, stats.DurationMs)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, storage.ImportRunning, store.inserted[0].Status)
	assert.Equal(t, "backup.json.gz", store.inserted[0].Source)

	require.Len(t, store.updated, 1)
	done := store.updated[0]
	assert.Equal(t, storage.ImportSuccess, done.Status)
	assert.Equal(t, 2, done.SetsInserted)
	require.NotNil(t, done.DurationMs)
	assert.Equal(t, 250, *done.DurationMs)
	assert.Nil(t, done.ErrorMessage)
}

// TestImportStoreFailure verifies a failed import is logged with its error
// and returned to the caller.
func TestImportStoreFailure(t *testing.T) {
	store := &fakeStore{importErr: errors.New("disk full")}
	imp := New(store, discardLogger(), false)

	_, err := imp.Import(context.Background(), "backup.json", bytes.NewReader(encode(t, sampleBackup(), false)), storage.ImportMerge)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	require.Len(t, store.updated, 1)
	assert.Equal(t, storage.ImportError, store.updated[0].Status)
	require.NotNil(t, store.updated[0].ErrorMessage)
	assert.Equal(t, "disk full", *store.updated[0].ErrorMessage)
}

// TestImportInvalidBackupSkipsStore verifies validation failures never
// create an import log.
func TestImportInvalidBackupSkipsStore(t *testing.T) {
	store := &fakeStore{}
	imp := New(store, discardLogger(), false)

	data := sampleBackup()
	data.Version = 3
	_, err := imp.Import(context.Background(), "old.json", bytes.NewReader(encode(t, data, false)), storage.ImportMerge)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
	assert.Empty(t, store.inserted)
	assert.Empty(t, store.imported)
}

// TestImportFileSQLite imports a compressed backup file into a migrated
// SQLite store end to end.
func TestImportFileSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "liftlog.db")
	require.NoError(t, storage.RunMigrations(storage.DriverSQLite, dbPath))
	db, err := storage.OpenSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backupPath := filepath.Join(dir, "backup.json.gz")
	require.NoError(t, os.WriteFile(backupPath, encode(t, sampleBackup(), true), 0o644))

	imp := New(db, discardLogger(), false)
	stats, err := imp.ImportFile(ctx, backupPath, storage.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, "backup.json.gz", stats.Source)
	assert.Equal(t, 1, stats.Result.SessionsInserted)
	assert.Equal(t, 2, stats.Result.SetsInserted)

	facts, err := db.QuerySetFacts(ctx, storage.SetFilter{})
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "Squat", facts[0].ExerciseName)

	logs, err := db.QueryImportLogs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, storage.ImportSuccess, logs[0].Status)
	assert.Equal(t, 2, logs[0].SetsInserted)

	_, err = imp.ImportFile(ctx, filepath.Join(dir, "missing.json"), storage.ImportMerge)
	assert.Error(t, err)
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backupJSON = `{
	"version": 1,
	"exported_at": "2026-03-10T08:00:00.000Z",
	"exercises": [{"id": "e1", "name": "Squat", "muscle_group": "legs", "is_cable": 0, "created_at": "2026-01-01T00:00:00.000Z"}],
	"workout_sessions": [{"id": "s1", "type": "legs", "label": null, "started_at": "2026-03-02T18:00:00.000Z", "finished_at": "2026-03-02T19:00:00.000Z", "rating": 5}],
	"exercise_logs": [{"id": "l1", "session_id": "s1", "exercise_id": "e1", "target_reps": 5, "order": 0, "comment": null, "weight_factor": 1}],
	"sets": [{"id": "x1", "exercise_log_id": "l1", "weight": 120, "reps": 5, "status": "success", "order": 0, "muscle_failure": 0}],
	"custom_workout_types": []
}`

func newBackupServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liftlog.db")
	require.NoError(t, storage.RunMigrations(storage.DriverSQLite, path))
	db, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, _ := newTestServer(t, &fakeReports{}, "")
	s.SetBackups(db)
	return s
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Backup-Name", "phone.json")
	h.ServeHTTP(rec, req)
	return rec
}

// TestBackupsDisabled verifies the backup routes answer 501 until a store is
// installed.
func TestBackupsDisabled(t *testing.T) {
	s, _ := newTestServer(t, &fakeReports{}, "")
	assert.Equal(t, http.StatusNotImplemented, get(t, s, "/api/v1/export").Code)
	assert.Equal(t, http.StatusNotImplemented, get(t, s, "/api/v1/imports").Code)
	assert.Equal(t, http.StatusNotImplemented, post(t, s, "/api/v1/import", backupJSON).Code)
}

// TestImportExportRoundTrip uploads a backup, checks the import log and
// downloads it again.
func TestImportExportRoundTrip(t *testing.T) {
	s := newBackupServer(t)

	rec := post(t, s, "/api/v1/import?mode=replace", backupJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var stats importer.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, "phone.json", stats.Source)
	assert.Equal(t, storage.ImportReplace, stats.Mode)
	assert.Equal(t, 1, stats.Result.SetsInserted)

	rec = get(t, s, "/api/v1/imports?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []storage.ImportLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&logs))
	require.Len(t, logs, 1)
	assert.Equal(t, storage.ImportSuccess, logs[0].Status)
	assert.Equal(t, "phone.json", logs[0].Source)

	rec = get(t, s, "/api/v1/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="liftlog-2026-03-12.json"`, rec.Header().Get("Content-Disposition"))
	var data models.Export
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&data))
	assert.Equal(t, "2026-03-12T12:00:00.000Z", data.ExportedAt)
	require.Len(t, data.Sets, 1)
	assert.Equal(t, 120.0, data.Sets[0].Weight)
	require.Len(t, data.ExerciseLogs, 1)
	require.NotNil(t, data.ExerciseLogs[0].TargetReps)
	assert.Equal(t, 5, *data.ExerciseLogs[0].TargetReps)

	// Re-importing the export in merge mode adds nothing.
	body, err := json.Marshal(data)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, "api", stats.Source)
	assert.Equal(t, storage.ImportMerge, stats.Mode)
	assert.Equal(t, 0, stats.Result.SessionsInserted)
	assert.Equal(t, 1, stats.Result.ExercisesRemapped)
}

// TestImportBadRequests verifies client mistakes map to 400 and never reach
// the import log.
func TestImportBadRequests(t *testing.T) {
	s := newBackupServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"unknown mode", "/api/v1/import?mode=append", backupJSON},
		{"bad dry_run", "/api/v1/import?dry_run=maybe", backupJSON},
		{"not json", "/api/v1/import", "{"},
		{"wrong version", "/api/v1/import", strings.Replace(backupJSON, `"version": 1`, `"version": 2`, 1)},
		{"bad reference", "/api/v1/import", strings.Replace(backupJSON, `"session_id": "s1"`, `"session_id": "s2"`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := get(t, s, "/api/v1/imports")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// TestImportDryRunEndpoint verifies dry_run validates without writing.
func TestImportDryRunEndpoint(t *testing.T) {
	s := newBackupServer(t)

	rec := post(t, s, "/api/v1/import?dry_run=true", backupJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats importer.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.True(t, stats.DryRun)
	assert.Equal(t, 1, stats.SessionsReceived)

	rec = get(t, s, "/api/v1/export")
	require.Equal(t, http.StatusOK, rec.Code)
	var data models.Export
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&data))
	assert.Empty(t, data.WorkoutSessions)
}

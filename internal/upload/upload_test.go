package upload

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/meltforce/liftlog/internal/server"
	"github.com/meltforce/liftlog/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backupA = `{"version":1,"exported_at":"2026-03-10T08:00:00.000Z",
"exercises":[{"id":"e1","name":"Squat","muscle_group":"legs","is_cable":0,"created_at":"2026-01-01T00:00:00.000Z"}],
"workout_sessions":[{"id":"s1","type":"legs","label":null,"started_at":"2026-03-02T18:00:00.000Z","finished_at":"2026-03-02T19:00:00.000Z","rating":null}],
"exercise_logs":[{"id":"l1","session_id":"s1","exercise_id":"e1","target_reps":null,"order":0,"comment":null,"weight_factor":1}],
"sets":[{"id":"x1","exercise_log_id":"l1","weight":100,"reps":5,"status":"success","order":0,"muscle_failure":0}],
"custom_workout_types":[]}`

const backupB = `{"version":1,"exported_at":"2026-03-12T08:00:00.000Z",
"exercises":[{"id":"e1","name":"Squat","muscle_group":"legs","is_cable":0,"created_at":"2026-01-01T00:00:00.000Z"}],
"workout_sessions":[{"id":"s2","type":"legs","label":null,"started_at":"2026-03-11T18:00:00.000Z","finished_at":"2026-03-11T19:00:00.000Z","rating":4}],
"exercise_logs":[{"id":"l2","session_id":"s2","exercise_id":"e1","target_reps":null,"order":0,"comment":null,"weight_factor":1}],
"sets":[{"id":"x2","exercise_log_id":"l2","weight":105,"reps":5,"status":"success","order":0,"muscle_failure":0},
        {"id":"x3","exercise_log_id":"l2","weight":105,"reps":4,"status":"partial","order":1,"muscle_failure":1}],
"custom_workout_types":[]}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// newLiftlogServer runs the real HTTP API over a temporary SQLite store.
func newLiftlogServer(t *testing.T, apiKey string) (*httptest.Server, *storage.SQLite) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "liftlog.db")
	require.NoError(t, storage.RunMigrations(storage.DriverSQLite, path))
	db, err := storage.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv := server.New(nil, nil, nil, apiKey, discardLogger())
	srv.SetBackups(db)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, db
}

func writeBackups(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-03-10.json"), []byte(backupA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2026-03-12.json.gz"), gzipped(t, backupB), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	return dir
}

// TestBackupFiles verifies directory resolution picks backups in name order.
func TestBackupFiles(t *testing.T) {
	dir := writeBackups(t)

	files, err := BackupFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2026-03-10.json"),
		filepath.Join(dir, "2026-03-12.json.gz"),
	}, files)

	single := filepath.Join(dir, "2026-03-10.json")
	files, err = BackupFiles(single)
	require.NoError(t, err)
	assert.Equal(t, []string{single}, files)

	_, err = BackupFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

// TestUploaderSkipsAcceptedBackups uploads a directory twice and verifies
// the second run is skipped unless forced.
func TestUploaderSkipsAcceptedBackups(t *testing.T) {
	ctx := context.Background()
	ts, db := newLiftlogServer(t, "secret")
	dir := writeBackups(t)

	state, err := OpenStateDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = state.Close() })

	client := NewClient(ts.URL+"/", "secret")
	stats, err := New(client, state, storage.ImportMerge, false, false, discardLogger()).Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, Stats{FilesTotal: 2, FilesUploaded: 2, SessionsReceived: 2, SessionsInserted: 2, SetsInserted: 3}, *stats)

	dataStats, err := db.GetDataStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dataStats.TotalExercises)
	assert.Equal(t, int64(2), dataStats.TotalSessions)

	stats, err = New(client, state, storage.ImportMerge, false, false, discardLogger()).Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesUploaded)

	stats, err = New(client, state, storage.ImportMerge, false, true, discardLogger()).Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesUploaded)
	assert.Equal(t, 0, stats.SessionsInserted)

	logs, err := client.ImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 4)
	assert.Equal(t, "2026-03-12.json.gz", logs[0].Source)
	assert.Equal(t, storage.ImportSuccess, logs[0].Status)
}

// TestUploaderCountsRejectedFiles verifies a wrong API key fails every file
// without aborting the run.
func TestUploaderCountsRejectedFiles(t *testing.T) {
	ts, _ := newLiftlogServer(t, "secret")
	dir := writeBackups(t)

	stats, err := New(NewClient(ts.URL, "wrong"), nil, storage.ImportMerge, false, false, discardLogger()).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 2, stats.FilesErrored)
	assert.Equal(t, 0, stats.FilesUploaded)
}

// TestUploaderDryRun verifies dry runs validate locally without a server.
func TestUploaderDryRun(t *testing.T) {
	dir := writeBackups(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"version":1}`), 0o644))

	stats, err := New(nil, nil, storage.ImportReplace, true, false, discardLogger()).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FilesTotal)
	assert.Equal(t, 1, stats.FilesErrored)
	assert.Equal(t, 2, stats.SessionsReceived)
}

// TestClientRetriesServerErrors verifies 5xx responses are retried and 4xx
// responses are not.
func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "a.json", r.Header.Get("X-Backup-Name"))
		assert.Equal(t, "replace", r.URL.Query().Get("mode"))
		switch {
		case r.URL.Query().Get("dry_run") == "true":
			http.Error(w, `{"error":"invalid backup"}`, http.StatusBadRequest)
		case n == 1:
			http.Error(w, `{"error":"database locked"}`, http.StatusServiceUnavailable)
		default:
			_, _ = w.Write([]byte(`{"source":"a.json","mode":"replace","sessions_received":1,"result":{"sessions_inserted":1}}`))
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "key")
	client.backoff = time.Millisecond

	stats, err := client.Upload(context.Background(), "a.json", []byte(backupA), storage.ImportReplace, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, stats.Result.SessionsInserted)

	calls.Store(0)
	_, err = client.Upload(context.Background(), "a.json", []byte(backupA), storage.ImportReplace, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

// TestClientGivesUp verifies the client stops after three failed attempts.
func TestClientGivesUp(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, "")
	client.backoff = time.Millisecond

	_, err := client.Upload(context.Background(), "a.json", []byte(backupA), storage.ImportMerge, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

// TestStateDB verifies upload state is keyed by server, path, size and hash.
func TestStateDB(t *testing.T) {
	state, err := OpenStateDB(filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, err)
	defer state.Close()

	done, err := state.IsUploaded("https://a", "/b/1.json", 10, "h1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, state.MarkUploaded("https://a", "/b/1.json", 10, "h1"))

	done, err = state.IsUploaded("https://a", "/b/1.json", 10, "h1")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = state.IsUploaded("https://a", "/b/1.json", 10, "h2")
	require.NoError(t, err)
	assert.False(t, done, "modified file must be uploaded again")

	done, err = state.IsUploaded("https://other", "/b/1.json", 10, "h1")
	require.NoError(t, err)
	assert.False(t, done, "another server has not seen the file")
}

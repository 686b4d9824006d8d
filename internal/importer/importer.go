package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// Stats describes one backup import.
type Stats struct {
	Source              string               `json:"source"`
	Mode                storage.ImportMode   `json:"mode"`
	DryRun              bool                 `json:"dry_run"`
	LogID               int64                `json:"log_id,omitempty"`
	ExercisesReceived   int                  `json:"exercises_received"`
	CustomTypesReceived int                  `json:"custom_types_received"`
	SessionsReceived    int                  `json:"sessions_received"`
	LogsReceived        int                  `json:"logs_received"`
	SetsReceived        int                  `json:"sets_received"`
	Result              storage.ImportResult `json:"result"`
	DurationMs          int                  `json:"duration_ms"`
}

// Store is the storage surface an import writes through.
type Store interface {
	ImportBackup(ctx context.Context, data *models.Export, mode storage.ImportMode) (*storage.ImportResult, error)
	InsertImportLog(ctx context.Context, l storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, l storage.ImportLog) error
}

// Importer decodes, validates and applies app backups.
type Importer struct {
	store  Store
	log    *slog.Logger
	dryRun bool

	// Now is the clock used to time imports.
	Now func() time.Time
}

// New creates a new Importer. In dry-run mode backups are decoded and
// validated but never written.
func New(store Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun, Now: time.Now}
}

// ImportFile imports the backup at path, plain or gzip-compressed.
func (imp *Importer) ImportFile(ctx context.Context, path string, mode storage.ImportMode) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Stats{Source: path, Mode: mode, DryRun: imp.dryRun}, fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()
	return imp.Import(ctx, filepath.Base(path), f, mode)
}

// Import reads a backup from r and applies it in one transaction. Every
// attempt that reaches the store is recorded in the import log.
func (imp *Importer) Import(ctx context.Context, source string, r io.Reader, mode storage.ImportMode) (*Stats, error) {
	stats := &Stats{Source: source, Mode: mode, DryRun: imp.dryRun}

	data, err := Decode(r)
	if err != nil {
		return stats, err
	}
	stats.ExercisesReceived = len(data.Exercises)
	stats.CustomTypesReceived = len(data.CustomWorkoutTypes)
	stats.SessionsReceived = len(data.WorkoutSessions)
	stats.LogsReceived = len(data.ExerciseLogs)
	stats.SetsReceived = len(data.Sets)

	if err := Validate(data); err != nil {
		return stats, err
	}
	if imp.dryRun {
		imp.log.Info("dry run, backup not written", "source", source, "sessions", stats.SessionsReceived, "sets", stats.SetsReceived)
		return stats, nil
	}

	start := imp.Now()
	logID, err := imp.store.InsertImportLog(ctx, storage.ImportLog{
		Source:            source,
		Mode:              mode,
		Status:            storage.ImportRunning,
		ExercisesReceived: stats.ExercisesReceived,
		SessionsReceived:  stats.SessionsReceived,
		SetsReceived:      stats.SetsReceived,
	})
	if err != nil {
		imp.log.Error("failed to create import log", "source", source, "error", err)
	}
	stats.LogID = logID

	res, importErr := imp.store.ImportBackup(ctx, data, mode)
	if res != nil {
		stats.Result = *res
	}
	stats.DurationMs = int(imp.Now().Sub(start).Milliseconds())
	imp.finish(ctx, stats, importErr)

	if importErr != nil {
		return stats, fmt.Errorf("importing %s: %w", source, importErr)
	}
	imp.log.Info("backup imported",
		"source", source,
		"mode", mode,
		"sessions_inserted", stats.Result.SessionsInserted,
		"sets_inserted", stats.Result.SetsInserted,
		"duration_ms", stats.DurationMs,
	)
	return stats, nil
}

// finish moves the import log out of the running state.
func (imp *Importer) finish(ctx context.Context, stats *Stats, importErr error) {
	if stats.LogID == 0 {
		return
	}
	status := storage.ImportSuccess
	var errMsg *string
	if importErr != nil {
		status = storage.ImportError
		msg := importErr.Error()
		errMsg = &msg
	}
	durationMs := stats.DurationMs
	err := imp.store.UpdateImportLog(ctx, stats.LogID, storage.ImportLog{
		Status:            status,
		ExercisesReceived: stats.ExercisesReceived,
		ExercisesInserted: stats.Result.ExercisesInserted,
		SessionsReceived:  stats.SessionsReceived,
		SessionsInserted:  stats.Result.SessionsInserted,
		SetsReceived:      stats.SetsReceived,
		SetsInserted:      stats.Result.SetsInserted,
		DurationMs:        &durationMs,
		ErrorMessage:      errMsg,
	})
	if err != nil {
		imp.log.Error("failed to finalize import log", "log_id", stats.LogID, "error", err)
	}
}

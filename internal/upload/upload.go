package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/storage"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsReceived int
	SessionsInserted int
	SetsInserted     int
}

// Uploader sends backup files to a liftlog server, skipping files the server
// has already accepted.
type Uploader struct {
	client *Client
	state  *StateDB
	mode   storage.ImportMode
	dryRun bool
	force  bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. state may be nil to disable skip tracking.
// In dry-run mode files are decoded and validated locally and client may be
// nil.
func New(client *Client, state *StateDB, mode storage.ImportMode, dryRun, force bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		mode:   mode,
		dryRun: dryRun,
		force:  force,
		log:    log,
	}
}

// Run uploads the backup at path, or every *.json and *.json.gz file in the
// directory at path in name order. Per-file failures are counted and logged
// without stopping the run.
func (u *Uploader) Run(ctx context.Context, path string) (*Stats, error) {
	files, err := BackupFiles(path)
	if err != nil {
		return &u.stats, err
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		u.stats.FilesTotal++
		if err := u.uploadFile(ctx, f); err != nil {
			u.stats.FilesErrored++
			u.log.Error("upload failed", "file", f, "error", err)
		}
	}
	return &u.stats, nil
}

func (u *Uploader) uploadFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}
	hash, err := HashFile(abs)
	if err != nil {
		return fmt.Errorf("hashing backup: %w", err)
	}
	size := int64(len(data))

	if u.dryRun {
		backup, err := importer.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
		if err := importer.Validate(backup); err != nil {
			return err
		}
		u.stats.SessionsReceived += len(backup.WorkoutSessions)
		u.log.Info("dry run, backup valid", "file", abs, "sessions", len(backup.WorkoutSessions), "sets", len(backup.Sets))
		return nil
	}

	server := u.client.ServerURL()
	if u.state != nil && !u.force {
		done, err := u.state.IsUploaded(server, abs, size, hash)
		if err != nil {
			return err
		}
		if done {
			u.stats.FilesSkipped++
			u.log.Debug("skipping uploaded backup", "file", abs)
			return nil
		}
	}

	stats, err := u.client.Upload(ctx, filepath.Base(abs), data, u.mode, false)
	if err != nil {
		return err
	}
	u.stats.FilesUploaded++
	u.stats.SessionsReceived += stats.SessionsReceived
	u.stats.SessionsInserted += stats.Result.SessionsInserted
	u.stats.SetsInserted += stats.Result.SetsInserted
	u.log.Info("backup uploaded", "file", abs, "sessions_inserted", stats.Result.SessionsInserted, "sets_inserted", stats.Result.SetsInserted)

	if u.state != nil {
		if err := u.state.MarkUploaded(server, abs, size, hash); err != nil {
			return err
		}
	}
	return nil
}

// BackupFiles resolves path to the backup files it names: the file itself,
// or the directory's *.json and *.json.gz entries sorted by name.
func BackupFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz")) {
			continue
		}
		files = append(files, filepath.Join(path, name))
	}
	sort.Strings(files)
	return files, nil
}

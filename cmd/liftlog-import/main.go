package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	backupPath := flag.String("file", "", "path to a backup exported by the app, .json or .json.gz (required)")
	modeFlag := flag.String("mode", "merge", "merge or replace")
	dryRun := flag.Bool("dry-run", false, "validate the backup without writing to the database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *backupPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -config config.yaml -file backup.json [-mode merge|replace] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	mode, err := storage.ParseImportMode(*modeFlag)
	if err != nil {
		log.Error("invalid mode", "error", err)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	driver, dsn := cfg.Database.Driver, cfg.Database.DSN()
	if err := storage.RunMigrations(driver, dsn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "driver", driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *dryRun {
		log.Info("DRY RUN mode, no data will be written to the database")
	}

	// Connect database
	db, err := storage.Open(ctx, driver, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.Info("database connected")

	// Run import
	imp := importer.New(db, log, *dryRun)
	stats, err := imp.ImportFile(ctx, *backupPath, mode)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"source", stats.Source,
		"mode", stats.Mode,
		"exercises_received", stats.ExercisesReceived,
		"exercises_inserted", stats.Result.ExercisesInserted,
		"exercises_remapped", stats.Result.ExercisesRemapped,
		"sessions_received", stats.SessionsReceived,
		"sessions_inserted", stats.Result.SessionsInserted,
		"logs_inserted", stats.Result.LogsInserted,
		"sets_received", stats.SetsReceived,
		"sets_inserted", stats.Result.SetsInserted,
		"custom_types_inserted", stats.Result.CustomTypesInserted,
		"duration_ms", stats.DurationMs,
	)
}

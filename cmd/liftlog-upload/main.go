package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/meltforce/liftlog/internal/storage"
	"github.com/meltforce/liftlog/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "liftlog server URL (e.g. https://liftlog.tail1234.ts.net)")
	path := flag.String("path", "", "backup file, or directory of .json / .json.gz backups")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_API_KEY"), "X-API-Key sent to the server")
	modeFlag := flag.String("mode", "merge", "merge or replace")
	dryRun := flag.Bool("dry-run", false, "validate backups locally without sending them")
	force := flag.Bool("force", false, "upload backups the server already accepted")
	history := flag.Int("history", 0, "print the server's N most recent imports after uploading")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-upload -server <URL> -path <backup file or dir> [-mode merge|replace] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	mode, err := storage.ParseImportMode(*modeFlag)
	if err != nil {
		log.Error("invalid mode", "error", err)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := upload.OpenStateDB(filepath.Join(homeDir, ".liftlog-upload"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey)
	} else {
		log.Info("DRY RUN mode, backups will be validated but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(client, state, mode, *dryRun, *force, log)
	stats, err := uploader.Run(ctx, *path)
	printStats(stats)
	if err != nil {
		log.Error("upload failed", "error", err)
		os.Exit(1)
	}

	if *history > 0 && client != nil {
		logs, err := client.ImportLogs(ctx, *history)
		if err != nil {
			log.Error("failed to fetch import history", "error", err)
			os.Exit(1)
		}
		printHistory(logs)
	}

	if stats.FilesErrored > 0 {
		os.Exit(1)
	}
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:       %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:    %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:     %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:     %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions received: %d\n", stats.SessionsReceived)
	fmt.Printf("  Sessions inserted: %d\n", stats.SessionsInserted)
	fmt.Printf("  Sets inserted:     %d\n", stats.SetsInserted)
	fmt.Println()
}

func printHistory(logs []storage.ImportLog) {
	fmt.Println("=== Recent Imports ===")
	for _, l := range logs {
		line := fmt.Sprintf("  #%d %s %-7s %-7s %s sessions=%d/%d sets=%d/%d",
			l.ID, l.CreatedAt.Format("2006-01-02 15:04"), l.Mode, l.Status, l.Source,
			l.SessionsInserted, l.SessionsReceived, l.SetsInserted, l.SetsReceived)
		if l.ErrorMessage != nil {
			line += " error=" + *l.ErrorMessage
		}
		fmt.Println(line)
	}
	fmt.Println()
}

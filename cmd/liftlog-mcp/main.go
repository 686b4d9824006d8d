package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/mcp"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/meltforce/liftlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (local mode)")
	url := flag.String("url", "", "liftlog server base URL (remote mode, e.g. http://liftlog.tailnet.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_API_KEY"), "API key for remote mode")
	flag.Parse()

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *url != "" {
		ds = mcp.NewHTTPClient(*url, *apiKey)
		log.Info("LiftLog MCP starting", "version", Version, "mode", "remote", "url", *url)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		loc, err := cfg.Stats.Location()
		if err != nil {
			log.Error("invalid timezone", "error", err)
			os.Exit(1)
		}
		db, err := storage.Open(context.Background(), cfg.Database.Driver, cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		ds = mcp.NewLocal(stats.NewEngine(db, loc, log), db)
		log.Info("LiftLog MCP starting", "version", Version, "mode", "local", "driver", cfg.Database.Driver)
	}

	s := mcp.New(ds, Version, log)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

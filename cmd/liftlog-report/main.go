// Package main is the entry point for the liftlog-report CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/meltforce/liftlog/internal/cli"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/mcp"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/meltforce/liftlog/internal/storage"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	cli.Execute(open, version)
}

// open reads from a remote server when --url is set, else from the database
// named in the config file.
func open(ctx context.Context, opts *cli.Options) (cli.Reports, func() error, error) {
	if opts.URL != "" {
		return mcp.NewHTTPClient(opts.URL, opts.APIKey), func() error { return nil }, nil
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	loc, err := cfg.Stats.Location()
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return stats.NewEngine(db, loc, log), db.Close, nil
}

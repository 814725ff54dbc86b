package main

import (
	"context"
	"database/sql"
	"os"

	"github.com/desertthunder/shutter/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}
	shared.SetLogLevel(logger, config.Log.Level)

	var db *sql.DB
	if conn, err := shared.OpenDatabase(config.Database); err == nil {
		db = conn
		defer db.Close()
	} else {
		logger.Warn("local state unavailable, session will not persist", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
		DB:     db,
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Error("application error", "error", err)
		if db != nil {
			db.Close()
		}
		os.Exit(1)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "shutter",
		Usage:    "Browse, search and upload to a photo gallery from the terminal",
		Version:  "0.1.0",
		Commands: r.register(),
	}
}

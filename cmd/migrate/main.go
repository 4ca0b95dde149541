// Command migrate applies the embedded schema migrations.
//
// Usage:
//
//	migrate up            # apply pending migrations
//	migrate down          # roll back every migration
//	migrate steps -1      # roll back one migration
//	migrate version       # print the current version
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/vowline/vowline/migrations"
)

func main() {
	databaseURL := flag.String("database-url", "", "PostgreSQL connection string (default $DATABASE_URL)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [-database-url URL] up|down|steps N|version")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Missing .env is normal outside local development.
	_ = godotenv.Load()
	if *databaseURL == "" {
		*databaseURL = os.Getenv("DATABASE_URL")
	}
	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(*databaseURL, flag.Args(), logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(databaseURL string, args []string, logger *slog.Logger) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "up":
		if err := migrations.Up(databaseURL); err != nil {
			return err
		}
	case "down":
		if err := migrations.Down(databaseURL); err != nil {
			return err
		}
	case "steps":
		if len(args) < 2 {
			return fmt.Errorf("steps needs a count")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n == 0 {
			return fmt.Errorf("invalid step count %q", args[1])
		}
		if err := migrations.Steps(databaseURL, n); err != nil {
			return err
		}
	case "version":
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	version, dirty, err := migrations.Version(databaseURL)
	if err != nil {
		return err
	}
	logger.Info("schema version", "version", version, "dirty", dirty)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"diadesorte/cmd"
	"diadesorte/config"
	"diadesorte/database"
	"diadesorte/infrastructure/observability"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if len(os.Args) > 1 && os.Args[1] == "load-history" {
		if err := handleLoadHistory(ctx); err != nil {
			log.Fatal("History load error: ", err)
		}
		return
	}

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: diadesorte migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleLoadHistory ingests the latest N contests from the command line,
// drawing a progress bar while the results API is walked
func handleLoadHistory(ctx context.Context) error {
	limit := 0
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			return fmt.Errorf("usage: diadesorte load-history [N], got %q", os.Args[2])
		}
		limit = n
	}

	cfg := config.Get()
	cmd.ConfigureLogging(cfg)

	svc, err := cmd.BuildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "loading contests")
		}
		_ = bar.Set(done)
	}

	saved, err := svc.History.Load(ctx, limit, progress)
	if bar != nil {
		_ = bar.Finish()
	}
	observability.GetMetrics().RecordHistoryRefresh(observability.TriggerManual, saved, err)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	log.WithField("saved", saved).Info("History load finished")
	return nil
}

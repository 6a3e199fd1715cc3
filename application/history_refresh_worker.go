package application

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // scratch images ship without a zoneinfo database

	"diadesorte/domain/interfaces"
	"diadesorte/infrastructure/observability"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// DrawTimezone is where the Dia de Sorte draws take place
const DrawTimezone = "America/Sao_Paulo"

// HistoryRefreshWorker reloads recent contests on a cron schedule
type HistoryRefreshWorker struct {
	history  interfaces.HistoryService
	metrics  interfaces.HistoryMetrics
	schedule cron.Schedule
	expr     string
	limit    int
	location *time.Location
}

// NewHistoryRefreshWorker parses expr as a standard five-field cron expression
// in the draw timezone; metrics may be nil
func NewHistoryRefreshWorker(history interfaces.HistoryService, metrics interfaces.HistoryMetrics, expr string, limit int) (*HistoryRefreshWorker, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid history refresh schedule %q: %w", expr, err)
	}

	location, err := time.LoadLocation(DrawTimezone)
	if err != nil {
		log.WithError(err).Warn("Draw timezone unavailable, scheduling in UTC")
		location = time.UTC
	}

	return &HistoryRefreshWorker{
		history:  history,
		metrics:  metrics,
		schedule: schedule,
		expr:     expr,
		limit:    limit,
		location: location,
	}, nil
}

// Start schedules the refresh and returns a function that stops it
func (w *HistoryRefreshWorker) Start(ctx context.Context) func() {
	c := cron.New(cron.WithLocation(w.location))
	c.Schedule(w.schedule, cron.FuncJob(func() { w.Refresh(ctx) }))
	c.Start()

	log.WithFields(log.Fields{
		"schedule": w.expr,
		"timezone": w.location.String(),
		"limit":    w.limit,
		"next":     w.NextRun(time.Now()),
	}).Info("History refresh worker started")

	stopChan := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			log.Info("History refresh worker shutting down (context cancelled)...")
		case <-stopChan:
			log.Info("History refresh worker shutting down (stop requested)...")
		}
		// Waits for a running refresh to finish
		<-c.Stop().Done()
	}()

	return func() {
		close(stopChan)
	}
}

// NextRun returns the first scheduled refresh after t
func (w *HistoryRefreshWorker) NextRun(t time.Time) time.Time {
	return w.schedule.Next(t.In(w.location))
}

// Refresh loads the latest contests once
func (w *HistoryRefreshWorker) Refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	saved, err := w.history.Load(ctx, w.limit, nil)
	if w.metrics != nil {
		w.metrics.RecordHistoryRefresh(observability.TriggerScheduled, saved, err)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"limit": w.limit,
			"error": err,
		}).Error("Scheduled history refresh failed")
		return
	}

	log.WithFields(log.Fields{
		"saved":    saved,
		"duration": time.Since(start),
	}).Info("Scheduled history refresh completed")
}

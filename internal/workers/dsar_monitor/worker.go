// Package dsar_monitor periodically counts data subject requests that
// are past their response deadline and exposes the count as a gauge.
package dsar_monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/domain/services/datasubject"
	"github.com/lifedash/privacy_service/pkg/metrics"
)

const runTimeout = time.Minute

// Worker refreshes the overdue-request gauge on a cron schedule
type Worker struct {
	service  *datasubject.Service
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewWorker creates a DSAR deadline monitor
func NewWorker(service *datasubject.Service, schedule string, logger *zap.Logger) *Worker {
	return &Worker{
		service:  service,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the monitor job and starts the scheduler. The gauge
// is refreshed once immediately so it is populated before the first
// scheduled run.
func (w *Worker) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.run); err != nil {
		return fmt.Errorf("failed to schedule dsar monitor: %w", err)
	}
	w.cron.Start()
	go w.run()
	w.logger.Info("dsar monitor started", zap.String("schedule", w.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish
func (w *Worker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("dsar monitor stopped")
}

func (w *Worker) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	overdue, err := w.service.GetOverdueRequests(ctx)
	if err != nil {
		w.logger.Error("failed to count overdue requests", zap.Error(err))
		return
	}

	metrics.DSAROverdueRequests.Set(float64(len(overdue)))
	if len(overdue) > 0 {
		w.logger.Warn("data subject requests past deadline", zap.Int("count", len(overdue)))
	}
}

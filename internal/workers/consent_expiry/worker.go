// Package consent_expiry runs the scheduled sweep that transitions
// granted consents past their expiry date to expired.
package consent_expiry

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lifedash/privacy_service/internal/domain/services/consent"
)

const runTimeout = 5 * time.Minute

// Worker sweeps expired consent records on a cron schedule
type Worker struct {
	service  *consent.Service
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewWorker creates a consent expiry worker. schedule is a standard
// five-field cron expression.
func NewWorker(service *consent.Service, schedule string, logger *zap.Logger) *Worker {
	return &Worker{
		service:  service,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the sweep job and starts the scheduler
func (w *Worker) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.run); err != nil {
		return fmt.Errorf("failed to schedule consent expiry sweep: %w", err)
	}
	w.cron.Start()
	w.logger.Info("consent expiry worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (w *Worker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("consent expiry worker stopped")
}

func (w *Worker) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	count, err := w.service.RefreshExpiredConsents(ctx)
	if err != nil {
		w.logger.Error("consent expiry sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		w.logger.Info("expired consents refreshed", zap.Int("count", count))
	}
}

package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"anime-storefront/internal/dto"
	"anime-storefront/internal/service"

	"github.com/sirupsen/logrus"
)

const DefaultCleanupInterval = 30 * time.Minute

// CleanupScheduler periodically cancels orders that never completed payment.
type CleanupScheduler struct {
	cleanup  service.CleanupService
	interval time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	mu            sync.Mutex
	running       bool
	lastRunAt     *time.Time
	lastCancelled int64
	lastError     string
	nextRunAt     *time.Time
}

func NewCleanupScheduler(cleanup service.CleanupService, interval time.Duration, log logrus.FieldLogger) *CleanupScheduler {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	return &CleanupScheduler{
		cleanup:  cleanup,
		interval: interval,
		log:      log.WithField("worker", "order_cleanup"),
		now:      time.Now,
	}
}

// Start runs one sweep immediately, then one per interval until ctx is done.
func (w *CleanupScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.nextRunAt = nil
		w.mu.Unlock()
	}()

	w.log.WithField("interval", w.interval.String()).Info("order cleanup scheduler started")

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("order cleanup scheduler stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// RunNow performs a sweep outside the schedule.
func (w *CleanupScheduler) RunNow(ctx context.Context) (*service.CleanupResult, error) {
	return w.run(ctx)
}

func (w *CleanupScheduler) runOnce(ctx context.Context) {
	if _, err := w.run(ctx); err != nil {
		w.log.WithError(err).Error("order cleanup failed, retrying next interval")
	}

	next := w.now().UTC().Add(w.interval)
	w.mu.Lock()
	w.nextRunAt = &next
	w.mu.Unlock()
}

func (w *CleanupScheduler) run(ctx context.Context) (result *service.CleanupResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in order cleanup: %v", r)
		}

		at := w.now().UTC()
		w.mu.Lock()
		w.lastRunAt = &at
		w.lastError = ""
		w.lastCancelled = 0
		if err != nil {
			w.lastError = err.Error()
		} else if result != nil {
			w.lastCancelled = result.CancelledCount
		}
		w.mu.Unlock()
	}()

	result, err = w.cleanup.CancelExpiredPendingOrders(ctx)
	if err != nil {
		return nil, err
	}

	if result.CancelledCount > 0 {
		w.log.WithField("cancelled", result.CancelledCount).Info("expired pending orders cancelled")
	}
	return result, nil
}

func (w *CleanupScheduler) Status() dto.SchedulerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	return dto.SchedulerStatus{
		Running:       w.running,
		Interval:      w.interval.String(),
		LastRunAt:     w.lastRunAt,
		LastCancelled: w.lastCancelled,
		LastError:     w.lastError,
		NextRunAt:     w.nextRunAt,
	}
}

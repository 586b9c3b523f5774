package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/sabry-awad97/telepharma/internal/service/models/medicine"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// notifier delivers an expiry alert for a single medicine. *telegram.Bot
// satisfies it.
type notifier interface {
	NotifyExpiringMedicine(ctx context.Context, med medicine.Medicine) error
}

// inventoryService represents the catalog side of the service layer.
type inventoryService interface {
	ListExpiring(ctx context.Context, window time.Duration) ([]medicine.Medicine, error)
}

// Worker periodically scans the catalog for medicines close to their expiry
// date and alerts the pharmacy chat about each of them.
type Worker struct {
	inventory     inventoryService
	notifier      notifier
	checkInterval time.Duration
	window        time.Duration
	stopCh        chan struct{}
}

// NewWorker creates a new expiry worker.
func NewWorker(inventory inventoryService, notifier notifier) *Worker {
	checkIntervalHours := viper.GetInt("expiry.check_interval_hours")
	if checkIntervalHours == 0 {
		checkIntervalHours = 24
	}

	windowDays := viper.GetInt("expiry.window_days")
	if windowDays == 0 {
		windowDays = 180
	}

	return &Worker{
		inventory:     inventory,
		notifier:      notifier,
		checkInterval: time.Duration(checkIntervalHours) * time.Hour,
		window:        time.Duration(windowDays) * 24 * time.Hour,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic expiry checks. The first check runs immediately.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	slog.Info("Expiry worker started", "check_interval", w.checkInterval, "window", w.window)

	w.checkExpiringMedicines(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Expiry worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Expiry worker stopped")

			return
		case <-ticker.C:
			w.checkExpiringMedicines(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// checkExpiringMedicines alerts about every medicine expiring within the window.
func (w *Worker) checkExpiringMedicines(ctx context.Context) {
	medicines, err := w.inventory.ListExpiring(ctx, w.window)
	if err != nil {
		slog.Error("Failed to list expiring medicines", "error", err)

		return
	}

	if len(medicines) == 0 {
		return
	}

	slog.Info("Found expiring medicines", "count", len(medicines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(10)

	for _, med := range medicines {
		med := med
		g.Go(func() error {
			if err := w.notifier.NotifyExpiringMedicine(ctx, med); err != nil {
				slog.Error("Failed to send expiry alert",
					"medicine_id", med.ID,
					"medicine_name", med.Name,
					"error", err,
				)
			}

			return nil
		})
	}

	_ = g.Wait()
}

// Package cleanup removes tickets left behind by deleted events.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
)

type TicketStore interface {
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
	ReconcileOrphans(ctx context.Context) (int64, error)
}

type Worker struct {
	Tickets  TicketStore
	Interval time.Duration
	Logger   *logger.Logger
}

func NewWorker(tickets TicketStore, interval time.Duration, log *logger.Logger) *Worker {
	return &Worker{Tickets: tickets, Interval: interval, Logger: log}
}

// HandleEventDeleted deletes the tickets of one deleted event. Repeating it is harmless.
func (w *Worker) HandleEventDeleted(ctx context.Context, evt models.EventDeletedEvent) error {
	n, err := w.Tickets.DeleteByEvent(ctx, evt.EventID)
	if err != nil {
		return fmt.Errorf("delete tickets of event %s: %w", evt.EventID, err)
	}
	w.Logger.LogDatabase("DELETE", "tickets", fmt.Sprintf("removed %d tickets of deleted event %s", n, evt.EventID))
	return nil
}

// Sweep deletes every ticket whose event row is gone.
func (w *Worker) Sweep(ctx context.Context) (int64, error) {
	n, err := w.Tickets.ReconcileOrphans(ctx)
	if err != nil {
		w.Logger.Error("CLEANUP", fmt.Sprintf("Orphan sweep failed: %v", err))
		return 0, err
	}
	if n > 0 {
		w.Logger.Info("CLEANUP", fmt.Sprintf("Orphan sweep removed %d tickets", n))
	}
	return n, nil
}

// RunSweeps sweeps once immediately and then on every tick until ctx is done.
func (w *Worker) RunSweeps(ctx context.Context) {
	w.Sweep(ctx)
	if w.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

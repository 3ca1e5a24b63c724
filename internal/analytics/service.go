package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/config"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
)

const (
	DefaultLimit = 5
	MaxLimit     = 50
)

// Store is the read side the aggregator needs.
type Store interface {
	MostBooked(ctx context.Context, limit int) ([]models.MostBookedEvent, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

// Service handles analytics operations. Nothing here writes.
type Service struct {
	Store         Store
	Notifications config.NotificationConfig
	Logger        *logger.Logger
	Now           func() time.Time
}

// NewService creates a new analytics service
func NewService(store Store, cfg config.NotificationConfig, log *logger.Logger) *Service {
	return &Service{Store: store, Notifications: cfg, Logger: log, Now: time.Now}
}

// MostBooked returns the events with the most tickets, ties broken by event id.
func (s *Service) MostBooked(ctx context.Context, limit int) ([]models.MostBookedEvent, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	rows, err := s.Store.MostBooked(ctx, limit)
	if err != nil {
		return nil, apperror.Fatal("Failed to compute most booked events", err)
	}
	return rows, nil
}

// EventNotifications recomputes the notification feed from the current events.
func (s *Service) EventNotifications(ctx context.Context) ([]models.Notification, error) {
	events, err := s.Store.ListEvents(ctx)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch events", err)
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	out := BuildNotifications(events, now, s.Notifications)
	if s.Logger != nil {
		s.Logger.Debug("ANALYTICS", fmt.Sprintf("built %d notifications from %d events", len(out), len(events)))
	}
	return out, nil
}

// BuildNotifications derives upcoming, closed and low_seats items for each
// event. An event can produce more than one item.
func BuildNotifications(events []models.Event, now time.Time, cfg config.NotificationConfig) []models.Notification {
	now = now.UTC()
	stamp := now.Format(time.RFC3339)
	out := []models.Notification{}

	for _, ev := range events {
		diffDays := int(math.Floor(ev.Date.Sub(now).Hours() / 24))

		if diffDays >= 0 && diffDays <= cfg.UpcomingDays {
			when := "today"
			if diffDays != 0 {
				when = fmt.Sprintf("%d day(s)", diffDays)
			}
			out = append(out, models.Notification{
				Type:    models.NotificationUpcoming,
				Message: fmt.Sprintf("Upcoming: \"%s\" in %s", ev.Title, when),
				EventID: ev.ID,
				Time:    stamp,
			})
		}

		if ev.Date.Before(now) {
			out = append(out, models.Notification{
				Type:    models.NotificationClosed,
				Message: fmt.Sprintf("Closed: \"%s\" has already ended", ev.Title),
				EventID: ev.ID,
				Time:    stamp,
			})
		}

		if ev.AvailableSeats > 0 && ev.AvailableSeats <= cfg.LowSeatsThreshold {
			out = append(out, models.Notification{
				Type:    models.NotificationLowSeats,
				Message: fmt.Sprintf("Hurry: \"%s\" has only %d seats left", ev.Title, ev.AvailableSeats),
				EventID: ev.ID,
				Time:    stamp,
			})
		}
	}
	return out
}

package events

import (
	"context"
	"fmt"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	"eventx-ticketing/internal/utils"
)

type EventDBLayer interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEvent(ctx context.Context, event *models.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

// TicketCleaner removes the tickets of a deleted event.
type TicketCleaner interface {
	DeleteByEvent(ctx context.Context, eventID string) (int64, error)
}

type DeletionPublisher interface {
	PublishEventDeleted(ctx context.Context, evt models.EventDeletedEvent) error
}

type EventService struct {
	DB        EventDBLayer
	Tickets   TicketCleaner
	Publisher DeletionPublisher
	Logger    *logger.Logger
	Now       func() time.Time
}

func NewEventService(db EventDBLayer, tickets TicketCleaner, publisher DeletionPublisher, log *logger.Logger) *EventService {
	return &EventService{DB: db, Tickets: tickets, Publisher: publisher, Logger: log, Now: time.Now}
}

func (s *EventService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch events", err)
	}
	return events, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	if !utils.ValidID(id) {
		return nil, apperror.NotFound("event")
	}
	event, err := s.DB.GetEventByID(ctx, id)
	if err != nil {
		return nil, keep(err, "Failed to fetch event")
	}
	return event, nil
}

// CreateEvent stores a new event with every seat available. The date must not
// be in the past at creation time.
func (s *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	now := s.now()
	if req.Date.Before(now) {
		return nil, apperror.InvalidInput("Event date must be in the future")
	}

	event := &models.Event{
		ID:             utils.NewID(),
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date.UTC(),
		Venue:          req.Venue,
		Price:          req.Price,
		Image:          req.Image,
		Seats:          req.Seats,
		AvailableSeats: req.Seats,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, apperror.Fatal("Failed to create event", err)
	}
	s.Logger.LogDatabase("INSERT", "events", fmt.Sprintf("created event %s (%d seats)", event.ID, event.Seats))
	return event, nil
}

// UpdateEvent applies the provided fields. availableSeats is never taken from
// the client; the store recomputes it from the issued tickets.
func (s *EventService) UpdateEvent(ctx context.Context, id string, req models.UpdateEventRequest) (*models.Event, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = req.Date.UTC()
	}
	if req.Venue != nil {
		event.Venue = *req.Venue
	}
	if req.Price != nil {
		event.Price = *req.Price
	}
	if req.Image != nil {
		event.Image = *req.Image
	}
	if req.Seats != nil {
		event.Seats = *req.Seats
	}

	if err := s.DB.UpdateEvent(ctx, event); err != nil {
		return nil, keep(err, "Failed to update event")
	}
	s.Logger.LogDatabase("UPDATE", "events", fmt.Sprintf("updated event %s", event.ID))
	return event, nil
}

// DeleteEvent removes the event, then reconciles its tickets. Only the first
// step can fail the call; cleanup errors are logged and left to the cleanup
// worker and the orphan sweep.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if !utils.ValidID(id) {
		return apperror.NotFound("event")
	}
	if err := s.DB.DeleteEvent(ctx, id); err != nil {
		return keep(err, "Failed to delete event")
	}
	s.Logger.LogDatabase("DELETE", "events", fmt.Sprintf("deleted event %s", id))

	s.reconcile(ctx, id)
	return nil
}

func (s *EventService) reconcile(ctx context.Context, id string) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("CLEANUP", fmt.Sprintf("Ticket cleanup for event %s panicked: %v", id, r))
		}
	}()

	if s.Tickets != nil {
		n, err := s.Tickets.DeleteByEvent(ctx, id)
		if err != nil {
			s.Logger.Error("CLEANUP", fmt.Sprintf("Failed to delete tickets for event %s: %v", id, err))
		} else {
			s.Logger.LogDatabase("DELETE", "tickets", fmt.Sprintf("removed %d tickets of event %s", n, id))
		}
	}

	if s.Publisher != nil {
		evt := models.EventDeletedEvent{EventID: id, DeletedAt: s.now()}
		if err := s.Publisher.PublishEventDeleted(ctx, evt); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish deletion of event %s: %v", id, err))
		}
	}
}

func keep(err error, message string) error {
	if apperror.KindOf(err) != apperror.KindFatal {
		return err
	}
	return apperror.Fatal(message, err)
}

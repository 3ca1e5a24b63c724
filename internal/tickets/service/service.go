package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	"eventx-ticketing/internal/tickets/qr"
	"eventx-ticketing/internal/utils"
)

type TicketDBLayer interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	SeatTaken(ctx context.Context, eventID string, seat int) (bool, error)
	BookSeat(ctx context.Context, ticket *models.Ticket) error
	GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error)
	GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error)
	ListTickets(ctx context.Context) ([]models.Ticket, error)
	BookedSeats(ctx context.Context, eventID string) ([]int, error)
	GetEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	MarkCheckedIn(ctx context.Context, ticketID string, at time.Time) (*models.Ticket, error)
}

type ProofGenerator interface {
	Generate(title string, seat int, userID string) (*qr.Proof, error)
	Verify(token string) (*qr.ProofClaims, error)
}

// SeatLocker is the optional fast-fail lock in front of the booking transaction.
type SeatLocker interface {
	Acquire(ctx context.Context, eventID string, seat int, owner string) (bool, error)
	Release(ctx context.Context, eventID string, seat int, owner string) error
}

type BookingPublisher interface {
	PublishTicketBooked(ctx context.Context, evt models.TicketBookedEvent) error
}

// DefaultPublishTimeout bounds the ticket.booked publish after a commit.
const DefaultPublishTimeout = 2 * time.Second

type TicketService struct {
	DB             TicketDBLayer
	Proofs         ProofGenerator
	Locks          SeatLocker
	Publisher      BookingPublisher
	PublishTimeout time.Duration
	Logger         *logger.Logger
	Now            func() time.Time
}

func NewTicketService(db TicketDBLayer, proofs ProofGenerator, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, Proofs: proofs, PublishTimeout: DefaultPublishTimeout, Logger: log, Now: time.Now}
}

func (s *TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Book issues a ticket for seat of eventID to userID. Checks run in order and
// the first failure wins: user, event, availability, seat range, seat taken.
// The decrement and the insert then commit together or not at all.
func (s *TicketService) Book(ctx context.Context, userID, eventID string, seat int) (*models.Ticket, error) {
	if !utils.ValidID(eventID) {
		return nil, apperror.InvalidInput("Invalid event id")
	}

	if _, err := s.DB.GetUser(ctx, userID); err != nil {
		return nil, classify(err, "Failed to load user")
	}

	event, err := s.DB.GetEvent(ctx, eventID)
	if err != nil {
		return nil, classify(err, "Failed to load event")
	}

	if event.AvailableSeats <= 0 {
		return nil, apperror.Exhausted(eventID)
	}

	if seat < 1 || seat > event.Seats {
		return nil, apperror.InvalidInput("Seat number must be between 1 and %d", event.Seats)
	}

	taken, err := s.DB.SeatTaken(ctx, eventID, seat)
	if err != nil {
		return nil, apperror.Fatal("Failed to check seat", err)
	}
	if taken {
		return nil, apperror.SeatTaken(eventID, seat)
	}

	ticketID := utils.NewID()

	if s.Locks != nil {
		locked, err := s.Locks.Acquire(ctx, eventID, seat, ticketID)
		switch {
		case err != nil:
			// The transaction below still guarantees uniqueness.
			s.warn("REDIS", fmt.Sprintf("Seat lock unavailable, continuing without it: %v", err))
		case !locked:
			return nil, apperror.SeatTaken(eventID, seat)
		default:
			defer func() {
				if err := s.Locks.Release(context.WithoutCancel(ctx), eventID, seat, ticketID); err != nil {
					s.warn("REDIS", fmt.Sprintf("Failed to release seat lock: %v", err))
				}
			}()
		}
	}

	proof, err := s.Proofs.Generate(event.Title, seat, userID)
	if err != nil {
		return nil, apperror.Fatal("Failed to generate ticket proof", err)
	}

	ticket := &models.Ticket{
		ID:         ticketID,
		UserID:     userID,
		EventID:    eventID,
		SeatNumber: seat,
		QRCode:     proof.DataURL,
		CreatedAt:  s.now(),
	}

	if err := s.DB.BookSeat(ctx, ticket); err != nil {
		if s.Logger != nil {
			s.Logger.LogBooking("REJECTED", eventID, seat, err.Error())
		}
		return nil, classify(err, "Failed to book ticket")
	}

	if s.Logger != nil {
		s.Logger.LogBooking("BOOKED", eventID, seat, fmt.Sprintf("ticket %s for user %s", ticket.ID, userID))
	}

	s.publishBooked(ctx, ticket)
	return ticket, nil
}

// publishBooked announces a committed booking. The ticket is already sold, so a
// slow or failing broker only costs a warning and at most PublishTimeout.
func (s *TicketService) publishBooked(ctx context.Context, ticket *models.Ticket) {
	if s.Publisher == nil {
		return
	}
	timeout := s.PublishTimeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.Publisher.PublishTicketBooked(pubCtx, models.NewTicketBookedEvent(*ticket)); err != nil {
		s.warn("KAFKA", fmt.Sprintf("Failed to publish booking %s: %v", ticket.ID, err))
	}
}

// TicketsForUser returns the user's tickets joined to their events, newest first.
func (s *TicketService) TicketsForUser(ctx context.Context, userID string) ([]models.TicketView, error) {
	tickets, err := s.DB.GetTicketsByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch tickets", err)
	}
	return s.attach(ctx, tickets, false)
}

// AllTickets returns every ticket with its event and holder summary.
func (s *TicketService) AllTickets(ctx context.Context) ([]models.TicketView, error) {
	tickets, err := s.DB.ListTickets(ctx)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch tickets", err)
	}
	return s.attach(ctx, tickets, true)
}

// BookedSeats lists the taken seat numbers, ascending. Unknown events have none.
func (s *TicketService) BookedSeats(ctx context.Context, eventID string) ([]int, error) {
	if !utils.ValidID(eventID) {
		return []int{}, nil
	}
	event, err := s.DB.GetEvent(ctx, eventID)
	if errors.Is(err, apperror.ErrNotFound) {
		return []int{}, nil
	}
	if err != nil {
		return nil, apperror.Fatal("Failed to load event", err)
	}
	if !event.HasDisplayFields() {
		return []int{}, nil
	}

	seats, err := s.DB.BookedSeats(ctx, eventID)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch booked seats", err)
	}
	return seats, nil
}

// Checkin marks a ticket as used at the door.
func (s *TicketService) Checkin(ctx context.Context, ticketID string) (*models.Ticket, error) {
	if !utils.ValidID(ticketID) {
		return nil, apperror.InvalidInput("Invalid ticket id")
	}
	ticket, err := s.DB.MarkCheckedIn(ctx, ticketID, s.now())
	if err != nil {
		return nil, classify(err, "Failed to check in ticket")
	}
	if s.Logger != nil {
		s.Logger.LogBooking("CHECKIN", ticket.EventID, ticket.SeatNumber, ticket.ID)
	}
	return ticket, nil
}

// VerifyProof checks a scanned proof token.
func (s *TicketService) VerifyProof(_ context.Context, token string) (*models.VerifyTicketResponse, error) {
	if token == "" {
		return nil, apperror.InvalidInput("Proof is required")
	}
	claims, err := s.Proofs.Verify(token)
	if err != nil {
		return nil, apperror.InvalidInput("Invalid ticket proof")
	}
	return &models.VerifyTicketResponse{
		Valid:      true,
		Title:      claims.Title,
		SeatNumber: claims.Seat,
		UserID:     claims.UserID(),
	}, nil
}

// attach joins tickets to their events in memory. Tickets whose event is gone
// or lacks a title or date are dropped.
func (s *TicketService) attach(ctx context.Context, tickets []models.Ticket, withUsers bool) ([]models.TicketView, error) {
	views := []models.TicketView{}
	if len(tickets) == 0 {
		return views, nil
	}

	eventIDs := make([]string, 0, len(tickets))
	userIDs := make([]string, 0, len(tickets))
	seenEvent := map[string]bool{}
	seenUser := map[string]bool{}
	for _, t := range tickets {
		if !seenEvent[t.EventID] {
			seenEvent[t.EventID] = true
			eventIDs = append(eventIDs, t.EventID)
		}
		if !seenUser[t.UserID] {
			seenUser[t.UserID] = true
			userIDs = append(userIDs, t.UserID)
		}
	}

	events, err := s.DB.GetEventsByIDs(ctx, eventIDs)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch events", err)
	}
	eventMap := make(map[string]*models.Event, len(events))
	for i := range events {
		eventMap[events[i].ID] = &events[i]
	}

	var userMap map[string]*models.User
	if withUsers {
		users, err := s.DB.GetUsersByIDs(ctx, userIDs)
		if err != nil {
			return nil, apperror.Fatal("Failed to fetch users", err)
		}
		userMap = make(map[string]*models.User, len(users))
		for i := range users {
			userMap[users[i].ID] = &users[i]
		}
	}

	for _, t := range tickets {
		event, ok := eventMap[t.EventID]
		if !ok || !event.HasDisplayFields() {
			continue
		}
		view := models.TicketView{Ticket: t, Event: event.Summary()}
		if u, ok := userMap[t.UserID]; ok {
			view.User = u.Summary()
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *TicketService) warn(category, message string) {
	if s.Logger != nil {
		s.Logger.Warn(category, message)
	}
}

// classify keeps app errors as they are and wraps anything else as fatal.
func classify(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Fatal(message, err)
}

package db

import (
	"context"
	"fmt"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/database"
	"eventx-ticketing/internal/models"

	"github.com/uptrace/bun"
)

// DB is the ticket ledger. It also reads the user and event rows the booking
// checks depend on, and owns the transaction that binds a seat.
type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", userID).
		Limit(1).
		Scan(ctx)
	if database.IsNoRows(err) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return &user, nil
}

func (d *DB) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if database.IsNoRows(err) {
		return nil, apperror.NotFound("event")
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return &event, nil
}

// SeatTaken reports whether a ticket already binds (eventID, seat).
func (d *DB) SeatTaken(ctx context.Context, eventID string, seat int) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Where("seat_number = ?", seat).
		Exists(ctx)
}

// BookSeat decrements the event's available seats and writes the ticket in one
// transaction. Losing the decrement race yields Exhausted, or NotFound when the
// event was deleted meanwhile. Losing the insert race (unique event_id,
// seat_number) yields SeatTaken. Either way nothing is committed.
func (d *DB) BookSeat(ctx context.Context, ticket *models.Ticket) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Event)(nil)).
			Set("available_seats = available_seats - 1").
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", ticket.EventID).
			Where("available_seats > 0").
			Exec(ctx)
		if err != nil {
			return apperror.Fatal("Failed to reserve seat", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperror.Fatal("Failed to reserve seat", err)
		}
		if n == 0 {
			exists, err := tx.NewSelect().
				Model((*models.Event)(nil)).
				Where("id = ?", ticket.EventID).
				Exists(ctx)
			if err != nil {
				return apperror.Fatal("Failed to reserve seat", err)
			}
			if !exists {
				return apperror.NotFound("event")
			}
			return apperror.Exhausted(ticket.EventID)
		}

		if _, err := tx.NewInsert().Model(ticket).Exec(ctx); err != nil {
			if database.IsUniqueViolation(err) {
				return apperror.SeatTaken(ticket.EventID, ticket.SeatNumber)
			}
			return apperror.Fatal("Failed to save ticket", err)
		}
		return nil
	})
}

func (d *DB) GetTicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if database.IsNoRows(err) {
		return nil, apperror.NotFound("ticket")
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", ticketID, err)
	}
	return &ticket, nil
}

func (d *DB) GetTicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id ASC").
		Scan(ctx)
	return tickets, err
}

func (d *DB) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Order("created_at DESC", "id ASC").
		Scan(ctx)
	return tickets, err
}

// BookedSeats returns the seat numbers bound for an event in ascending order.
func (d *DB) BookedSeats(ctx context.Context, eventID string) ([]int, error) {
	seats := []int{}
	err := d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Column("seat_number").
		Where("event_id = ?", eventID).
		Order("seat_number ASC").
		Scan(ctx, &seats)
	if seats == nil {
		seats = []int{}
	}
	return seats, err
}

func (d *DB) GetEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	return events, err
}

func (d *DB) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	return users, err
}

// MarkCheckedIn flips checked_in once. A second call reports Conflict.
func (d *DB) MarkCheckedIn(ctx context.Context, ticketID string, at time.Time) (*models.Ticket, error) {
	res, err := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("checked_in = ?", true).
		Set("checked_in_at = ?", at).
		Where("id = ?", ticketID).
		Where("checked_in = ?", false).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("check in ticket %s: %w", ticketID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check in ticket %s: %w", ticketID, err)
	}

	ticket, err := d.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperror.Conflict("Ticket already checked in")
	}
	return ticket, nil
}

// CountByEvent is the number of tickets bound to an event. It takes a bun.IDB
// so callers can count inside their own transaction.
func CountByEvent(ctx context.Context, idb bun.IDB, eventID string) (int, error) {
	return idb.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}

// DeleteByEvent removes every ticket of an event. Safe to repeat.
func (d *DB) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete tickets for event %s: %w", eventID, err)
	}
	return res.RowsAffected()
}

// ReconcileOrphans deletes tickets whose event row no longer exists.
func (d *DB) ReconcileOrphans(ctx context.Context) (int64, error) {
	existing := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Column("id")
	res, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("event_id NOT IN (?)", existing).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile orphan tickets: %w", err)
	}
	return res.RowsAffected()
}

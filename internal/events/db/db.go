package db

import (
	"context"
	"fmt"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/database"
	"eventx-ticketing/internal/models"
	ticketdb "eventx-ticketing/internal/tickets/db"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type DB struct {
	Bun *bun.DB
}

// ListEvents returns every event, soonest first.
func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := d.Bun.NewSelect().
		Model(&events).
		Order("date ASC", "id ASC").
		Scan(ctx)
	return events, err
}

func (d *DB) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if database.IsNoRows(err) {
		return nil, apperror.NotFound("event")
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &event, nil
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// UpdateEvent writes the editable fields and recomputes available_seats from
// the tickets actually issued. The event row is locked first so no booking can
// commit between the count and the write.
func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().
			Model((*models.Event)(nil)).
			Column("id").
			Where("id = ?", event.ID)
		if d.Bun.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE")
		}
		var id string
		if err := q.Scan(ctx, &id); err != nil {
			if database.IsNoRows(err) {
				return apperror.NotFound("event")
			}
			return fmt.Errorf("lock event %s: %w", event.ID, err)
		}

		booked, err := ticketdb.CountByEvent(ctx, tx, event.ID)
		if err != nil {
			return fmt.Errorf("count tickets for %s: %w", event.ID, err)
		}
		if event.Seats < booked {
			return apperror.InvalidInput("Seats cannot be lower than the %d tickets already booked", booked)
		}

		event.AvailableSeats = event.Seats - booked
		event.UpdatedAt = time.Now().UTC()
		_, err = tx.NewUpdate().
			Model(event).
			Column("title", "description", "date", "venue", "price", "image", "seats", "available_seats", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update event %s: %w", event.ID, err)
		}
		return nil
	})
}

// DeleteEvent removes the event row only. Tickets are reconciled separately.
func (d *DB) DeleteEvent(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("event")
	}
	return nil
}

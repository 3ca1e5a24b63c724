package analytics

import (
	"context"

	"eventx-ticketing/internal/models"

	"github.com/uptrace/bun"
)

// DB handles analytics database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new analytics DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// MostBooked counts tickets per event, joined to the event's display fields.
// Ticket groups whose event row is gone drop out of the inner join.
func (db *DB) MostBooked(ctx context.Context, limit int) ([]models.MostBookedEvent, error) {
	rows := []models.MostBookedEvent{}
	err := db.bun.NewRaw(`
		SELECT
			t.event_id,
			e.title,
			COUNT(*) AS booking_count,
			e.date,
			e.venue,
			e.price,
			e.image
		FROM
			tickets t
		JOIN
			events e ON e.id = t.event_id
		GROUP BY
			t.event_id, e.title, e.date, e.venue, e.price, e.image
		ORDER BY
			booking_count DESC, t.event_id ASC
		LIMIT ?`, limit).
		Scan(ctx, &rows)
	return rows, err
}

// ListEvents returns every event for the notification pass.
func (db *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	events := []models.Event{}
	err := db.bun.NewSelect().
		Model(&events).
		Order("date ASC", "id ASC").
		Scan(ctx)
	return events, err
}

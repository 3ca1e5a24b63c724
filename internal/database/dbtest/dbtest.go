// Package dbtest provides an in-memory SQLite database with the service schema for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eventx-ticketing/internal/database"
	"eventx-ticketing/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewSQLite opens a fresh in-memory database and creates the schema.
func NewSQLite(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err, "Failed to connect to in-memory database")
	// One connection: every :memory: connection is its own database.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetConnMaxLifetime(0)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, database.CreateSchema(context.Background(), bunDB))

	t.Cleanup(func() { bunDB.Close() })
	return bunDB
}

func InsertUser(t *testing.T, db bun.IDB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     uuid.NewString() + "@example.com",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

// InsertEvent stores an event with seats capacity, all of them available.
func InsertEvent(t *testing.T, db bun.IDB, title string, date time.Time, seats int) *models.Event {
	t.Helper()
	now := time.Now().UTC()
	event := &models.Event{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    title + " description",
		Date:           date.UTC(),
		Venue:          "Main Hall",
		Price:          25,
		Seats:          seats,
		AvailableSeats: seats,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := db.NewInsert().Model(event).Exec(context.Background())
	require.NoError(t, err)
	return event
}

func InsertTicket(t *testing.T, db bun.IDB, userID, eventID string, seat int, createdAt time.Time) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		ID:         uuid.NewString(),
		UserID:     userID,
		EventID:    eventID,
		SeatNumber: seat,
		QRCode:     "data:image/png;base64,",
		CreatedAt:  createdAt.UTC(),
	}
	_, err := db.NewInsert().Model(ticket).Exec(context.Background())
	require.NoError(t, err)
	return ticket
}

func GetEvent(t *testing.T, db bun.IDB, id string) *models.Event {
	t.Helper()
	var event models.Event
	require.NoError(t, db.NewSelect().Model(&event).Where("id = ?", id).Scan(context.Background()))
	return &event
}

func CountTickets(t *testing.T, db bun.IDB, eventID string) int {
	t.Helper()
	n, err := db.NewSelect().Model((*models.Ticket)(nil)).Where("event_id = ?", eventID).Count(context.Background())
	require.NoError(t, err)
	return n
}

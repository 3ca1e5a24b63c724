package events_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/database/dbtest"
	eventdb "eventx-ticketing/internal/events/db"
	events "eventx-ticketing/internal/events/service"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	ticketdb "eventx-ticketing/internal/tickets/db"
	"eventx-ticketing/internal/tickets/qr"
	tickets "eventx-ticketing/internal/tickets/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCleaner struct {
	mock.Mock
}

func (m *MockCleaner) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	args := m.Called(eventID)
	return args.Get(0).(int64), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishEventDeleted(ctx context.Context, evt models.EventDeletedEvent) error {
	return m.Called(evt.EventID).Error(0)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestCreateEvent(t *testing.T) {
	bunDB := dbtest.NewSQLite(t)
	svc := events.NewEventService(&eventdb.DB{Bun: bunDB}, nil, nil, logger.NewWithWriter(io.Discard))
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, models.CreateEventRequest{
		Title:       "Jazz Night",
		Description: "Late set",
		Date:        time.Now().Add(48 * time.Hour),
		Venue:       "Main Hall",
		Price:       30,
		Seats:       100,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, event.AvailableSeats)
	assert.Equal(t, 100, dbtest.GetEvent(t, bunDB, event.ID).AvailableSeats)

	_, err = svc.CreateEvent(ctx, models.CreateEventRequest{
		Title: "Past", Description: "x", Date: time.Now().Add(-time.Hour), Venue: "v", Seats: 10,
	})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))

	_, err = svc.CreateEvent(ctx, models.CreateEventRequest{
		Title: "No seats", Description: "x", Date: time.Now().Add(time.Hour), Venue: "v", Seats: 0,
	})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestUpdateEvent(t *testing.T) {
	bunDB := dbtest.NewSQLite(t)
	svc := events.NewEventService(&eventdb.DB{Bun: bunDB}, nil, nil, logger.NewWithWriter(io.Discard))
	ctx := context.Background()

	event := dbtest.InsertEvent(t, bunDB, "Jazz Night", time.Now().Add(48*time.Hour), 10)
	dbtest.InsertTicket(t, bunDB, "u1", event.ID, 1, time.Now())

	updated, err := svc.UpdateEvent(ctx, event.ID, models.UpdateEventRequest{Title: strPtr("Blues Night"), Seats: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "Blues Night", updated.Title)
	assert.Equal(t, 3, updated.AvailableSeats)

	_, err = svc.UpdateEvent(ctx, uuid.NewString(), models.UpdateEventRequest{Title: strPtr("x")})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestDeleteEventCascade(t *testing.T) {
	bunDB := dbtest.NewSQLite(t)
	tdb := &ticketdb.DB{Bun: bunDB}
	publisher := new(MockPublisher)
	svc := events.NewEventService(&eventdb.DB{Bun: bunDB}, tdb, publisher, logger.NewWithWriter(io.Discard))
	ctx := context.Background()

	event := dbtest.InsertEvent(t, bunDB, "Jazz Night", time.Now().Add(48*time.Hour), 10)
	dbtest.InsertTicket(t, bunDB, "u1", event.ID, 1, time.Now())
	dbtest.InsertTicket(t, bunDB, "u2", event.ID, 2, time.Now())
	publisher.On("PublishEventDeleted", event.ID).Return(nil)

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))

	assert.Equal(t, 0, dbtest.CountTickets(t, bunDB, event.ID))
	publisher.AssertExpectations(t)

	err := svc.DeleteEvent(ctx, event.ID)
	assert.ErrorIs(t, err, apperror.NotFound("event"))
}

func TestDeleteEventCleanupFailureIsIsolated(t *testing.T) {
	bunDB := dbtest.NewSQLite(t)
	cleaner := new(MockCleaner)
	publisher := new(MockPublisher)
	var logs bytes.Buffer
	svc := events.NewEventService(&eventdb.DB{Bun: bunDB}, cleaner, publisher, logger.NewWithWriter(&logs))
	ctx := context.Background()

	user := dbtest.InsertUser(t, bunDB, "Ada", models.RoleUser)
	event := dbtest.InsertEvent(t, bunDB, "Jazz Night", time.Now().Add(48*time.Hour), 10)
	dbtest.InsertTicket(t, bunDB, user.ID, event.ID, 1, time.Now())

	cleaner.On("DeleteByEvent", event.ID).Return(int64(0), errors.New("tickets table locked"))
	publisher.On("PublishEventDeleted", event.ID).Return(errors.New("broker down"))

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))

	_, err := svc.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, apperror.NotFound("event"))
	assert.Contains(t, logs.String(), "tickets table locked")

	// The orphaned ticket still exists but is filtered from every read path.
	assert.Equal(t, 1, dbtest.CountTickets(t, bunDB, event.ID))
	ticketSvc := tickets.NewTicketService(&ticketdb.DB{Bun: bunDB}, qr.NewQRGenerator("s", 64), logger.NewWithWriter(io.Discard))
	views, err := ticketSvc.TicketsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, views)
	seats, err := ticketSvc.BookedSeats(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, seats)

	// The orphan sweep finishes the job.
	n, err := (&ticketdb.DB{Bun: bunDB}).ReconcileOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDeleteEventCleanupPanicIsContained(t *testing.T) {
	bunDB := dbtest.NewSQLite(t)
	cleaner := new(MockCleaner)
	svc := events.NewEventService(&eventdb.DB{Bun: bunDB}, cleaner, nil, logger.NewWithWriter(io.Discard))

	event := dbtest.InsertEvent(t, bunDB, "Jazz Night", time.Now().Add(48*time.Hour), 10)
	cleaner.On("DeleteByEvent", event.ID).Run(func(mock.Arguments) { panic("boom") })

	assert.NoError(t, svc.DeleteEvent(context.Background(), event.ID))
}

func TestGetEventMalformedID(t *testing.T) {
	svc := events.NewEventService(&eventdb.DB{Bun: dbtest.NewSQLite(t)}, nil, nil, logger.NewWithWriter(io.Discard))
	_, err := svc.GetEvent(context.Background(), "42")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

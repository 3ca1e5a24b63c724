package users_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/database/dbtest"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	userdb "eventx-ticketing/internal/users/db"
	users "eventx-ticketing/internal/users/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newService(t *testing.T) (*users.UserService, *bun.DB) {
	bunDB := dbtest.NewSQLite(t)
	return users.NewUserService(&userdb.DB{Bun: bunDB}, logger.NewWithWriter(io.Discard)), bunDB
}

func TestProfile(t *testing.T) {
	svc, _ := newService(t)
	assert.Equal(t, map[string]string{"message": "Welcome u-1, Role: Admin"}, svc.Profile("u-1", models.RoleAdmin))
}

func TestAddFavorite(t *testing.T) {
	svc, bunDB := newService(t)
	ctx := context.Background()

	user := dbtest.InsertUser(t, bunDB, "Ada", models.RoleUser)
	event := dbtest.InsertEvent(t, bunDB, "Jazz Night", time.Now().Add(48*time.Hour), 10)

	res, err := svc.AddFavorite(ctx, user.ID, models.FavoriteRequest{EventID: event.ID})
	require.NoError(t, err)
	assert.Equal(t, "Added to favorites", res.Message)
	assert.Equal(t, []string{event.ID}, res.Favorites)

	_, err = svc.AddFavorite(ctx, user.ID, models.FavoriteRequest{EventID: event.ID})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = svc.AddFavorite(ctx, uuid.NewString(), models.FavoriteRequest{EventID: event.ID})
	assert.ErrorIs(t, err, apperror.NotFound("user"))

	_, err = svc.AddFavorite(ctx, user.ID, models.FavoriteRequest{EventID: uuid.NewString()})
	assert.ErrorIs(t, err, apperror.NotFound("event"))

	_, err = svc.AddFavorite(ctx, user.ID, models.FavoriteRequest{EventID: "not-an-id"})
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestRemoveFavoriteIsIdempotent(t *testing.T) {
	svc, bunDB := newService(t)
	ctx := context.Background()

	user := dbtest.InsertUser(t, bunDB, "Ada", models.RoleUser)
	event := dbtest.InsertEvent(t, bunDB, "Jazz Night", time.Now().Add(48*time.Hour), 10)
	_, err := svc.AddFavorite(ctx, user.ID, models.FavoriteRequest{EventID: event.ID})
	require.NoError(t, err)

	res, err := svc.RemoveFavorite(ctx, user.ID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Removed from favorites", res.Message)
	assert.Empty(t, res.Favorites)

	res, err = svc.RemoveFavorite(ctx, user.ID, event.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Favorites)
}

func TestFavoritesSkipDeletedEvents(t *testing.T) {
	svc, bunDB := newService(t)
	ctx := context.Background()

	user := dbtest.InsertUser(t, bunDB, "Ada", models.RoleUser)
	kept := dbtest.InsertEvent(t, bunDB, "Kept", time.Now().Add(48*time.Hour), 10)
	gone := dbtest.InsertEvent(t, bunDB, "Gone", time.Now().Add(72*time.Hour), 10)

	for _, e := range []*models.Event{kept, gone} {
		_, err := svc.AddFavorite(ctx, user.ID, models.FavoriteRequest{EventID: e.ID})
		require.NoError(t, err)
	}

	_, err := bunDB.NewDelete().Model((*models.Event)(nil)).Where("id = ?", gone.ID).Exec(ctx)
	require.NoError(t, err)

	res, err := svc.Favorites(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, res.Favorites, 1)
	assert.Equal(t, kept.ID, res.Favorites[0].ID)

	_, err = svc.Favorites(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperror.NotFound("user"))
}

type MockUserDB struct {
	mock.Mock
}

func (m *MockUserDB) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserDB) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called()
	list, _ := args.Get(0).([]models.User)
	return list, args.Error(1)
}

func (m *MockUserDB) AddFavorite(ctx context.Context, fav *models.Favorite) error {
	return m.Called(fav.UserID, fav.EventID).Error(0)
}

func (m *MockUserDB) RemoveFavorite(ctx context.Context, userID, eventID string) error {
	return m.Called(userID, eventID).Error(0)
}

func (m *MockUserDB) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockUserDB) GetEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	args := m.Called(ids)
	list, _ := args.Get(0).([]models.Event)
	return list, args.Error(1)
}

func TestListUsersStoreFailureIsFatal(t *testing.T) {
	store := new(MockUserDB)
	store.On("ListUsers").Return(nil, errors.New("connection reset"))
	svc := users.NewUserService(store, logger.NewWithWriter(io.Discard))

	_, err := svc.ListUsers(context.Background())
	assert.Equal(t, apperror.KindFatal, apperror.KindOf(err))
	store.AssertExpectations(t)
}

package users

import (
	"context"
	"fmt"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	"eventx-ticketing/internal/utils"
)

type UserDBLayer interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	AddFavorite(ctx context.Context, fav *models.Favorite) error
	RemoveFavorite(ctx context.Context, userID, eventID string) error
	ListFavoriteIDs(ctx context.Context, userID string) ([]string, error)
	GetEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error)
}

type UserService struct {
	DB     UserDBLayer
	Logger *logger.Logger
	Now    func() time.Time
}

func NewUserService(db UserDBLayer, log *logger.Logger) *UserService {
	return &UserService{DB: db, Logger: log, Now: time.Now}
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Profile greets the caller with the identity carried by their token.
func (s *UserService) Profile(userID, role string) map[string]string {
	return map[string]string{"message": fmt.Sprintf("Welcome %s, Role: %s", userID, role)}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.DB.ListUsers(ctx)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch users", err)
	}
	return users, nil
}

func (s *UserService) AddFavorite(ctx context.Context, userID string, req models.FavoriteRequest) (*models.FavoritesResponse, error) {
	if !utils.ValidID(req.EventID) {
		return nil, apperror.InvalidInput("Invalid event ID")
	}
	if _, err := s.DB.GetUser(ctx, userID); err != nil {
		return nil, keep(err, "Failed to fetch user")
	}
	found, err := s.DB.GetEventsByIDs(ctx, []string{req.EventID})
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch event", err)
	}
	if len(found) == 0 {
		return nil, apperror.NotFound("event")
	}

	fav := &models.Favorite{UserID: userID, EventID: req.EventID, CreatedAt: s.now()}
	if err := s.DB.AddFavorite(ctx, fav); err != nil {
		return nil, keep(err, "Failed to add favorite")
	}
	return s.favoriteIDs(ctx, userID, "Added to favorites")
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, eventID string) (*models.FavoritesResponse, error) {
	if !utils.ValidID(eventID) {
		return nil, apperror.InvalidInput("Invalid event ID")
	}
	if _, err := s.DB.GetUser(ctx, userID); err != nil {
		return nil, keep(err, "Failed to fetch user")
	}
	if err := s.DB.RemoveFavorite(ctx, userID, eventID); err != nil {
		return nil, apperror.Fatal("Failed to remove favorite", err)
	}
	return s.favoriteIDs(ctx, userID, "Removed from favorites")
}

// Favorites resolves the starred events. Events deleted since they were
// starred are skipped.
func (s *UserService) Favorites(ctx context.Context, userID string) (*models.FavoriteEventsResponse, error) {
	if _, err := s.DB.GetUser(ctx, userID); err != nil {
		return nil, keep(err, "Failed to fetch user")
	}
	ids, err := s.DB.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch favorites", err)
	}
	events, err := s.DB.GetEventsByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch favorite events", err)
	}

	byID := make(map[string]models.Event, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}
	out := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return &models.FavoriteEventsResponse{Favorites: out}, nil
}

func (s *UserService) favoriteIDs(ctx context.Context, userID, message string) (*models.FavoritesResponse, error) {
	ids, err := s.DB.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return nil, apperror.Fatal("Failed to fetch favorites", err)
	}
	s.Logger.Debug("FAVORITES", fmt.Sprintf("%s: user %s now has %d favorites", message, userID, len(ids)))
	return &models.FavoritesResponse{Message: message, Favorites: ids}, nil
}

func keep(err error, message string) error {
	if apperror.KindOf(err) != apperror.KindFatal {
		return err
	}
	return apperror.Fatal(message, err)
}

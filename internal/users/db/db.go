package db

import (
	"context"
	"fmt"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/database"
	"eventx-ticketing/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if database.IsNoRows(err) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &user, nil
}

func (d *DB) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if database.IsNoRows(err) {
		return nil, apperror.NotFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return apperror.Conflict("User with email %s already exists", user.Email)
	}
	return err
}

// ListUsers returns every user, oldest account first.
func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	return users, err
}

// AddFavorite stars an event for a user. The composite key rejects duplicates.
func (d *DB) AddFavorite(ctx context.Context, fav *models.Favorite) error {
	_, err := d.Bun.NewInsert().Model(fav).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return apperror.Conflict("Event already in favorites")
	}
	if err != nil {
		return fmt.Errorf("add favorite %s/%s: %w", fav.UserID, fav.EventID, err)
	}
	return nil
}

// RemoveFavorite is a no-op when the pair is not stored.
func (d *DB) RemoveFavorite(ctx context.Context, userID, eventID string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Favorite)(nil)).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("remove favorite %s/%s: %w", userID, eventID, err)
	}
	return nil
}

// ListFavoriteIDs returns the starred event ids in the order they were added.
func (d *DB) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := d.Bun.NewSelect().
		Model((*models.Favorite)(nil)).
		Column("event_id").
		Where("user_id = ?", userID).
		Order("created_at ASC", "event_id ASC").
		Scan(ctx, &ids)
	return ids, err
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

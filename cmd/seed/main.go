// Command seed creates the admin and test accounts plus a sample event, then
// prints bearer tokens for both accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/auth"
	"eventx-ticketing/internal/config"
	"eventx-ticketing/internal/database"
	eventdb "eventx-ticketing/internal/events/db"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	userdb "eventx-ticketing/internal/users/db"
	"eventx-ticketing/internal/utils"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

type account struct {
	Name  string
	Email string
	Role  string
}

var accounts = []account{
	{Name: "Admin User", Email: "admin@eventx.com", Role: models.RoleAdmin},
	{Name: "Test User", Email: "user@eventx.com", Role: models.RoleUser},
}

// seedUsers returns the seeded accounts, creating the missing ones.
func seedUsers(ctx context.Context, users *userdb.DB, now time.Time, log *logger.Logger) ([]*models.User, error) {
	out := make([]*models.User, 0, len(accounts))
	for _, a := range accounts {
		existing, err := users.FindByEmail(ctx, a.Email)
		if err == nil {
			log.Info("SEED", fmt.Sprintf("%s already exists", a.Email))
			out = append(out, existing)
			continue
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}

		user := &models.User{ID: utils.NewID(), Name: a.Name, Email: a.Email, Role: a.Role, CreatedAt: now}
		if err := users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("create %s: %w", a.Email, err)
		}
		log.Info("SEED", fmt.Sprintf("Created %s (%s)", a.Email, a.Role))
		out = append(out, user)
	}
	return out, nil
}

// seedEvent adds one sample event when the catalog is empty.
func seedEvent(ctx context.Context, events *eventdb.DB, now time.Time, log *logger.Logger) (*models.Event, error) {
	list, err := events.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		log.Info("SEED", fmt.Sprintf("Catalog already has %d events", len(list)))
		return nil, nil
	}

	event := &models.Event{
		ID:             utils.NewID(),
		Title:          "Sample Concert",
		Description:    "An evening of live music",
		Date:           now.Add(7 * 24 * time.Hour),
		Venue:          "City Hall",
		Price:          49.99,
		Seats:          100,
		AvailableSeats: 100,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	log.Info("SEED", fmt.Sprintf("Created sample event %s", event.ID))
	return event, nil
}

func run(ctx context.Context, bunDB *bun.DB, cfg *config.Config, log *logger.Logger) error {
	now := time.Now().UTC()

	users, err := seedUsers(ctx, &userdb.DB{Bun: bunDB}, now, log)
	if err != nil {
		return err
	}
	if _, err := seedEvent(ctx, &eventdb.DB{Bun: bunDB}, now, log); err != nil {
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		log.Warn("SEED", "JWT_SECRET not set, skipping token output")
		return nil
	}
	for _, u := range users {
		tok, err := auth.IssueToken(cfg.Auth.JWTSecret, u.ID, u.Role, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		color.New(color.FgGreen, color.Bold).Printf("%s (%s)\n", u.Email, u.Role)
		fmt.Printf("Bearer %s\n\n", tok)
	}
	return nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewLogger("", cfg.Log.Service+"-seed")
	defer log.Close()

	ctx := context.Background()
	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.Driver != database.DriverPostgres {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("DATABASE", err.Error())
		}
	}

	if err := run(ctx, bunDB, cfg, log); err != nil {
		log.Fatal("SEED", err.Error())
	}
	log.Info("SEED", "Seeding complete")
}

// Package database opens the bun handle for the configured driver and owns the schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventx-ticketing/internal/config"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	maxConnectAttempts = 5
)

// Open connects to the configured database, retrying the first ping a few times
// so the service can start alongside its database container.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		sqldb, err := connect(ctx, "postgres", cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
		sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
		return bun.NewDB(sqldb, pgdialect.New()), nil
	case DriverSQLite:
		sqldb, err := connect(ctx, sqliteshim.ShimName, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		// A single connection keeps :memory: databases shared and serializes writers.
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func connect(ctx context.Context, driverName, dsn string, log *logger.Logger) (*sql.DB, error) {
	var lastErr error
	for i := 0; i < maxConnectAttempts; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to %s (attempt %d/%d)", driverName, i+1, maxConnectAttempts))
		sqldb, err := sql.Open(driverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driverName, err)
		}
		if lastErr = sqldb.PingContext(ctx); lastErr == nil {
			log.Info("DATABASE", fmt.Sprintf("%s connection successful", driverName))
			return sqldb, nil
		}
		sqldb.Close()
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to %s: %v", driverName, lastErr))
		if i < maxConnectAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}
	}
	return nil, fmt.Errorf("connect %s after %d attempts: %w", driverName, maxConnectAttempts, lastErr)
}

// CreateSchema creates tables and indexes from the models. Used for sqlite and
// in tests; postgres deployments run the SQL migrations instead.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Event)(nil),
		(*models.Ticket)(nil),
		(*models.Favorite)(nil),
	}
	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	_, err := db.NewCreateIndex().
		Model((*models.Ticket)(nil)).
		Index("tickets_event_seat_uidx").
		Unique().
		IfNotExists().
		Column("event_id", "seat_number").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create seat uniqueness index: %w", err)
	}

	_, err = db.NewCreateIndex().
		Model((*models.Ticket)(nil)).
		Index("tickets_user_idx").
		IfNotExists().
		Column("user_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create ticket user index: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a unique constraint on either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNoRows reports whether err is the driver's empty result error.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

package redis

import (
	"context"
	"fmt"
	"time"

	"eventx-ticketing/internal/logger"

	"github.com/go-redis/redis/v8"
)

const defaultLockTTL = 10 * time.Second

// releaseScript deletes the key only while it still holds the caller's owner
// token, so a lock that expired and was taken by another booking survives.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SeatLock is a short-lived advisory lock per (event, seat). It only lets a
// concurrent attempt on the same seat fail fast; the database transaction
// remains the source of truth.
type SeatLock struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewSeatLock(client *redis.Client, ttl time.Duration, log *logger.Logger) *SeatLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SeatLock{Client: client, TTL: ttl, Logger: log}
}

func seatKey(eventID string, seat int) string {
	return fmt.Sprintf("seat_lock:%s:%d", eventID, seat)
}

// Acquire takes the lock for owner. It returns false when another owner holds it.
func (r *SeatLock) Acquire(ctx context.Context, eventID string, seat int, owner string) (bool, error) {
	ok, err := r.Client.SetNX(ctx, seatKey(eventID, seat), owner, r.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire seat lock: %w", err)
	}
	if !ok && r.Logger != nil {
		r.Logger.Debug("REDIS", fmt.Sprintf("Seat lock held for event %s seat %d", eventID, seat))
	}
	return ok, nil
}

// Release drops the lock only if owner still holds it.
func (r *SeatLock) Release(ctx context.Context, eventID string, seat int, owner string) error {
	if err := releaseScript.Run(ctx, r.Client, []string{seatKey(eventID, seat)}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release seat lock: %w", err)
	}
	return nil
}

// Ping backs the health check.
func (r *SeatLock) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

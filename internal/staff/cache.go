package staff

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dermaline/clinic-platform/pkg/logging"
)

const directoryCacheKey = "staff:booking_capable"

// DirectorySource produces a directory snapshot.
type DirectorySource interface {
	BookingCapableNames(ctx context.Context) ([]string, error)
}

// CachedDirectory serves the booking-capable directory from Redis with a TTL,
// falling back to Postgres on miss. A cache failure never fails the lookup,
// it just costs a database round trip.
type CachedDirectory struct {
	source DirectorySource
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedDirectory wraps source with a Redis snapshot cache. A nil client
// disables caching.
func NewCachedDirectory(source DirectorySource, client *redis.Client, ttl time.Duration, logger *logging.Logger) *CachedDirectory {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDirectory{source: source, client: client, ttl: ttl, logger: logger}
}

// BookingCapableNames returns the cached snapshot, loading and storing it on
// a miss.
func (d *CachedDirectory) BookingCapableNames(ctx context.Context) ([]string, error) {
	if d.client != nil {
		raw, err := d.client.Get(ctx, directoryCacheKey).Result()
		if err == nil {
			var names []string
			if err := json.Unmarshal([]byte(raw), &names); err == nil {
				return names, nil
			}
			d.logger.Warn("staff: corrupt directory cache entry, reloading")
		} else if err != redis.Nil {
			d.logger.Warn("staff: directory cache read failed", "error", err)
		}
	}

	names, err := d.source.BookingCapableNames(ctx)
	if err != nil {
		return nil, err
	}

	if d.client != nil {
		if encoded, err := json.Marshal(names); err == nil {
			if err := d.client.Set(ctx, directoryCacheKey, encoded, d.ttl).Err(); err != nil {
				d.logger.Warn("staff: directory cache write failed", "error", err)
			}
		}
	}
	return names, nil
}

// Invalidate drops the cached snapshot, forcing the next read to hit Postgres.
func (d *CachedDirectory) Invalidate(ctx context.Context) {
	if d.client == nil {
		return
	}
	if err := d.client.Del(ctx, directoryCacheKey).Err(); err != nil {
		d.logger.Warn("staff: directory cache invalidate failed", "error", err)
	}
}

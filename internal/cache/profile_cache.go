package cache

import (
	"context"
	"encoding/json"
	"time"

	"friendship/backend/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Resolver is the subset of the user client the cache decorates.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (*models.UserProfile, error)
}

// ProfileTTL is how long a resolved profile stays cached.
const ProfileTTL = 5 * time.Minute

// CachingResolver caches resolved user profiles in redis in front of the
// user service. Cache errors fall through to the underlying resolver, so a
// missing or unhealthy redis never fails an operation.
type CachingResolver struct {
	rdb  *redis.Client
	next Resolver
}

// NewCachingResolver wraps next with a redis-backed profile cache.
func NewCachingResolver(rdb *redis.Client, next Resolver) *CachingResolver {
	return &CachingResolver{rdb: rdb, next: next}
}

// Connect creates a redis client and verifies the connection. Returns nil if
// the address is empty or redis is unreachable, in which case callers skip
// caching entirely.
func Connect(addr, password string) *redis.Client {
	if addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logrus.WithError(err).Warn("redis unavailable, profile caching disabled")
		rdb.Close()
		return nil
	}

	logrus.WithField("addr", addr).Info("redis connected")
	return rdb
}

func profileKey(userID string) string {
	return "profile:" + userID
}

// Resolve returns the cached profile when present, otherwise resolves through
// the underlying client and stores the result.
func (c *CachingResolver) Resolve(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := profileKey(userID)

	val, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var profile models.UserProfile
		if err := json.Unmarshal([]byte(val), &profile); err == nil {
			return &profile, nil
		}
		// Corrupt entry, drop it and re-resolve.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		logrus.WithError(err).WithField("userId", userID).Warn("profile cache read failed")
	}

	profile, err := c.next.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(profile); err == nil {
		if err := c.rdb.Set(ctx, key, payload, ProfileTTL).Err(); err != nil {
			logrus.WithError(err).WithField("userId", userID).Warn("profile cache write failed")
		}
	}

	return profile, nil
}

// Invalidate removes a cached profile.
func (c *CachingResolver) Invalidate(ctx context.Context, userID string) {
	c.rdb.Del(ctx, profileKey(userID))
}

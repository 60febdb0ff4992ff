package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/model"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const (
	favoritesTTL     = 5 * time.Minute
	favoritesLoadTTL = 5 * time.Second
)

// cachedFavoriteRepo keeps each user's favorites list in redis. Writes go to
// the database first and then drop the cached copy. When redis misbehaves the
// breaker opens and reads fall through to the database.
//
// A user whose cached copy could not be dropped is marked dirty and read from
// the database until a later drop succeeds.
type cachedFavoriteRepo struct {
	next FavoriteRepository
	rdb  *redis.Client
	sf   singleflight.Group
	log  *logrus.Logger
	cb   *gobreaker.CircuitBreaker

	mu    sync.Mutex
	dirty map[uint]struct{}
	// bumped after every committed write; a loader that saw it move does not
	// populate the cache with what it read
	writes uint64

	hitTotal        uint64
	missTotal       uint64
	fallbackTotal   uint64
	invalidateFails uint64
}

func NewCachedFavoriteRepo(next FavoriteRepository, rdb *redis.Client, log *logrus.Logger) FavoriteRepository {
	st := gobreaker.Settings{
		Name:        "FavoritesCacheBreaker",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker %s state changed from %s to %s", name, from, to)
		},
	}

	c := &cachedFavoriteRepo{
		next:  next,
		rdb:   rdb,
		log:   log,
		cb:    gobreaker.NewCircuitBreaker(st),
		dirty: make(map[uint]struct{}),
	}
	c.registerMetrics(otel.GetMeterProvider().Meter("pokedexservice.repo"))
	return c
}

func (c *cachedFavoriteRepo) registerMetrics(meter metric.Meter) {
	gauges := []struct {
		name string
		v    *uint64
	}{
		{"favorites_cache_hit_total", &c.hitTotal},
		{"favorites_cache_miss_total", &c.missTotal},
		{"favorites_cache_fallback_total", &c.fallbackTotal},
		{"favorites_cache_invalidate_fail_total", &c.invalidateFails},
	}
	for _, g := range gauges {
		v := g.v
		_, err := meter.Int64ObservableGauge(
			g.name,
			metric.WithUnit("{ops}"),
			metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
				obs.Observe(int64(atomic.LoadUint64(v)))
				return nil
			}),
		)
		if err != nil {
			c.log.Warnf("failed to register metric %s: %v", g.name, err)
		}
	}
}

func favoritesKey(userID uint) string {
	return fmt.Sprintf("favorites:%d", userID)
}

func (c *cachedFavoriteRepo) ListFavoritesByUser(ctx context.Context, userID uint) ([]*model.Favorite, error) {
	key := favoritesKey(userID)

	if c.isDirty(userID) && !c.invalidate(ctx, userID) {
		atomic.AddUint64(&c.fallbackTotal, 1)
		return c.next.ListFavoritesByUser(ctx, userID)
	}

	val, err := c.cb.Execute(func() (interface{}, error) {
		res, err := c.rdb.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		atomic.AddUint64(&c.fallbackTotal, 1)
		c.log.Warnf("[ListFavorites] cache unavailable, reading database: %v", err)
		return c.next.ListFavoritesByUser(ctx, userID)
	}

	if val != nil {
		var favs []*model.Favorite
		if err := json.Unmarshal([]byte(val.(string)), &favs); err == nil {
			atomic.AddUint64(&c.hitTotal, 1)
			return favs, nil
		}
		c.log.Errorf("[ListFavorites] failed to unmarshal %s from redis: %v", key, err)
	}
	atomic.AddUint64(&c.missTotal, 1)

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// shared by every waiter, so it must outlive the caller that started it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), favoritesLoadTTL)
		defer cancel()

		seen := atomic.LoadUint64(&c.writes)
		favs, err := c.next.ListFavoritesByUser(loadCtx, userID)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(favs)
		if err != nil {
			c.log.Errorf("[ListFavorites] failed to marshal favorites for user %d: %v", userID, err)
			return favs, nil
		}
		if atomic.LoadUint64(&c.writes) != seen || c.isDirty(userID) {
			return favs, nil
		}
		ttl := favoritesTTL + time.Duration(rand.Intn(60))*time.Second
		if err := c.rdb.Set(loadCtx, key, string(data), ttl).Err(); err != nil {
			c.log.Errorf("[ListFavorites] failed to write cache for redis key %s: %v", key, err)
		}
		return favs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*model.Favorite), nil
}

func (c *cachedFavoriteRepo) GetFavorite(ctx context.Context, id uint) (*model.Favorite, error) {
	return c.next.GetFavorite(ctx, id)
}

func (c *cachedFavoriteRepo) CreateFavorite(ctx context.Context, fav *model.Favorite) error {
	if err := c.next.CreateFavorite(ctx, fav); err != nil {
		return err
	}
	atomic.AddUint64(&c.writes, 1)
	c.invalidate(ctx, fav.UserID)
	return nil
}

func (c *cachedFavoriteRepo) DeleteFavorite(ctx context.Context, userID, id uint) error {
	if err := c.next.DeleteFavorite(ctx, userID, id); err != nil {
		return err
	}
	atomic.AddUint64(&c.writes, 1)
	c.invalidate(ctx, userID)
	return nil
}

// invalidate drops the user's cached list. On failure the user stays dirty
// so reads bypass the cache until a later attempt succeeds.
func (c *cachedFavoriteRepo) invalidate(ctx context.Context, userID uint) bool {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Del(ctx, favoritesKey(userID)).Err()
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.dirty[userID] = struct{}{}
		atomic.AddUint64(&c.invalidateFails, 1)
		c.log.Errorf("[Favorites] failed to invalidate cache for user %d: %v", userID, err)
		return false
	}
	delete(c.dirty, userID)
	return true
}

func (c *cachedFavoriteRepo) isDirty(userID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.dirty[userID]
	return ok
}

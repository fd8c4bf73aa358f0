package rates

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"

	"currency-api/domain"
)

const (
	latestKey     = "rates:latest"
	currenciesKey = "rates:currencies"

	// generationSuffix names the counter bumped whenever a cached key is invalidated
	generationSuffix = ":gen"
)

// errStaleFill reports a load that started before the latest invalidation.
var errStaleFill = errors.New("cache entry invalidated during load")

// RedisCache decorates a Store with a read-through cache shared by every API instance.
// Redis failures are logged and fall through to the decorated store.
//
// Every invalidation bumps a generation counter next to the cached key. A read-through
// only fills the cache when the generation is unchanged since before it loaded from the
// decorated store, so a slow load cannot overwrite a newer ingest.
type RedisCache struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	logger log.Logger
}

// NewRedisCache returns a Store caching reads of next in redis for ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger log.Logger, next Store) *RedisCache {
	return &RedisCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ConnectRedis parses url, connects and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (c *RedisCache) Latest(ctx context.Context) (*domain.Snapshot, error) {
	if data, err := c.client.Get(ctx, latestKey).Bytes(); err == nil {
		var snapshot domain.Snapshot
		uerr := json.Unmarshal(data, &snapshot)
		if uerr == nil {
			return &snapshot, nil
		}
		c.logger.Log("msg", "discarding unreadable cached snapshot", "err", uerr)
	} else if err != redis.Nil {
		c.logger.Log("msg", "redis get failed", "key", latestKey, "err", err)
	}

	gen, genErr := c.generation(ctx, latestKey)
	snapshot, err := c.next.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.fill(ctx, latestKey, gen, snapshot)
	}
	return snapshot, nil
}

func (c *RedisCache) Ingest(ctx context.Context, snapshot *domain.Snapshot) error {
	if err := c.next.Ingest(ctx, snapshot); err != nil {
		return err
	}
	c.invalidate(ctx, latestKey)
	return nil
}

func (c *RedisCache) Currencies(ctx context.Context) ([]domain.CurrencyName, error) {
	if data, err := c.client.Get(ctx, currenciesKey).Bytes(); err == nil {
		var currencies []domain.CurrencyName
		if err := json.Unmarshal(data, &currencies); err == nil {
			return currencies, nil
		}
	} else if err != redis.Nil {
		c.logger.Log("msg", "redis get failed", "key", currenciesKey, "err", err)
	}

	gen, genErr := c.generation(ctx, currenciesKey)
	currencies, err := c.next.Currencies(ctx)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.fill(ctx, currenciesKey, gen, currencies)
	}
	return currencies, nil
}

func (c *RedisCache) SaveCurrencies(ctx context.Context, currencies []domain.CurrencyName) error {
	if err := c.next.SaveCurrencies(ctx, currencies); err != nil {
		return err
	}
	c.invalidate(ctx, currenciesKey)
	return nil
}

// generation reads the invalidation counter of key, "" when it was never invalidated.
func (c *RedisCache) generation(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, key+generationSuffix).Result()
	switch {
	case err == redis.Nil:
		return "", nil
	case err != nil:
		c.logger.Log("msg", "redis get failed", "key", key+generationSuffix, "err", err)
		return "", err
	}
	return gen, nil
}

// fill caches v under key unless key was invalidated after gen was read.
func (c *RedisCache) fill(ctx context.Context, key, gen string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Log("msg", "encoding cache entry failed", "key", key, "err", err)
		return
	}

	genKey := key + generationSuffix
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.logger.Log("msg", "skipping stale cache fill", "key", key)
	default:
		c.logger.Log("msg", "redis set failed", "key", key, "err", err)
	}
}

// invalidate drops key and bumps its generation in one transaction.
func (c *RedisCache) invalidate(ctx context.Context, key string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key+generationSuffix)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.logger.Log("msg", "redis invalidate failed", "key", key, "err", err)
	}
}

package scout

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel metadata cache: L1 in-memory + optional L2 Redis. A cache hit
// skips a channels.list unit; L2 makes hits survive restarts, which is
// what actually saves quota for a daily cron.
var chanCache *tieredCache

type tieredCache struct {
	l1  sync.Map      // channel_id → *cacheEntry
	rdb *redis.Client // nil if Redis unavailable
	ttl time.Duration
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the channel metadata cache. Call after Init().
// redisURL can be empty to disable L2.
func InitCache(redisURL string, ttl time.Duration) {
	c := &tieredCache{ttl: ttl}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
			} else {
				c.rdb = rdb
				slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	chanCache = c
	slog.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil))
}

func cacheKey(channelID string) string { return "scout:ch:" + channelID }

// CacheGetChannel tries L1, then L2. On L2 hit, populates L1.
func CacheGetChannel(ctx context.Context, channelID string) (ChannelMetadata, bool) {
	if chanCache == nil {
		MetricCacheMisses.Add(1)
		return ChannelMetadata{}, false
	}

	key := cacheKey(channelID)
	if val, ok := chanCache.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			var meta ChannelMetadata
			if json.Unmarshal(entry.data, &meta) == nil {
				MetricCacheHits.Add(1)
				return meta, true
			}
		}
		chanCache.l1.Delete(key) // expired or corrupt
	}

	if chanCache.rdb != nil {
		data, err := chanCache.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var meta ChannelMetadata
			if json.Unmarshal(data, &meta) == nil {
				MetricCacheHits.Add(1)
				chanCache.l1.Store(key, &cacheEntry{
					data:      data,
					expiresAt: time.Now().Add(chanCache.ttl),
				})
				return meta, true
			}
		}
	}

	MetricCacheMisses.Add(1)
	return ChannelMetadata{}, false
}

// CachePutChannel stores metadata in L1 and, when available, L2.
func CachePutChannel(ctx context.Context, meta ChannelMetadata) {
	if chanCache == nil || meta.ChannelID == "" {
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	key := cacheKey(meta.ChannelID)
	chanCache.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(chanCache.ttl)})
	if chanCache.rdb != nil {
		if err := chanCache.rdb.Set(ctx, key, data, chanCache.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

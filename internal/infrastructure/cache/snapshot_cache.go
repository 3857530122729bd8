package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const snapshotKeyPrefix = "ledger:snapshot:"

// RedisSnapshotCache implements ledger.SnapshotCache on Redis. Every failure
// is treated as a miss and logged at debug level: the cache is an accelerator,
// never a source of truth.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient builds a redis client from configuration and verifies the
// connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisSnapshotCache creates a snapshot cache with the given TTL
func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSnapshotCache{client: client, ttl: ttl, logger: logger.Named("snapshot-cache")}
}

func snapshotKey(projectNumber int64) string {
	return snapshotKeyPrefix + strconv.FormatInt(projectNumber, 10)
}

// Get returns the cached snapshot for a project, if present
func (c *RedisSnapshotCache) Get(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, bool) {
	raw, err := c.client.Get(ctx, snapshotKey(projectNumber)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("snapshot cache read failed", zap.Int64("project", projectNumber), zap.Error(err))
		}
		return nil, false
	}

	var snapshot ledger.BalanceSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		c.logger.Debug("snapshot cache entry corrupt, dropping", zap.Int64("project", projectNumber), zap.Error(err))
		c.client.Del(ctx, snapshotKey(projectNumber))
		return nil, false
	}
	return &snapshot, true
}

// Set stores a snapshot with the configured TTL
func (c *RedisSnapshotCache) Set(ctx context.Context, snapshot *ledger.BalanceSnapshot) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		c.logger.Debug("snapshot cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, snapshotKey(snapshot.ProjectNumber), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("snapshot cache write failed", zap.Int64("project", snapshot.ProjectNumber), zap.Error(err))
	}
}

// Invalidate drops the cached row for a project
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, projectNumber int64) {
	if err := c.client.Del(ctx, snapshotKey(projectNumber)).Err(); err != nil {
		c.logger.Debug("snapshot cache invalidate failed", zap.Int64("project", projectNumber), zap.Error(err))
	}
}

var _ ledger.SnapshotCache = (*RedisSnapshotCache)(nil)

// NoopSnapshotCache is used when Redis is not configured
type NoopSnapshotCache struct{}

// Get always misses
func (NoopSnapshotCache) Get(ctx context.Context, projectNumber int64) (*ledger.BalanceSnapshot, bool) {
	return nil, false
}

// Set does nothing
func (NoopSnapshotCache) Set(ctx context.Context, snapshot *ledger.BalanceSnapshot) {}

// Invalidate does nothing
func (NoopSnapshotCache) Invalidate(ctx context.Context, projectNumber int64) {}

var _ ledger.SnapshotCache = NoopSnapshotCache{}

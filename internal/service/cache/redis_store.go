package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
)

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	HashKey  string
}

// RedisStore keeps the translation map in a single Redis hash, one field per cache identity.
type RedisStore struct {
	client  *redis.Client
	hashKey string
	logger  *zap.Logger
}

func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", addr, err)
	}

	hashKey := cfg.HashKey
	if hashKey == "" {
		hashKey = constants.CacheConfig.RedisHashKey
	}

	logger.Info("Redis connected",
		zap.String("addr", addr),
		zap.Int("db", cfg.DB),
		zap.String("hash", hashKey),
	)

	return &RedisStore{client: client, hashKey: hashKey, logger: logger}, nil
}

func (s *RedisStore) Name() string {
	return "redis:" + s.hashKey
}

func (s *RedisStore) Load(ctx context.Context) (map[string]domain.NameTriple, error) {
	values, err := s.client.HGetAll(ctx, s.hashKey).Result()
	if err != nil {
		s.logger.Error("Cache hash get all failed", zap.String("key", s.hashKey), zap.Error(err))
		return nil, errors.NewCacheError("hgetall failed", "hgetall", s.hashKey, err)
	}
	return decodeFields(values, s.logger), nil
}

// Save replaces the hash content in one transaction.
func (s *RedisStore) Save(ctx context.Context, entries map[string]domain.NameTriple) error {
	fields, err := encodeFields(entries)
	if err != nil {
		return errors.NewCacheError("marshal failed", "hset", s.hashKey, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.hashKey)
		if len(fields) > 0 {
			pipe.HSet(ctx, s.hashKey, fields)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Cache hash set failed", zap.String("key", s.hashKey), zap.Error(err))
		return errors.NewCacheError("hset failed", "hset", s.hashKey, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return errors.NewCacheError("close failed", "close", s.hashKey, err)
	}
	s.logger.Info("Redis connection closed")
	return nil
}

func encodeFields(entries map[string]domain.NameTriple) (map[string]any, error) {
	fields := make(map[string]any, len(entries))
	for id, triple := range entries {
		data, err := json.Marshal(triple)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", id, err)
		}
		fields[id] = string(data)
	}
	return fields, nil
}

// decodeFields drops fields that do not hold a name triple; they are re-translated later.
func decodeFields(values map[string]string, logger *zap.Logger) map[string]domain.NameTriple {
	entries := make(map[string]domain.NameTriple, len(values))
	for id, raw := range values {
		var triple domain.NameTriple
		if err := json.Unmarshal([]byte(raw), &triple); err != nil {
			logger.Warn("Dropping malformed cache field", zap.String("cache_id", id), zap.Error(err))
			continue
		}
		entries[id] = triple
	}
	return entries
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jzagalv/ssaa-designer/pkg/observability"
	"github.com/jzagalv/ssaa-designer/pkg/schema"
)

// redisKeyPrefix namespaces designer projects inside a shared Redis.
const redisKeyPrefix = "ssaa:project:"

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is optional.
	Password string
	// DB selects the logical database.
	DB int
	// TTL expires stored projects after the duration. Zero keeps them
	// forever, which is the right default for project data.
	TTL time.Duration
}

// Redis stores projects in Redis. Useful for shared scratch state between
// designer instances; pair it with a durable backend for archival.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

func (s *Redis) key(name string) string { return redisKeyPrefix + name }

func (s *Redis) Load(ctx context.Context, name string) (*schema.ProjectDocument, error) {
	start := time.Now()
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.Store().OnLoad(ctx, "redis", name, time.Since(start), ErrNotFound)
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		observability.Store().OnLoad(ctx, "redis", name, time.Since(start), err)
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var doc schema.ProjectDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		observability.Store().OnLoad(ctx, "redis", name, time.Since(start), err)
		return nil, fmt.Errorf("parse project %q: %w", name, err)
	}
	observability.Store().OnLoad(ctx, "redis", name, time.Since(start), nil)
	return &doc, nil
}

func (s *Redis) Save(ctx context.Context, name string, doc *schema.ProjectDocument) error {
	start := time.Now()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := s.client.Set(ctx, s.key(name), data, s.ttl).Err(); err != nil {
		observability.Store().OnSave(ctx, "redis", name, len(data), time.Since(start), err)
		return fmt.Errorf("redis set: %w", err)
	}
	observability.Store().OnSave(ctx, "redis", name, len(data), time.Since(start), nil)
	return nil
}

func (s *Redis) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *Redis) List(ctx context.Context) ([]string, error) {
	var names []string
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		for _, key := range keys {
			names = append(names, strings.TrimPrefix(key, redisKeyPrefix))
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(names)
	return names, nil
}

func (s *Redis) Close() error { return s.client.Close() }

var _ Store = (*Redis)(nil)

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/overworld/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // 0 - без истечения
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "overworld:checkpoint:",
	}
}

// RedisCheckpointRepo хранит точки сохранения в Redis как JSON
type RedisCheckpointRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisCheckpointRepo подключается к Redis и проверяет соединение
func NewRedisCheckpointRepo(ctx context.Context, config *RedisConfig) (*RedisCheckpointRepo, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetComponentLogger("storage").Info("🔴 Connected to Redis at %s", config.Addr)
	return &RedisCheckpointRepo{client: client, keyPrefix: config.KeyPrefix, ttl: config.TTL}, nil
}

func (r *RedisCheckpointRepo) key(slot string) string { return r.keyPrefix + slot }

func (r *RedisCheckpointRepo) Save(ctx context.Context, cp *Checkpoint) error {
	if err := cp.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint %s: %w", cp.Slot, err)
	}
	if err := r.client.Set(ctx, r.key(cp.Slot), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.Slot, err)
	}
	return nil
}

func (r *RedisCheckpointRepo) Load(ctx context.Context, slot string) (*Checkpoint, bool, error) {
	data, err := r.client.Get(ctx, r.key(slot)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load checkpoint %s: %w", slot, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, false, fmt.Errorf("unmarshal checkpoint %s: %w", slot, err)
	}
	return &cp, true, nil
}

func (r *RedisCheckpointRepo) Delete(ctx context.Context, slot string) error {
	n, err := r.client.Del(ctx, r.key(slot)).Result()
	if err != nil {
		return fmt.Errorf("delete checkpoint %s: %w", slot, err)
	}
	if n == 0 {
		return fmt.Errorf("checkpoint %s not found", slot)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisCheckpointRepo) Close() error {
	return r.client.Close()
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisOptions параметры подключения к Redis
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // 0: без истечения
}

// RedisPlayerRepo хранит состояние игроков JSON-строками с TTL
type RedisPlayerRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPlayerRepo подключается к Redis и проверяет соединение
func NewRedisPlayerRepo(opts RedisOptions) (*RedisPlayerRepo, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetStorageLogger().Info("🔴 Подключено к Redis %s", opts.Addr)
	return &RedisPlayerRepo{client: client, keyPrefix: opts.KeyPrefix, ttl: opts.TTL}, nil
}

func (r *RedisPlayerRepo) key(playerID string) string {
	return r.keyPrefix + playerID
}

func (r *RedisPlayerRepo) Save(ctx context.Context, playerID string, st PlayerState) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal player state: %w", err)
	}
	if err := r.client.Set(ctx, r.key(playerID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save player state: %w", err)
	}
	return nil
}

func (r *RedisPlayerRepo) Load(ctx context.Context, playerID string) (PlayerState, bool, error) {
	if err := validatePlayerID(playerID); err != nil {
		return PlayerState{}, false, err
	}

	data, err := r.client.Get(ctx, r.key(playerID)).Bytes()
	if err == redis.Nil {
		return PlayerState{}, false, nil
	}
	if err != nil {
		return PlayerState{}, false, fmt.Errorf("failed to get player state: %w", err)
	}

	var st PlayerState
	if err := json.Unmarshal(data, &st); err != nil {
		return PlayerState{}, false, fmt.Errorf("failed to unmarshal player state: %w", err)
	}
	return st, true, nil
}

func (r *RedisPlayerRepo) Delete(ctx context.Context, playerID string) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}

	n, err := r.client.Del(ctx, r.key(playerID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete player state: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return nil
}

// BatchSave пишет все состояния одним пайплайном
func (r *RedisPlayerRepo) BatchSave(ctx context.Context, states map[string]PlayerState) error {
	if len(states) == 0 {
		return nil
	}

	now := time.Now().UTC()
	pipe := r.client.Pipeline()
	for id, st := range states {
		if err := validatePlayerID(id); err != nil {
			return err
		}
		if st.UpdatedAt.IsZero() {
			st.UpdatedAt = now
		}
		data, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to marshal player state %s: %w", id, err)
		}
		pipe.Set(ctx, r.key(id), data, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisPlayerRepo) Close() error {
	return r.client.Close()
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/frozen-forest/internal/config"
	"github.com/annel0/frozen-forest/internal/vec"
)

var (
	ErrInvalidPlayerID = errors.New("недействительный playerID")
	ErrPlayerNotFound  = errors.New("состояние игрока не найдено")
)

// PlayerState сохраняемое между запусками состояние игрока
type PlayerState struct {
	Position  vec.Vec2Float `json:"position"`
	Health    float64       `json:"health"`
	MaxHealth float64       `json:"max_health"`
	Slot      int           `json:"slot"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PlayerStateRepo хранилище состояния игроков по строковому ID
type PlayerStateRepo interface {
	// Save сохраняет состояние игрока
	Save(ctx context.Context, playerID string, st PlayerState) error

	// Load возвращает состояние; false если игрок ещё не сохранялся
	Load(ctx context.Context, playerID string) (PlayerState, bool, error)

	// Delete удаляет состояние. Отсутствующий игрок даёт ErrPlayerNotFound.
	Delete(ctx context.Context, playerID string) error

	// BatchSave сохраняет несколько состояний одной операцией
	BatchSave(ctx context.Context, states map[string]PlayerState) error

	Close() error
}

// NewPlayerStateRepo создаёт репозиторий по storage.player_repo
func NewPlayerStateRepo(cfg config.StorageConfig) (PlayerStateRepo, error) {
	switch cfg.PlayerRepo {
	case "", "memory":
		return NewMemoryPlayerRepo(), nil
	case "redis":
		return NewRedisPlayerRepo(RedisOptions{
			Addr:      cfg.Redis.GetRedisAddr(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.Prefix,
			TTL:       cfg.Redis.TTL(),
		})
	case "maria":
		return NewMariaPlayerRepo(cfg.Maria.GetDSN())
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownRepo, cfg.PlayerRepo)
	}
}

func validatePlayerID(playerID string) error {
	if playerID == "" || len(playerID) > 64 {
		return fmt.Errorf("%w: %q", ErrInvalidPlayerID, playerID)
	}
	return nil
}

package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryPlayerRepo реализует PlayerStateRepo в памяти.
// Используется по умолчанию и в тестах. Данные теряются при перезапуске.
type MemoryPlayerRepo struct {
	mu   sync.RWMutex
	data map[string]PlayerState
}

// NewMemoryPlayerRepo создаёт пустой репозиторий
func NewMemoryPlayerRepo() *MemoryPlayerRepo {
	return &MemoryPlayerRepo{data: make(map[string]PlayerState)}
}

func (r *MemoryPlayerRepo) Save(ctx context.Context, playerID string, st PlayerState) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[playerID] = st
	return nil
}

func (r *MemoryPlayerRepo) Load(ctx context.Context, playerID string) (PlayerState, bool, error) {
	if err := validatePlayerID(playerID); err != nil {
		return PlayerState{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return PlayerState{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.data[playerID]
	return st, ok, nil
}

func (r *MemoryPlayerRepo) Delete(ctx context.Context, playerID string) error {
	if err := validatePlayerID(playerID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[playerID]; !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	delete(r.data, playerID)
	return nil
}

func (r *MemoryPlayerRepo) BatchSave(ctx context.Context, states map[string]PlayerState) error {
	if len(states) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// Проверяем все записи до изменения
	for id := range states {
		if err := validatePlayerID(id); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, st := range states {
		if st.UpdatedAt.IsZero() {
			st.UpdatedAt = now
		}
		r.data[id] = st
	}
	return nil
}

// Count количество сохранённых игроков
func (r *MemoryPlayerRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

func (r *MemoryPlayerRepo) Close() error { return nil }

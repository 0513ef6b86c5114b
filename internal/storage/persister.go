package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/frozen-forest/internal/logging"
	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/annel0/frozen-forest/internal/vec"
)

// LocalPlayerID ID единственного игрока сервера в репозитории состояний
const LocalPlayerID = "local"

// Persister сохраняет снимок мира и отдельно состояние игрока
type Persister struct {
	world   *WorldStorage
	players PlayerStateRepo
	logger  *logging.Logger
}

// NewPersister объединяет хранилище мира и репозиторий игроков. players может быть nil.
func NewPersister(world *WorldStorage, players PlayerStateRepo) *Persister {
	return &Persister{world: world, players: players, logger: logging.GetStorageLogger()}
}

// Persist записывает снимок и состояние игрока из него
func (p *Persister) Persist(ctx context.Context, snap *protocol.Snapshot) error {
	if err := p.world.SaveSnapshot(snap); err != nil {
		return err
	}
	if p.players == nil {
		return nil
	}

	st, ok := PlayerStateFromSnapshot(snap)
	if !ok {
		// Игрок погиб, прошлое состояние не нужно
		return nil
	}
	if err := p.players.Save(ctx, LocalPlayerID, st); err != nil {
		return fmt.Errorf("сохранение игрока: %w", err)
	}
	return nil
}

// Load читает снимок мира и накладывает на него сохранённое состояние игрока
func (p *Persister) Load(ctx context.Context) (*protocol.Snapshot, bool, error) {
	snap, ok, err := p.world.LoadSnapshot()
	if err != nil || !ok {
		return nil, false, err
	}
	if p.players == nil {
		return snap, true, nil
	}

	st, found, err := p.players.Load(ctx, LocalPlayerID)
	if err != nil {
		p.logger.Warn("⚠️ Состояние игрока недоступно, используем снимок: %v", err)
		return snap, true, nil
	}
	if found {
		ApplyPlayerState(snap, st)
	}
	return snap, true, nil
}

// PlayerStateFromSnapshot извлекает состояние игрока из снимка
func PlayerStateFromSnapshot(snap *protocol.Snapshot) (PlayerState, bool) {
	for _, e := range snap.Entities {
		if e.ID != snap.PlayerID || snap.PlayerID == 0 {
			continue
		}
		return PlayerState{
			Position:  vec.Vec2Float{X: e.X, Y: e.Y},
			Health:    e.Health,
			MaxHealth: e.MaxHealth,
			Slot:      int(snap.SelectedSlot),
			UpdatedAt: time.Now().UTC(),
		}, true
	}
	return PlayerState{}, false
}

// ApplyPlayerState переносит состояние игрока в снимок
func ApplyPlayerState(snap *protocol.Snapshot, st PlayerState) {
	snap.SelectedSlot = int32(st.Slot)
	for i := range snap.Entities {
		e := &snap.Entities[i]
		if e.ID != snap.PlayerID || snap.PlayerID == 0 {
			continue
		}
		e.X, e.Y = st.Position.X, st.Position.Y
		e.Health, e.MaxHealth = st.Health, st.MaxHealth
		return
	}
}
